package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-buildmart/services"
	"go-buildmart/utils"
)

type DeliveryZoneController struct {
	Zones *services.ZoneService
}

func NewDeliveryZoneController(zones *services.ZoneService) *DeliveryZoneController {
	return &DeliveryZoneController{Zones: zones}
}

// CheckPincode reports whether a pincode (and optional ?area=) is served.
func (dc *DeliveryZoneController) CheckPincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	check, err := dc.Zones.Check(ctx, mux.Vars(r)["pincode"], r.URL.Query().Get("area"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	body := utils.Envelope{Success: true, Data: check}
	if !check.Available {
		body.Message = "Delivery not available for this pincode"
	}
	utils.JSON(w, http.StatusOK, body)
}

func (dc *DeliveryZoneController) ListZones(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	zones, err := dc.Zones.List(ctx, r.URL.Query().Get("pincode"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, zones)
}

func (dc *DeliveryZoneController) CreateZone(w http.ResponseWriter, r *http.Request) {
	var in services.ZoneInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	zone, err := dc.Zones.Create(ctx, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Created(w, "Delivery zone created", zone)
}

func (dc *DeliveryZoneController) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in services.ZoneInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	zone, err := dc.Zones.Update(ctx, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Delivery zone updated", Data: zone})
}

func (dc *DeliveryZoneController) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := dc.Zones.Delete(ctx, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Delivery zone deleted")
}
