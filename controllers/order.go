package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/utils"
)

// IdempotencyHeader makes order placement safe to retry.
const IdempotencyHeader = "Idempotency-Key"

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder places an order. Prices are recomputed server-side.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	var in services.PlaceOrderInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	in.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(in.IdempotencyKey) > 128 {
		utils.WriteError(w, r, utils.BadRequest("Idempotency-Key is too long"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	order, created, err := oc.Orders.Place(ctx, user, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if !created {
		utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Order already placed", Data: order})
		return
	}
	utils.Created(w, "Order placed successfully", order)
}

// GetMyOrders lists the caller's orders, newest first.
func (oc *OrderController) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	page := utils.ParsePage(r)
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, total, err := oc.Orders.ListMine(ctx, user, page)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Paginated(w, orders, utils.NewPagination(page.Number, page.Limit, total))
}

// GetOrder returns one order to its owner or an admin.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.Get(ctx, user, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, order)
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// CancelOrder cancels a Processing or Confirmed order.
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.WriteError(w, r, err)
			return
		}
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.Cancel(ctx, user, id, req.Reason)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Order cancelled", Data: order})
}

// GetOrders is the admin listing, filtered by ?status= and ?user=.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.OrderFilter{
		Status: models.OrderStatus(q.Get("status")),
		Page:   utils.ParsePage(r),
	}
	if raw := q.Get("user"); raw != "" {
		uid, err := repository.ParseID(raw)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		f.User = &uid
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, total, err := oc.Orders.ListAll(ctx, f)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Paginated(w, orders, utils.NewPagination(f.Page.Number, f.Page.Limit, total))
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Note   string             `json:"note" validate:"max=500"`
}

// UpdateOrderStatus moves an order along its lifecycle (admin only).
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := mustUser(w, r)
	if !ok {
		return
	}
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req statusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.UpdateStatus(ctx, admin, id, req.Status, req.Note)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Order status updated", Data: order})
}

type paymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required"`
}

// UpdateOrderPaymentStatus updates the payment status of an order (admin only)
func (oc *OrderController) UpdateOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(mux.Vars(r), "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var req paymentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	order, err := oc.Orders.UpdatePayment(ctx, id, req.PaymentStatus)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Payment status updated", Data: order})
}
