package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
	"go-buildmart/utils"
)

func zone(pincode, area string, charge float64, active bool) models.DeliveryZone {
	return models.DeliveryZone{
		ID:             primitive.NewObjectID(),
		Pincode:        pincode,
		Area:           area,
		DeliveryCharge: charge,
		EstimatedDays:  2,
		IsActive:       active,
	}
}

func TestMatchZonePrefersArea(t *testing.T) {
	zones := []models.DeliveryZone{
		zone("560001", "MG Road", 60, true),
		zone("560001", "Shivajinagar", 80, true),
	}
	z := MatchZone(zones, "560001", "shivajinagar")
	require.NotNil(t, z)
	assert.Equal(t, "Shivajinagar", z.Area)

	z = MatchZone(zones, "560001", "Unknown Layout")
	require.NotNil(t, z)
	assert.Equal(t, "MG Road", z.Area)

	z = MatchZone(zones, "560001", "")
	require.NotNil(t, z)
}

func TestMatchZoneIgnoresInactiveAndOtherPincodes(t *testing.T) {
	zones := []models.DeliveryZone{
		zone("560001", "MG Road", 60, false),
		zone("400001", "Fort", 150, true),
	}
	assert.Nil(t, MatchZone(zones, "560001", "MG Road"))
	assert.Nil(t, MatchZone(nil, "560001", ""))
}

func TestMergeLines(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	ids, qty, err := MergeLines([]CartLine{
		{ProductID: a.Hex(), Quantity: 2},
		{ProductID: b.Hex(), Quantity: 1},
		{ProductID: a.Hex(), Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, ids)
	assert.Equal(t, 5, qty[a])
	assert.Equal(t, 1, qty[b])

	_, _, err = MergeLines(nil)
	assert.Error(t, err)
	_, _, err = MergeLines([]CartLine{{ProductID: "nope", Quantity: 1}})
	assert.Error(t, err)
}

func draft(user *models.User, p models.Product, qty int, z *models.DeliveryZone) OrderDraft {
	return OrderDraft{
		User:     user,
		Lines:    []CartLine{{ProductID: p.ID.Hex(), Quantity: qty, Price: 1}},
		Products: map[primitive.ObjectID]models.Product{p.ID: p},
		Zone:     z,
		Payment:  models.PaymentCOD,
		Now:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildOrderPrimaryScenario(t *testing.T) {
	p := *tiered()
	p.ID = primitive.NewObjectID()
	p.Stock = 100
	p.IsAvailable = true
	z := zone("560001", "MG Road", 60, true)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RolePrimary}

	o, err := BuildOrder(draft(user, p, 5, &z))
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, 320.0, o.Items[0].PriceAtPurchase)
	assert.Equal(t, 1600.0, o.Items[0].LineTotal)
	assert.Equal(t, 1600.0, o.Subtotal)
	assert.Equal(t, 60.0, o.DeliveryCharge)
	assert.Equal(t, 1660.0, o.TotalAmount)
	assert.Equal(t, models.StatusProcessing, o.Status)
	assert.Equal(t, models.PaymentPending, o.PaymentStatus)
	assert.Equal(t, z.ID, o.DeliveryZone)
	require.Len(t, o.TrackingHistory, 1)
	assert.Equal(t, models.StatusProcessing, o.TrackingHistory[0].Status)
	assert.Equal(t, time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC), o.EstimatedDelivery)
}

func TestBuildOrderIgnoresClientPrice(t *testing.T) {
	p := *tiered()
	p.ID = primitive.NewObjectID()
	p.Stock = 10
	p.IsAvailable = true
	z := zone("560001", "MG Road", 0, true)
	d := draft(&models.User{ID: primitive.NewObjectID(), Role: models.RoleRegistered}, p, 2, &z)
	d.Lines[0].Price = 0.01

	o, err := BuildOrder(d)
	require.NoError(t, err)
	assert.Equal(t, 700.0, o.TotalAmount)
}

func TestBuildOrderDecimalTotals(t *testing.T) {
	p := models.Product{ID: primitive.NewObjectID(), Name: "Sand", Price: 0.1, Stock: 100, IsAvailable: true}
	z := zone("560001", "MG Road", 0.2, true)
	o, err := BuildOrder(draft(&models.User{ID: primitive.NewObjectID()}, p, 3, &z))
	require.NoError(t, err)
	assert.Equal(t, 0.3, o.Subtotal)
	assert.Equal(t, 0.5, o.TotalAmount)
}

func TestBuildOrderRejections(t *testing.T) {
	p := *tiered()
	p.ID = primitive.NewObjectID()
	p.Stock = 3
	p.IsAvailable = true
	z := zone("560001", "MG Road", 60, true)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RolePrimary}

	_, err := BuildOrder(draft(user, p, 1, nil))
	requireStatus(t, err, 400)

	_, err = BuildOrder(draft(user, p, 4, &z))
	requireStatus(t, err, 400)

	d := draft(user, p, 1, &z)
	d.Payment = "barter"
	_, err = BuildOrder(d)
	requireStatus(t, err, 400)

	d = draft(user, p, 1, &z)
	d.Products = nil
	_, err = BuildOrder(d)
	requireStatus(t, err, 404)

	free := models.Product{ID: primitive.NewObjectID(), Name: "Free", Stock: 5, IsAvailable: true}
	_, err = BuildOrder(draft(user, free, 1, &z))
	requireStatus(t, err, 400)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, utils.Classify(err).Status, err.Error())
}
