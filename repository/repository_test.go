package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Limit: 20}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Limit: 100}, Page{Number: 3, Limit: 500}.Normalize())
	assert.EqualValues(t, 40, Page{Number: 3, Limit: 20}.Skip())
	assert.EqualValues(t, 0, Page{Number: -2}.Skip())
}

func TestDuplicateField(t *testing.T) {
	msg := `E11000 duplicate key error collection: buildmart.users index: email_unique dup key: { email: "a@b.c" }`
	assert.Equal(t, "email", duplicateField(msg))
	assert.Equal(t, "idempotency_key", duplicateField("index: user_idempotency_key_unique dup key"))
	assert.Equal(t, "sku", duplicateField("index: sku_1 dup key"))
	assert.Equal(t, "field", duplicateField("something else"))
}

func TestParseID(t *testing.T) {
	_, err := ParseID("zzz")
	assert.ErrorIs(t, err, ErrInvalidID)

	id := primitive.NewObjectID()
	got, err := ParseID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func seedProduct(t *testing.T, s *Store, name string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Category: "cement", Price: 100, Stock: stock, IsAvailable: true}
	require.NoError(t, s.Products.Create(context.Background(), &p))
	return p
}

func order(user primitive.ObjectID, p models.Product, qty int) *models.Order {
	return &models.Order{
		User:   user,
		Status: models.StatusProcessing,
		Items:  []models.OrderItem{{Product: p.ID, Name: p.Name, Quantity: qty, PriceAtPurchase: p.Price}},
	}
}

func TestMemoryPlaceDecrementsStock(t *testing.T) {
	s, _ := NewMemoryStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Cement", 10)
	user := primitive.NewObjectID()

	o := order(user, p, 4)
	require.NoError(t, s.Orders.Place(ctx, o))
	assert.Equal(t, "ORD-000001", o.OrderNumber)

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)

	err = s.Orders.Place(ctx, order(user, p, 7))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	got, _ = s.Products.FindByID(ctx, p.ID)
	assert.Equal(t, 6, got.Stock)
}

func TestMemoryPlaceChecksCumulativeDemand(t *testing.T) {
	s, _ := NewMemoryStore()
	p := seedProduct(t, s, "Cement", 5)
	o := order(primitive.NewObjectID(), p, 3)
	o.Items = append(o.Items, o.Items[0])

	var stockErr *StockError
	require.True(t, errors.As(s.Orders.Place(context.Background(), o), &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)
}

func TestMemoryPlaceIdempotencyKey(t *testing.T) {
	s, _ := NewMemoryStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Cement", 10)
	user := primitive.NewObjectID()

	first := order(user, p, 1)
	first.IdempotencyKey = "k1"
	require.NoError(t, s.Orders.Place(ctx, first))

	again := order(user, p, 1)
	again.IdempotencyKey = "k1"
	var dup *DuplicateKeyError
	require.True(t, errors.As(s.Orders.Place(ctx, again), &dup))

	found, err := s.Orders.FindByIdempotencyKey(ctx, user, "k1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	other := order(primitive.NewObjectID(), p, 1)
	other.IdempotencyKey = "k1"
	assert.NoError(t, s.Orders.Place(ctx, other))
}

func TestMemoryPlaceConcurrentNeverOversells(t *testing.T) {
	s, _ := NewMemoryStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Cement", 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Orders.Place(ctx, order(primitive.NewObjectID(), p, 1)) == nil {
				mu.Lock()
				placed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, placed)
	got, _ := s.Products.FindByID(ctx, p.ID)
	assert.Zero(t, got.Stock)
}

func TestMemoryTransitionIsConditional(t *testing.T) {
	s, _ := NewMemoryStore()
	ctx := context.Background()
	p := seedProduct(t, s, "Cement", 10)
	o := order(primitive.NewObjectID(), p, 4)
	require.NoError(t, s.Orders.Place(ctx, o))

	_, err := s.Orders.Transition(ctx, Transition{OrderID: o.ID, From: models.StatusConfirmed, To: models.StatusOutForDelivery})
	assert.ErrorIs(t, err, ErrStaleStatus)

	updated, err := s.Orders.Transition(ctx, Transition{
		OrderID: o.ID, From: models.StatusProcessing, To: models.StatusCancelled, RestoreStock: true,
		Event: models.TrackingEvent{Status: models.StatusCancelled},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Len(t, updated.TrackingHistory, 1)

	got, _ := s.Products.FindByID(ctx, p.ID)
	assert.Equal(t, 10, got.Stock)
}

func TestMemoryZonesRejectDuplicateArea(t *testing.T) {
	s, _ := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Zones.Create(ctx, &models.DeliveryZone{Pincode: "560001", Area: "MG Road", IsActive: true}))

	var dup *DuplicateKeyError
	err := s.Zones.Create(ctx, &models.DeliveryZone{Pincode: "560001", Area: "mg road", IsActive: true})
	assert.True(t, errors.As(err, &dup))
	assert.NoError(t, s.Zones.Create(ctx, &models.DeliveryZone{Pincode: "560001", Area: "Shivajinagar"}))

	active, err := s.Zones.List(ctx, "560001", true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestMemoryUnavailableProducts(t *testing.T) {
	s, mem := NewMemoryStore()
	mem.SetUnavailable(true)
	assert.ErrorIs(t, s.Products.Ping(context.Background()), ErrUnavailable)
	_, _, err := s.Products.List(context.Background(), ProductFilter{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
