package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/storefront"
	"go-buildmart/utils"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
}

func (m *recordingMailer) Send(_ context.Context, _, subject, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

type recordingPusher struct {
	mu    sync.Mutex
	users []string
}

func (p *recordingPusher) Push(userID string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
}

type orderFixture struct {
	store    *repository.Store
	mem      *repository.Memory
	svc      *OrderService
	pub      *recordingPublisher
	mail     *recordingMailer
	pusher   *recordingPusher
	admins   []*models.User
	customer *models.User
	cement   *models.Product
	zone     *models.DeliveryZone
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	ctx := context.Background()
	store, mem := repository.NewMemoryStore()
	f := &orderFixture{store: store, mem: mem, pub: &recordingPublisher{}, mail: &recordingMailer{}, pusher: &recordingPusher{}}

	for _, email := range []string{"a1@example.com", "a2@example.com"} {
		a := &models.User{Name: "Admin", Email: email, Role: models.RoleAdmin, IsActive: true}
		require.NoError(t, store.Users.Create(ctx, a))
		f.admins = append(f.admins, a)
	}
	f.customer = &models.User{Name: "Ravi", Email: "ravi@example.com", Role: models.RolePrimary, IsActive: true}
	require.NoError(t, store.Users.Create(ctx, f.customer))

	f.cement = &models.Product{
		Name:        "OPC Cement",
		Category:    "cement",
		Unit:        "bag",
		Price:       400,
		Prices:      map[string]float64{"standard": 350, "primary": 320, "secondary": 330},
		Stock:       50,
		IsAvailable: true,
	}
	require.NoError(t, store.Products.Create(ctx, f.cement))

	f.zone = &models.DeliveryZone{Pincode: "560001", Area: "MG Road", City: "Bengaluru", State: "KA", DeliveryCharge: 60, EstimatedDays: 2, IsActive: true}
	require.NoError(t, store.Zones.Create(ctx, f.zone))

	notifier := NewNotifier(store.Users, store.Notifications, f.pusher, 0)
	f.svc = NewOrderService(store, NewZoneService(store.Zones, nil), notifier, f.pub, utils.NewEmailServiceWith(f.mail, ""))
	f.svc.Background = func(fn func()) { fn() }
	return f
}

func (f *orderFixture) input(qty int, pincode string) PlaceOrderInput {
	return PlaceOrderInput{
		Items: []CartLine{{ProductID: f.cement.ID.Hex(), Quantity: qty, Price: 1}},
		ShippingAddress: models.ShippingAddress{
			Name: "Ravi", Phone: "9876543210", Street: "1 Main", Area: "MG Road",
			City: "Bengaluru", State: "KA", Pincode: pincode,
		},
		PaymentMethod: models.PaymentCOD,
	}
}

func (f *orderFixture) stock(t *testing.T) int {
	t.Helper()
	p, err := f.store.Products.FindByID(context.Background(), f.cement.ID)
	require.NoError(t, err)
	return p.Stock
}

func (f *orderFixture) unread(t *testing.T, u *models.User) int64 {
	t.Helper()
	n, err := f.store.Notifications.CountUnread(context.Background(), u.ID)
	require.NoError(t, err)
	return n
}

func TestPlaceOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Carts.Save(ctx, &models.Cart{
		Key:   storefront.BucketKey(f.customer.ID.Hex()),
		Items: []models.CartItem{{ProductID: f.cement.ID.Hex(), Quantity: 5}},
	}))

	o, created, err := f.svc.Place(ctx, f.customer, f.input(5, "560001"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ORD-000001", o.OrderNumber)
	assert.Equal(t, 1660.0, o.TotalAmount)
	assert.Equal(t, 45, f.stock(t))

	for _, a := range f.admins {
		assert.Equal(t, int64(1), f.unread(t, a))
	}
	assert.Equal(t, int64(0), f.unread(t, f.customer))
	assert.Len(t, f.pusher.users, 2)
	assert.Equal(t, []string{"order.placed"}, f.pub.keys)
	assert.Equal(t, []string{"Order Confirmation - ORD-000001"}, f.mail.subjects)

	cart, err := f.store.Carts.Get(ctx, storefront.BucketKey(f.customer.ID.Hex()))
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestPlaceOrderWithoutZoneFails(t *testing.T) {
	f := newOrderFixture(t)
	_, _, err := f.svc.Place(context.Background(), f.customer, f.input(5, "999999"))
	requireStatus(t, err, 400)

	n, err := f.store.Orders.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 50, f.stock(t))
	assert.Equal(t, int64(0), f.unread(t, f.admins[0]))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	_, _, err := f.svc.Place(context.Background(), f.customer, f.input(51, "560001"))
	requireStatus(t, err, 400)
	assert.Equal(t, 50, f.stock(t))
}

func TestPlaceOrderIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	in := f.input(2, "560001")
	in.IdempotencyKey = "key-1"

	first, created, err := f.svc.Place(ctx, f.customer, in)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.Place(ctx, f.customer, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 48, f.stock(t))

	n, _ := f.store.Orders.Count(ctx)
	assert.Equal(t, int64(1), n)
}

func TestPlaceOrderSurvivesNotificationFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.svc.notifier = NewNotifier(f.store.Users, failingNotifications{f.store.Notifications}, nil, 0)

	o, created, err := f.svc.Place(context.Background(), f.customer, f.input(1, "560001"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, o.OrderNumber)
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) CreateMany(context.Context, []*models.Notification) error {
	return assert.AnError
}

func TestCancelRestoresStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(5, "560001"))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.customer, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 50, f.stock(t))
	require.Len(t, cancelled.TrackingHistory, 2)
	assert.Equal(t, models.StatusCancelled, cancelled.TrackingHistory[1].Status)
	// one for the new order and one for the cancellation
	assert.Equal(t, int64(2), f.unread(t, f.admins[0]))
}

func TestCancelDeliveredOrderIsRejected(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	admin := f.admins[0]
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)

	for _, s := range []models.OrderStatus{models.StatusConfirmed, models.StatusOutForDelivery, models.StatusDelivered} {
		_, err := f.svc.UpdateStatus(ctx, admin, o.ID, s, "")
		require.NoError(t, err)
	}

	_, err = f.svc.Cancel(ctx, f.customer, o.ID, "changed my mind")
	requireStatus(t, err, 400)

	got, err := f.store.Orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, 49, f.stock(t))
}

func TestCancelOutForDeliveryOnlyByAdmin(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admins[0], o.ID, models.StatusConfirmed, "")
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admins[0], o.ID, models.StatusOutForDelivery, "")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID, "")
	requireStatus(t, err, 400)

	got, err := f.svc.Cancel(ctx, f.admins[0], o.ID, "Customer unreachable")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}

func TestCancelPaidOrderIsRefunded(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)
	_, err = f.svc.UpdatePayment(ctx, o.ID, models.PaymentPaid)
	require.NoError(t, err)

	got, err := f.svc.Cancel(ctx, f.customer, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, got.PaymentStatus)
}

func TestCancelOtherUsersOrderIsForbidden(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)

	stranger := &models.User{ID: primitive.NewObjectID(), Role: models.RoleRegistered}
	_, err = f.svc.Cancel(ctx, stranger, o.ID, "")
	requireStatus(t, err, 403)
	_, err = f.svc.Get(ctx, stranger, o.ID)
	requireStatus(t, err, 403)

	got, err := f.svc.Get(ctx, f.admins[1], o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestUpdateStatusRejectsSkippingSteps(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.admins[0], o.ID, models.StatusDelivered, "")
	requireStatus(t, err, 400)
	_, err = f.svc.UpdateStatus(ctx, f.admins[0], o.ID, "Lost", "")
	requireStatus(t, err, 400)

	got, err := f.svc.UpdateStatus(ctx, f.admins[0], o.ID, models.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, int64(1), f.unread(t, f.customer))
}

func TestUpdateStatusStaleTransition(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	o, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)

	_, err = f.store.Orders.Transition(ctx, repository.Transition{
		OrderID: o.ID,
		From:    models.StatusConfirmed,
		To:      models.StatusOutForDelivery,
		Event:   models.TrackingEvent{Status: models.StatusOutForDelivery, Timestamp: time.Now()},
	})
	assert.ErrorIs(t, err, repository.ErrStaleStatus)
}

func TestStockChangesInvalidateCatalog(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	changes := 0
	f.svc.StockChanged = func(context.Context) { changes++ }

	o, _, err := f.svc.Place(ctx, f.customer, f.input(2, "560001"))
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	_, err = f.svc.UpdateStatus(ctx, f.admins[0], o.ID, models.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, 1, changes)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, changes)

	_, _, err = f.svc.Place(ctx, f.customer, f.input(500, "560001"))
	requireStatus(t, err, 400)
	assert.Equal(t, 2, changes)
}

func TestCancelDefaultReasonNamesActor(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	mine, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)
	got, err := f.svc.Cancel(ctx, f.customer, mine.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by customer", got.TrackingHistory[len(got.TrackingHistory)-1].Note)

	theirs, _, err := f.svc.Place(ctx, f.customer, f.input(1, "560001"))
	require.NoError(t, err)
	got, err = f.svc.Cancel(ctx, f.admins[0], theirs.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by admin", got.TrackingHistory[len(got.TrackingHistory)-1].Note)
}
