package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/events"
	"go-buildmart/logger"
	"go-buildmart/metrics"
	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/storefront"
	"go-buildmart/utils"
)

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Items           []CartLine             `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method" validate:"required"`
	Notes           string                 `json:"notes" validate:"max=500"`
	IdempotencyKey  string                 `json:"-"`
}

// OrderService runs the order lifecycle. Side effects after the order is
// stored (notifications, events, email, cart cleanup) are best effort.
type OrderService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	zones    *ZoneService
	notifier *Notifier
	events   events.Publisher
	mail     *utils.EmailService

	// Background runs fire-and-forget work such as email.
	Background   func(func())
	// StockChanged runs after an order moves product stock.
	StockChanged func(context.Context)
	now          func() time.Time
}

func NewOrderService(store *repository.Store, zones *ZoneService, notifier *Notifier, pub events.Publisher, mail *utils.EmailService) *OrderService {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &OrderService{
		users:        store.Users,
		products:     store.Products,
		orders:       store.Orders,
		carts:        store.Carts,
		zones:        zones,
		notifier:     notifier,
		events:       pub,
		mail:         mail,
		Background:   func(f func()) { go f() },
		StockChanged: func(context.Context) {},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Place creates an order for user. The boolean is false when an order with
// the same idempotency key already existed and was returned instead.
func (s *OrderService) Place(ctx context.Context, user *models.User, in PlaceOrderInput) (*models.Order, bool, error) {
	if in.IdempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, user.ID, in.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
	}

	zone, err := s.zones.Resolve(ctx, in.ShippingAddress.Pincode, in.ShippingAddress.Area)
	if err != nil {
		return nil, false, err
	}
	ids, _, err := MergeLines(in.Items)
	if err != nil {
		return nil, false, err
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	order, err := BuildOrder(OrderDraft{
		User:     user,
		Lines:    in.Items,
		Products: products,
		Zone:     zone,
		Shipping: in.ShippingAddress,
		Payment:  in.PaymentMethod,
		Notes:    in.Notes,
		Now:      s.now(),
	})
	if err != nil {
		return nil, false, err
	}
	order.IdempotencyKey = in.IdempotencyKey

	if err := s.orders.Place(ctx, order); err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) && in.IdempotencyKey != "" {
			existing, ferr := s.orders.FindByIdempotencyKey(ctx, user.ID, in.IdempotencyKey)
			if ferr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.StockChanged(ctx)
	metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	metrics.OrderValue.Observe(order.TotalAmount)
	log := logger.FromContext(ctx).With("order_number", order.OrderNumber)
	log.Info("order placed", "total", order.TotalAmount, "items", len(order.Items))

	s.notifier.NotifyAdmins(ctx, Notice{
		Type:         models.NotifyOrderPlaced,
		Priority:     models.PriorityHigh,
		Title:        "New order " + order.OrderNumber,
		Message:      fmt.Sprintf("%s placed an order of ₹%.2f for %s, %s", user.Name, order.TotalAmount, order.ShippingAddress.Area, order.ShippingAddress.Pincode),
		RelatedOrder: &order.ID,
		RelatedUser:  &user.ID,
	})
	s.publish(ctx, events.OrderPlaced, order)

	if err := s.carts.Delete(ctx, storefront.BucketKey(user.ID.Hex())); err != nil {
		log.Warn("clear cart after order", "error", err)
	}
	s.sendMail(ctx, user.Email, order, true)
	return order, true, nil
}

// Get returns the order if user owns it or is an admin.
func (s *OrderService) Get(ctx context.Context, user *models.User, id primitive.ObjectID) (*models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && o.User != user.ID {
		return nil, utils.Forbidden("Not authorized to view this order")
	}
	return o, nil
}

func (s *OrderService) ListMine(ctx context.Context, user *models.User, page repository.Page) ([]models.Order, int64, error) {
	return s.orders.ListByUser(ctx, user.ID, page)
}

func (s *OrderService) ListAll(ctx context.Context, f repository.OrderFilter) ([]models.Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, utils.BadRequest("Unknown status %q", f.Status)
	}
	return s.orders.List(ctx, f)
}

// Cancel lets the owner cancel while the order is Processing or Confirmed.
// Admins may cancel any order that is not yet terminal. Stock is restored
// and a paid order is marked refunded.
func (s *OrderService) Cancel(ctx context.Context, user *models.User, id primitive.ObjectID, reason string) (*models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && o.User != user.ID {
		return nil, utils.Forbidden("Not authorized to cancel this order")
	}
	if user.IsAdmin() {
		if o.Status.Terminal() {
			return nil, utils.BadRequest("Order cannot be cancelled once it is %s", o.Status)
		}
	} else if !o.Status.CustomerCancellable() {
		return nil, utils.BadRequest("Order cannot be cancelled once it is %s", o.Status)
	}
	if reason == "" {
		reason = "Cancelled by customer"
		if user.IsAdmin() {
			reason = "Cancelled by admin"
		}
	}
	updated, err := s.transition(ctx, user, o, models.StatusCancelled, reason)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		s.notifier.NotifyAdmins(ctx, Notice{
			Type:         models.NotifyOrderCancelled,
			Priority:     models.PriorityMedium,
			Title:        "Order " + updated.OrderNumber + " cancelled",
			Message:      fmt.Sprintf("%s cancelled order %s: %s", user.Name, updated.OrderNumber, reason),
			RelatedOrder: &updated.ID,
			RelatedUser:  &user.ID,
		})
	}
	return updated, nil
}

// UpdateStatus is the admin transition along the lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, admin *models.User, id primitive.ObjectID, to models.OrderStatus, note string) (*models.Order, error) {
	if !to.Valid() {
		return nil, utils.BadRequest("Unknown status %q", to)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(to) {
		return nil, utils.BadRequest("Cannot change status from %s to %s", o.Status, to)
	}
	if note == "" {
		note = "Status updated to " + string(to)
	}
	return s.transition(ctx, admin, o, to, note)
}

func (s *OrderService) transition(ctx context.Context, by *models.User, o *models.Order, to models.OrderStatus, note string) (*models.Order, error) {
	t := repository.Transition{
		OrderID: o.ID,
		From:    o.Status,
		To:      to,
		Event: models.TrackingEvent{
			Status:    to,
			Note:      note,
			UpdatedBy: &by.ID,
			Timestamp: s.now(),
		},
	}
	switch {
	case to == models.StatusCancelled:
		t.RestoreStock = true
		if o.PaymentStatus == models.PaymentPaid {
			refunded := models.PaymentRefunded
			t.PaymentStatus = &refunded
		}
	case to == models.StatusDelivered && o.PaymentMethod == models.PaymentCOD && o.PaymentStatus == models.PaymentPending:
		paid := models.PaymentPaid
		t.PaymentStatus = &paid
	}

	updated, err := s.orders.Transition(ctx, t)
	if err != nil {
		return nil, err
	}
	if t.RestoreStock {
		s.StockChanged(ctx)
	}
	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	logger.FromContext(ctx).Info("order status changed",
		"order_number", updated.OrderNumber, "from", o.Status, "to", to, "by", by.ID.Hex())

	kind := models.NotifyOrderStatus
	key := events.OrderStatusChanged
	if to == models.StatusCancelled {
		kind = models.NotifyOrderCancelled
		key = events.OrderCancelled
	}
	if updated.User != by.ID {
		msg := note
		if msg == "" {
			msg = fmt.Sprintf("Your order %s is now %s.", updated.OrderNumber, to)
		}
		s.notifier.NotifyUser(ctx, updated.User, Notice{
			Type:         kind,
			Priority:     models.PriorityMedium,
			Title:        fmt.Sprintf("Order %s is %s", updated.OrderNumber, to),
			Message:      msg,
			RelatedOrder: &updated.ID,
		})
	}
	s.publish(ctx, key, updated)

	if owner, err := s.users.FindByID(ctx, updated.User); err == nil {
		s.sendMail(ctx, owner.Email, updated, false)
	}
	return updated, nil
}

// UpdatePayment records a payment status set by an admin.
func (s *OrderService) UpdatePayment(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, utils.BadRequest("Unknown payment status %q", status)
	}
	o, err := s.orders.UpdatePayment(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyUser(ctx, o.User, Notice{
		Type:         models.NotifyPayment,
		Priority:     models.PriorityLow,
		Title:        fmt.Sprintf("Payment %s for %s", status, o.OrderNumber),
		Message:      fmt.Sprintf("Payment for order %s is now %s.", o.OrderNumber, status),
		RelatedOrder: &o.ID,
	})
	return o, nil
}

func (s *OrderService) publish(ctx context.Context, key string, o *models.Order) {
	ev := events.OrderEvent{
		OrderID:     o.ID.Hex(),
		OrderNumber: o.OrderNumber,
		UserID:      o.User.Hex(),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		At:          s.now(),
	}
	if err := s.events.Publish(ctx, key, ev); err != nil {
		logger.FromContext(ctx).Warn("publish order event", "key", key, "error", err)
	}
}

func (s *OrderService) sendMail(ctx context.Context, to string, o *models.Order, confirmation bool) {
	if s.mail == nil || to == "" {
		return
	}
	log := logger.FromContext(ctx)
	snapshot := *o
	s.Background(func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		var err error
		if confirmation {
			err = s.mail.SendOrderConfirmationEmail(mctx, to, &snapshot)
		} else {
			err = s.mail.SendOrderStatusEmail(mctx, to, &snapshot)
		}
		if err != nil {
			log.Warn("send order email", "order_number", snapshot.OrderNumber, "error", err)
		}
	})
}
