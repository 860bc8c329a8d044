// Package repository persists the storefront's documents. Each collection has
// an interface, a MongoDB implementation and an in-memory implementation used
// by tests and the --memory server mode.
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

// Page selects a window of a result set. Number is 1-based.
type Page struct {
	Number int
	Limit  int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Normalize clamps the page into sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// Skip is the number of documents before the page.
func (p Page) Skip() int64 {
	p = p.Normalize()
	return int64((p.Number - 1) * p.Limit)
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category    string
	Search      string
	MinPrice    *float64
	MaxPrice    *float64
	InStockOnly bool
	// Sort is one of "name", "price", "-price", "newest". Empty means newest.
	Sort string
	Page Page
}

// OrderFilter narrows the admin order listing.
type OrderFilter struct {
	Status models.OrderStatus
	User   *primitive.ObjectID
	Page   Page
}

// Transition is a conditional status change. The update applies only while
// the order is still in From.
type Transition struct {
	OrderID       primitive.ObjectID
	From          models.OrderStatus
	To            models.OrderStatus
	Event         models.TrackingEvent
	PaymentStatus *models.PaymentStatus
	RestoreStock  bool
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	List(ctx context.Context, role models.Role, page Page) ([]models.User, int64, error)
	FindAdmins(ctx context.Context) ([]models.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error)
	All(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type OrderRepository interface {
	// Place assigns the order number, decrements stock for every line and
	// inserts the order as one unit. On ErrInsufficientStock nothing is
	// written.
	Place(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, user primitive.ObjectID, key string) (*models.Order, error)
	ListByUser(ctx context.Context, user primitive.ObjectID, page Page) ([]models.Order, int64, error)
	List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error)
	Transition(ctx context.Context, t Transition) (*models.Order, error)
	UpdatePayment(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error)
	Count(ctx context.Context) (int64, error)
}

type ZoneRepository interface {
	Create(ctx context.Context, z *models.DeliveryZone) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.DeliveryZone, error)
	Update(ctx context.Context, z *models.DeliveryZone) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, pincode string, activeOnly bool) ([]models.DeliveryZone, error)
}

type NotificationRepository interface {
	CreateMany(ctx context.Context, ns []*models.Notification) error
	ListForUser(ctx context.Context, user primitive.ObjectID, unreadOnly bool, page Page) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id, user primitive.ObjectID, at time.Time) error
	MarkAllRead(ctx context.Context, user primitive.ObjectID, at time.Time) (int64, error)
	Delete(ctx context.Context, id, user primitive.ObjectID) error
}

type ContactRepository interface {
	Create(ctx context.Context, c *models.Contact) error
	List(ctx context.Context, page Page) ([]models.Contact, int64, error)
}

type CartRepository interface {
	// Get returns the bucket stored under key, or an empty cart.
	Get(ctx context.Context, key string) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
	Delete(ctx context.Context, key string) error
}

// Store bundles every repository.
type Store struct {
	Users         UserRepository
	Products      ProductRepository
	Orders        OrderRepository
	Zones         ZoneRepository
	Notifications NotificationRepository
	Contacts      ContactRepository
	Carts         CartRepository
}
