package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

// Memory keeps every collection in process. A single lock guards all maps so
// that order placement and stock changes are atomic, the way a transaction
// is in the Mongo implementation.
type Memory struct {
	mu            sync.RWMutex
	users         map[primitive.ObjectID]models.User
	products      map[primitive.ObjectID]models.Product
	orders        map[primitive.ObjectID]models.Order
	zones         map[primitive.ObjectID]models.DeliveryZone
	notifications map[primitive.ObjectID]models.Notification
	contacts      map[primitive.ObjectID]models.Contact
	carts         map[string]models.Cart
	orderSeq      int64
	unavailable   bool
}

// NewMemoryStore returns a Store backed by a fresh Memory.
func NewMemoryStore() (*Store, *Memory) {
	m := &Memory{
		users:         map[primitive.ObjectID]models.User{},
		products:      map[primitive.ObjectID]models.Product{},
		orders:        map[primitive.ObjectID]models.Order{},
		zones:         map[primitive.ObjectID]models.DeliveryZone{},
		notifications: map[primitive.ObjectID]models.Notification{},
		contacts:      map[primitive.ObjectID]models.Contact{},
		carts:         map[string]models.Cart{},
	}
	return &Store{
		Users:         memUsers{m},
		Products:      memProducts{m},
		Orders:        memOrders{m},
		Zones:         memZones{m},
		Notifications: memNotifications{m},
		Contacts:      memContacts{m},
		Carts:         memCarts{m},
	}, m
}

// SetUnavailable makes product reads fail as if the database were down.
func (m *Memory) SetUnavailable(down bool) {
	m.mu.Lock()
	m.unavailable = down
	m.mu.Unlock()
}

func paginate[T any](list []T, page Page) []T {
	page = page.Normalize()
	start := int(page.Skip())
	if start >= len(list) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

type memUsers struct{ m *Memory }

func cloneUser(u models.User) models.User {
	u.Addresses = append([]models.Address(nil), u.Addresses...)
	return u
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return &DuplicateKeyError{Field: "email"}
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.m.users[u.ID] = cloneUser(*u)
	return nil
}

func (r memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.m.users {
		if u.Email == email {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range r.m.users {
		if id != u.ID && existing.Email == u.Email {
			return &DuplicateKeyError{Field: "email"}
		}
	}
	r.m.users[u.ID] = cloneUser(*u)
	return nil
}

func (r memUsers) TouchLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	r.m.users[id] = u
	return nil
}

func (r memUsers) List(_ context.Context, role models.Role, page Page) ([]models.User, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]models.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		if role == "" || u.Role == role {
			u = cloneUser(u)
			u.Password = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

func (r memUsers) FindAdmins(_ context.Context) ([]models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []models.User
	for _, u := range r.m.users {
		if u.Role == models.RoleAdmin && u.IsActive {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

type memProducts struct{ m *Memory }

func cloneProduct(p models.Product) models.Product {
	prices := make(map[string]float64, len(p.Prices))
	for k, v := range p.Prices {
		prices[k] = v
	}
	p.Prices = prices
	p.Images = append([]string(nil), p.Images...)
	return p
}

func (r memProducts) Ping(context.Context) error {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if r.m.unavailable {
		return ErrUnavailable
	}
	return nil
}

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.products {
		if existing.Name == p.Name {
			return &DuplicateKeyError{Field: "name"}
		}
	}
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.NormalizeTiers()
	r.m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if r.m.unavailable {
		return nil, ErrUnavailable
	}
	p, ok := r.m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.m.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r memProducts) Update(_ context.Context, p *models.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[p.ID]; !ok {
		return ErrNotFound
	}
	p.NormalizeTiers()
	r.m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

// MatchProduct applies f's category, search, price and stock criteria.
func MatchProduct(p models.Product, f ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.InStockOnly && (p.Stock <= 0 || !p.IsAvailable) {
		return false
	}
	return true
}

// SortProducts orders list in place using the same keys as the Mongo query.
func SortProducts(list []models.Product, key string) {
	sort.SliceStable(list, func(i, j int) bool {
		switch key {
		case "name":
			return list[i].Name < list[j].Name
		case "price":
			return list[i].Price < list[j].Price
		case "-price":
			return list[i].Price > list[j].Price
		default:
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
	})
}

func (r memProducts) List(_ context.Context, f ProductFilter) ([]models.Product, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if r.m.unavailable {
		return nil, 0, ErrUnavailable
	}
	var out []models.Product
	for _, p := range r.m.products {
		if MatchProduct(p, f) {
			out = append(out, cloneProduct(p))
		}
	}
	SortProducts(out, f.Sort)
	return paginate(out, f.Page), int64(len(out)), nil
}

func (r memProducts) All(_ context.Context) ([]models.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]models.Product, 0, len(r.m.products))
	for _, p := range r.m.products {
		out = append(out, cloneProduct(p))
	}
	SortProducts(out, "name")
	return out, nil
}

func (r memProducts) Categories(_ context.Context) ([]string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range r.m.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memOrders struct{ m *Memory }

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	o.TrackingHistory = append([]models.TrackingEvent(nil), o.TrackingHistory...)
	return o
}

func (r memOrders) Place(_ context.Context, o *models.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if o.IdempotencyKey != "" {
		for _, existing := range r.m.orders {
			if existing.User == o.User && existing.IdempotencyKey == o.IdempotencyKey {
				return &DuplicateKeyError{Field: "idempotency_key"}
			}
		}
	}
	for _, it := range o.Items {
		p, ok := r.m.products[it.Product]
		if !ok || !p.InStock(it.Quantity) {
			return &StockError{ProductID: it.Product, Name: it.Name}
		}
	}
	// the same product may appear once per line; validate cumulative demand
	demand := map[primitive.ObjectID]int{}
	for _, it := range o.Items {
		demand[it.Product] += it.Quantity
		if p := r.m.products[it.Product]; p.Stock < demand[it.Product] {
			return &StockError{ProductID: it.Product, Name: it.Name}
		}
	}
	for _, it := range o.Items {
		p := r.m.products[it.Product]
		p.Stock -= it.Quantity
		r.m.products[it.Product] = p
	}

	r.m.orderSeq++
	o.OrderNumber = OrderNumber(r.m.orderSeq)
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	r.m.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (r memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r memOrders) FindByIdempotencyKey(_ context.Context, user primitive.ObjectID, key string) (*models.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, o := range r.m.orders {
		if o.User == user && o.IdempotencyKey == key {
			o = cloneOrder(o)
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r memOrders) filter(keep func(models.Order) bool, page Page) ([]models.Order, int64) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []models.Order
	for _, o := range r.m.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out))
}

func (r memOrders) ListByUser(_ context.Context, user primitive.ObjectID, page Page) ([]models.Order, int64, error) {
	list, total := r.filter(func(o models.Order) bool { return o.User == user }, page)
	return list, total, nil
}

func (r memOrders) List(_ context.Context, f OrderFilter) ([]models.Order, int64, error) {
	list, total := r.filter(func(o models.Order) bool {
		if f.Status != "" && o.Status != f.Status {
			return false
		}
		return f.User == nil || o.User == *f.User
	}, f.Page)
	return list, total, nil
}

func (r memOrders) Transition(_ context.Context, t Transition) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[t.OrderID]
	if !ok {
		return nil, ErrNotFound
	}
	if o.Status != t.From {
		return nil, ErrStaleStatus
	}
	o = cloneOrder(o)
	o.Status = t.To
	o.UpdatedAt = t.Event.Timestamp
	o.TrackingHistory = append(o.TrackingHistory, t.Event)
	if t.PaymentStatus != nil {
		o.PaymentStatus = *t.PaymentStatus
	}
	if t.RestoreStock {
		for _, it := range o.Items {
			if p, ok := r.m.products[it.Product]; ok {
				p.Stock += it.Quantity
				r.m.products[it.Product] = p
			}
		}
	}
	r.m.orders[o.ID] = o
	o = cloneOrder(o)
	return &o, nil
}

func (r memOrders) UpdatePayment(_ context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now().UTC()
	r.m.orders[id] = o
	o = cloneOrder(o)
	return &o, nil
}

func (r memOrders) Count(context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.orders)), nil
}

type memZones struct{ m *Memory }

func (r memZones) conflict(z *models.DeliveryZone) bool {
	for id, existing := range r.m.zones {
		if id != z.ID && existing.Pincode == z.Pincode && strings.EqualFold(existing.Area, z.Area) {
			return true
		}
	}
	return false
}

func (r memZones) Create(_ context.Context, z *models.DeliveryZone) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.conflict(z) {
		return &DuplicateKeyError{Field: "pincode and area"}
	}
	if z.ID.IsZero() {
		z.ID = primitive.NewObjectID()
	}
	r.m.zones[z.ID] = *z
	return nil
}

func (r memZones) FindByID(_ context.Context, id primitive.ObjectID) (*models.DeliveryZone, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	z, ok := r.m.zones[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &z, nil
}

func (r memZones) Update(_ context.Context, z *models.DeliveryZone) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.zones[z.ID]; !ok {
		return ErrNotFound
	}
	if r.conflict(z) {
		return &DuplicateKeyError{Field: "pincode and area"}
	}
	r.m.zones[z.ID] = *z
	return nil
}

func (r memZones) Delete(_ context.Context, id primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.zones[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.zones, id)
	return nil
}

func (r memZones) List(_ context.Context, pincode string, activeOnly bool) ([]models.DeliveryZone, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []models.DeliveryZone{}
	for _, z := range r.m.zones {
		if pincode != "" && z.Pincode != pincode {
			continue
		}
		if activeOnly && !z.IsActive {
			continue
		}
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pincode != out[j].Pincode {
			return out[i].Pincode < out[j].Pincode
		}
		return out[i].Area < out[j].Area
	})
	return out, nil
}

type memNotifications struct{ m *Memory }

func (r memNotifications) CreateMany(_ context.Context, ns []*models.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		r.m.notifications[n.ID] = *n
	}
	return nil
}

// live drops expired notifications, like the TTL index does.
func (r memNotifications) live(user primitive.ObjectID, now time.Time) []models.Notification {
	var out []models.Notification
	for _, n := range r.m.notifications {
		if n.Recipient != user {
			continue
		}
		if !n.ExpiresAt.IsZero() && !n.ExpiresAt.After(now) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (r memNotifications) ListForUser(_ context.Context, user primitive.ObjectID, unreadOnly bool, page Page) ([]models.Notification, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []models.Notification
	for _, n := range r.live(user, time.Now()) {
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

func (r memNotifications) CountUnread(_ context.Context, user primitive.ObjectID) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var n int64
	for _, x := range r.live(user, time.Now()) {
		if !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r memNotifications) MarkRead(_ context.Context, id, user primitive.ObjectID, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notifications[id]
	if !ok || n.Recipient != user {
		return ErrNotFound
	}
	n.IsRead = true
	n.ReadAt = &at
	r.m.notifications[id] = n
	return nil
}

func (r memNotifications) MarkAllRead(_ context.Context, user primitive.ObjectID, at time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var changed int64
	for id, n := range r.m.notifications {
		if n.Recipient == user && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			r.m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (r memNotifications) Delete(_ context.Context, id, user primitive.ObjectID) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	n, ok := r.m.notifications[id]
	if !ok || n.Recipient != user {
		return ErrNotFound
	}
	delete(r.m.notifications, id)
	return nil
}

type memContacts struct{ m *Memory }

func (r memContacts) Create(_ context.Context, c *models.Contact) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.m.contacts[c.ID] = *c
	return nil
}

func (r memContacts) List(_ context.Context, page Page) ([]models.Contact, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]models.Contact, 0, len(r.m.contacts))
	for _, c := range r.m.contacts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), int64(len(out)), nil
}

type memCarts struct{ m *Memory }

func (r memCarts) Get(_ context.Context, key string) (*models.Cart, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.carts[key]
	if !ok {
		return &models.Cart{Key: key, Items: []models.CartItem{}}, nil
	}
	c.Items = append([]models.CartItem{}, c.Items...)
	return &c, nil
}

func (r memCarts) Save(_ context.Context, c *models.Cart) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored := *c
	stored.Items = append([]models.CartItem{}, c.Items...)
	r.m.carts[c.Key] = stored
	return nil
}

func (r memCarts) Delete(_ context.Context, key string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.carts, key)
	return nil
}
