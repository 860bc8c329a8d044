package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/storefront"
	"go-buildmart/utils"
)

// CartView is a stored cart with its derived totals.
type CartView struct {
	Key       string            `json:"key"`
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     float64           `json:"total"`
}

// CartService keeps server-side cart buckets, applying the same reducer as
// the client session.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// GuestKey is the bucket of an anonymous shopper identified by guestID.
func GuestKey(guestID string) string {
	return storefront.BucketKey("") + "_" + guestID
}

func view(c *models.Cart) *CartView {
	items := c.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{Key: c.Key, Items: items, ItemCount: storefront.ItemCount(items), Total: storefront.Total(items)}
}

func (s *CartService) Get(ctx context.Context, key string) (*CartView, error) {
	c, err := s.carts.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

func (s *CartService) apply(ctx context.Context, key string, a storefront.Action) (*CartView, error) {
	c, err := s.carts.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.Key = key
	c.Items = storefront.Reduce(c.Items, a)
	c.UpdatedAt = time.Now().UTC()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return view(c), nil
}

// Add puts qty units of productID in the bucket at the price role pays now.
func (s *CartService) Add(ctx context.Context, key string, productID primitive.ObjectID, qty int, role models.Role) (*CartView, error) {
	if qty < 1 {
		return nil, utils.BadRequest("Quantity must be at least 1")
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsAvailable {
		return nil, utils.BadRequest("%s is not available", p.Name)
	}
	item := models.CartItem{
		ProductID: p.ID.Hex(),
		Name:      p.Name,
		Unit:      p.Unit,
		Price:     ToFloat(ResolvePrice(p, role)),
		Quantity:  qty,
	}
	if len(p.Images) > 0 {
		item.Image = p.Images[0]
	}
	return s.apply(ctx, key, storefront.Action{Type: storefront.AddItem, Item: item})
}

// SetQuantity changes a line; zero or less removes it.
func (s *CartService) SetQuantity(ctx context.Context, key, productID string, qty int) (*CartView, error) {
	return s.apply(ctx, key, storefront.Action{Type: storefront.UpdateQuantity, ProductID: productID, Quantity: qty})
}

func (s *CartService) Remove(ctx context.Context, key, productID string) (*CartView, error) {
	return s.apply(ctx, key, storefront.Action{Type: storefront.RemoveItem, ProductID: productID})
}

func (s *CartService) Clear(ctx context.Context, key string) error {
	return s.carts.Delete(ctx, key)
}
