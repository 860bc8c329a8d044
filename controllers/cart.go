package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"go-buildmart/middleware"
	"go-buildmart/repository"
	"go-buildmart/services"
	"go-buildmart/storefront"
	"go-buildmart/utils"
)

// GuestHeader identifies an anonymous shopper's cart.
const GuestHeader = "X-Guest-ID"

// CartController handles cart-related requests. Signed-in users get their
// own bucket; guests are keyed by the X-Guest-ID header, which is issued on
// first use.
type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

func (cc *CartController) bucket(w http.ResponseWriter, r *http.Request) string {
	if user, ok := middleware.CurrentUser(r); ok {
		return storefront.BucketKey(user.ID.Hex())
	}
	guest := r.Header.Get(GuestHeader)
	if _, err := uuid.Parse(guest); err != nil {
		guest = uuid.NewString()
	}
	w.Header().Set(GuestHeader, guest)
	return services.GuestKey(guest)
}

// GetCart retrieves the caller's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	key := cc.bucket(w, r)
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.Get(ctx, key)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, cart)
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=10000"`
}

// AddToCart adds a product to the cart, merging with an existing line.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	productID, err := repository.ParseID(req.ProductID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	key := cc.bucket(w, r)
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.Add(ctx, key, productID, req.Quantity, middleware.RoleOf(r))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Item added to cart", Data: cart})
}

type quantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,max=10000"`
}

// UpdateQuantity sets a line's quantity; zero removes it.
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	key := cc.bucket(w, r)
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.SetQuantity(ctx, key, mux.Vars(r)["productId"], req.Quantity)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.OK(w, cart)
}

// RemoveFromCart removes a product from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	key := cc.bucket(w, r)
	ctx, cancel := requestContext(r)
	defer cancel()

	cart, err := cc.Carts.Remove(ctx, key, mux.Vars(r)["productId"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSON(w, http.StatusOK, utils.Envelope{Success: true, Message: "Item removed from cart", Data: cart})
}

func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	key := cc.bucket(w, r)
	ctx, cancel := requestContext(r)
	defer cancel()

	if err := cc.Carts.Clear(ctx, key); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.Message(w, "Cart cleared")
}
