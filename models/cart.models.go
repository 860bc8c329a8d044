package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart
type CartItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Unit      string  `bson:"unit,omitempty" json:"unit,omitempty"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

// Cart is one storage bucket: a signed-in user's cart or a guest cart.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Key       string             `bson:"key" json:"key"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
