package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

const (
	StatusProcessing     OrderStatus = "Processing"
	StatusConfirmed      OrderStatus = "Confirmed"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusProcessing:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusConfirmed, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an admin may move an order from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CustomerCancellable reports whether the owner may still cancel.
func (s OrderStatus) CustomerCancellable() bool {
	return s == StatusProcessing || s == StatusConfirmed
}

// OrderItem is one line of an order with the price captured at purchase.
type OrderItem struct {
	Product         primitive.ObjectID `bson:"product" json:"product"`
	Name            string             `bson:"name" json:"name"`
	Unit            string             `bson:"unit" json:"unit"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	PriceAtPurchase float64            `bson:"price_at_purchase" json:"price_at_purchase"`
	LineTotal       float64            `bson:"line_total" json:"line_total"`
}

// ShippingAddress is the delivery destination of an order.
type ShippingAddress struct {
	Name    string `bson:"name" json:"name" validate:"required"`
	Phone   string `bson:"phone" json:"phone" validate:"required,min=10,max=15"`
	Street  string `bson:"street" json:"street" validate:"required"`
	Area    string `bson:"area" json:"area" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
	State   string `bson:"state" json:"state" validate:"required"`
	Pincode string `bson:"pincode" json:"pincode" validate:"required,numeric,len=6"`
}

// TrackingEvent is an entry of the append-only status log.
type TrackingEvent struct {
	Status    OrderStatus         `bson:"status" json:"status"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
}

// Order represents a user's order
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber       string             `bson:"order_number" json:"order_number"`
	User              primitive.ObjectID `bson:"user" json:"user"`
	Items             []OrderItem        `bson:"items" json:"items"`
	ShippingAddress   ShippingAddress    `bson:"shipping_address" json:"shipping_address"`
	DeliveryZone      primitive.ObjectID `bson:"delivery_zone" json:"delivery_zone"`
	Subtotal          float64            `bson:"subtotal" json:"subtotal"`
	DeliveryCharge    float64            `bson:"delivery_charge" json:"delivery_charge"`
	TotalAmount       float64            `bson:"total_amount" json:"total_amount"`
	Status            OrderStatus        `bson:"status" json:"status"`
	PaymentMethod     PaymentMethod      `bson:"payment_method" json:"payment_method"`
	PaymentStatus     PaymentStatus      `bson:"payment_status" json:"payment_status"`
	TrackingHistory   []TrackingEvent    `bson:"tracking_history" json:"tracking_history"`
	EstimatedDelivery time.Time          `bson:"estimated_delivery" json:"estimated_delivery"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IdempotencyKey    string             `bson:"idempotency_key,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
