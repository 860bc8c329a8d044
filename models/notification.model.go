package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotifyOrderPlaced    NotificationType = "order_placed"
	NotifyOrderStatus    NotificationType = "order_status"
	NotifyOrderCancelled NotificationType = "order_cancelled"
	NotifyPayment        NotificationType = "payment"
	NotifyNewUser        NotificationType = "new_user"
	NotifyContact        NotificationType = "contact"
	NotifyLowStock       NotificationType = "low_stock"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Notification is addressed to one recipient. Documents expire at
// ExpiresAt through a TTL index.
type Notification struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Recipient    primitive.ObjectID  `bson:"recipient" json:"recipient"`
	Type         NotificationType    `bson:"type" json:"type"`
	Priority     Priority            `bson:"priority" json:"priority"`
	Title        string              `bson:"title" json:"title"`
	Message      string              `bson:"message" json:"message"`
	IsRead       bool                `bson:"is_read" json:"is_read"`
	RelatedOrder *primitive.ObjectID `bson:"related_order,omitempty" json:"related_order,omitempty"`
	RelatedUser  *primitive.ObjectID `bson:"related_user,omitempty" json:"related_user,omitempty"`
	RelatedItem  *primitive.ObjectID `bson:"related_product,omitempty" json:"related_product,omitempty"`
	ReadAt       *time.Time          `bson:"read_at,omitempty" json:"read_at,omitempty"`
	ExpiresAt    time.Time           `bson:"expires_at" json:"expires_at"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}
