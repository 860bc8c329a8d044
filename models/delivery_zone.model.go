package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryZone defines whether delivery is offered to a (pincode, area)
// pair and at what flat charge. The pair is unique.
type DeliveryZone struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Pincode        string             `bson:"pincode" json:"pincode" validate:"required,numeric,len=6"`
	Area           string             `bson:"area" json:"area" validate:"required"`
	City           string             `bson:"city" json:"city" validate:"required"`
	State          string             `bson:"state" json:"state" validate:"required"`
	DeliveryCharge float64            `bson:"delivery_charge" json:"delivery_charge" validate:"gte=0"`
	EstimatedDays  int                `bson:"estimated_days" json:"estimated_days" validate:"gte=0,lte=60"`
	IsActive       bool               `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
