package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name" validate:"required,max=100"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	Subject   string             `bson:"subject" json:"subject" validate:"required,max=200"`
	Message   string             `bson:"message" json:"message" validate:"required,max=2000"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
