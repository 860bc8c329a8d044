package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role drives both price tier and route authorization.
type Role string

const (
	RoleRegistered Role = "registered"
	RolePrimary    Role = "primary"
	RoleSecondary  Role = "secondary"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRegistered, RolePrimary, RoleSecondary, RoleAdmin:
		return true
	}
	return false
}

// Address represents a user's address for delivery
type Address struct {
	Label     string `bson:"label,omitempty" json:"label,omitempty"`
	Street    string `bson:"street" json:"street" validate:"required"`
	Area      string `bson:"area" json:"area" validate:"required"`
	City      string `bson:"city" json:"city" validate:"required"`
	State     string `bson:"state" json:"state" validate:"required"`
	Pincode   string `bson:"pincode" json:"pincode" validate:"required,numeric,len=6"`
	IsDefault bool   `bson:"is_default" json:"is_default"`
}

// BusinessInfo is optional metadata for contractors and dealers.
type BusinessInfo struct {
	CompanyName  string `bson:"company_name,omitempty" json:"company_name,omitempty"`
	GSTNumber    string `bson:"gst_number,omitempty" json:"gst_number,omitempty"`
	BusinessType string `bson:"business_type,omitempty" json:"business_type,omitempty"`
}

// User represents a user in the system
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Addresses []Address          `bson:"addresses" json:"addresses"`
	Business  *BusinessInfo      `bson:"business,omitempty" json:"business,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
