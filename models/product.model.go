package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier is a key of Product.Prices.
type Tier string

const (
	TierStandard  Tier = "standard"
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"

	// legacyTierRegistered is the older spelling of TierStandard found in
	// imported catalog data.
	legacyTierRegistered = "registered"
)

// Categories accepted for products.
var Categories = []string{
	"cement",
	"steel",
	"bricks",
	"sand",
	"aggregates",
	"tiles",
	"paint",
	"plumbing",
	"electrical",
	"hardware",
	"tools",
	"other",
}

// Product is a catalog entry. Prices holds per-tier prices; Price is the
// flat base price used when no tier applies.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name" validate:"required,max=200"`
	Description    string             `bson:"description" json:"description"`
	Category       string             `bson:"category" json:"category" validate:"required,category"`
	Unit           string             `bson:"unit" json:"unit" validate:"required"`
	Price          float64            `bson:"price" json:"price" validate:"gte=0"`
	Prices         map[string]float64 `bson:"prices" json:"prices"`
	Stock          int                `bson:"stock" json:"stock" validate:"gte=0"`
	IsAvailable    bool               `bson:"is_available" json:"is_available"`
	Specifications map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Images         []string           `bson:"images,omitempty" json:"images,omitempty" validate:"dive,url"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// NormalizeTiers rewrites the legacy "registered" key to "standard" and
// drops keys that are not a known tier. An existing "standard" entry wins.
func (p *Product) NormalizeTiers() {
	if len(p.Prices) == 0 {
		return
	}
	out := make(map[string]float64, len(p.Prices))
	for k, v := range p.Prices {
		switch Tier(k) {
		case TierStandard, TierPrimary, TierSecondary:
			out[k] = v
		}
	}
	if v, ok := p.Prices[legacyTierRegistered]; ok {
		if _, has := out[string(TierStandard)]; !has {
			out[string(TierStandard)] = v
		}
	}
	p.Prices = out
}

// InStock reports whether qty units can be sold right now.
func (p *Product) InStock(qty int) bool {
	return p.IsAvailable && p.Stock >= qty
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}
