package services

import (
	"math"

	"github.com/shopspring/decimal"

	"go-buildmart/models"
)

// TierForRole maps a user role onto the price tier it pays. Registered
// customers and admins pay the standard tier.
func TierForRole(role models.Role) models.Tier {
	switch role {
	case models.RolePrimary:
		return models.TierPrimary
	case models.RoleSecondary:
		return models.TierSecondary
	default:
		return models.TierStandard
	}
}

// usable reports whether a stored price can be charged. Zero, negative and
// non-finite values count as missing.
func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ResolvePrice returns the unit price role pays for p: the role's tier, else
// the standard tier, else the flat price, else zero. Tier prices are not
// checked against the standard price.
func ResolvePrice(p *models.Product, role models.Role) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	candidates := []string{string(TierForRole(role)), string(models.TierStandard)}
	for _, key := range candidates {
		if v, ok := p.Prices[key]; ok && usable(v) {
			return money(v)
		}
	}
	if usable(p.Price) {
		return money(p.Price)
	}
	return decimal.Zero
}

// money converts a stored amount to a decimal rounded to the minor unit.
func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// ToFloat converts a decimal amount back to the stored representation.
func ToFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
