package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-buildmart/models"
)

func tiered() *models.Product {
	return &models.Product{
		Name:   "Cement",
		Price:  400,
		Prices: map[string]float64{"standard": 350, "primary": 320, "secondary": 330},
	}
}

func TestResolvePriceByRole(t *testing.T) {
	p := tiered()
	cases := map[models.Role]float64{
		models.RoleRegistered: 350,
		models.RolePrimary:    320,
		models.RoleSecondary:  330,
		models.RoleAdmin:      350,
		models.Role("nobody"): 350,
	}
	for role, want := range cases {
		got := ResolvePrice(p, role)
		assert.Equal(t, want, ToFloat(got), "role %s", role)
	}
}

func TestResolvePriceFallsBackToStandardThenFlat(t *testing.T) {
	p := &models.Product{Price: 99.5, Prices: map[string]float64{"standard": 120}}
	assert.Equal(t, 120.0, ToFloat(ResolvePrice(p, models.RolePrimary)))

	p.Prices = nil
	assert.Equal(t, 99.5, ToFloat(ResolvePrice(p, models.RolePrimary)))

	p.Price = 0
	assert.True(t, ResolvePrice(p, models.RolePrimary).IsZero())
	assert.True(t, ResolvePrice(nil, models.RolePrimary).IsZero())
}

func TestResolvePriceSkipsUnusableTierValues(t *testing.T) {
	p := &models.Product{
		Price:  50,
		Prices: map[string]float64{"primary": 0, "secondary": -10, "standard": math.NaN()},
	}
	assert.Equal(t, 50.0, ToFloat(ResolvePrice(p, models.RolePrimary)))
	assert.Equal(t, 50.0, ToFloat(ResolvePrice(p, models.RoleSecondary)))

	p.Prices["standard"] = math.Inf(1)
	assert.Equal(t, 50.0, ToFloat(ResolvePrice(p, models.RoleRegistered)))
}

func TestResolvePriceAfterLegacyTierMigration(t *testing.T) {
	p := &models.Product{Prices: map[string]float64{"registered": 275, "primary": 260}}
	p.NormalizeTiers()
	assert.Equal(t, 275.0, ToFloat(ResolvePrice(p, models.RoleRegistered)))
	assert.Equal(t, 260.0, ToFloat(ResolvePrice(p, models.RolePrimary)))
	_, legacy := p.Prices["registered"]
	assert.False(t, legacy)
}

func TestResolvedPriceIsAlwaysADefinedPrice(t *testing.T) {
	p := tiered()
	allowed := map[float64]bool{400: true}
	for _, v := range p.Prices {
		allowed[v] = true
	}
	for _, role := range []models.Role{models.RoleRegistered, models.RolePrimary, models.RoleSecondary, models.RoleAdmin} {
		got := ToFloat(ResolvePrice(p, role))
		assert.True(t, allowed[got], "role %s resolved to %v", role, got)
	}
}
