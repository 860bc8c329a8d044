package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-buildmart/repository"
)

func TestZoneServiceCheck(t *testing.T) {
	store, _ := repository.NewMemoryStore()
	ctx := context.Background()
	s := NewZoneService(store.Zones, nil)
	active := true
	_, err := s.Create(ctx, ZoneInput{Pincode: "560001", Area: "MG Road", City: "Bengaluru", State: "KA", DeliveryCharge: 60, EstimatedDays: 2, IsActive: &active})
	require.NoError(t, err)

	check, err := s.Check(ctx, "560001", "mg road")
	require.NoError(t, err)
	assert.True(t, check.Available)
	assert.Equal(t, 60.0, check.DeliveryCharge)

	check, err = s.Check(ctx, "110001", "")
	require.NoError(t, err)
	assert.False(t, check.Available)

	_, err = s.Check(ctx, "12ab", "")
	requireStatus(t, err, 400)

	_, err = s.Resolve(ctx, "110001", "")
	requireStatus(t, err, 400)
}

func TestZoneServiceDuplicatePincodeArea(t *testing.T) {
	store, _ := repository.NewMemoryStore()
	ctx := context.Background()
	s := NewZoneService(store.Zones, nil)
	in := ZoneInput{Pincode: "560001", Area: "MG Road", City: "Bengaluru", State: "KA"}
	z, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.True(t, z.IsActive)

	in.Area = "mg road"
	_, err = s.Create(ctx, in)
	requireStatus(t, err, 400)

	inactive := false
	in.Area = "MG Road"
	in.IsActive = &inactive
	z, err = s.Update(ctx, z.ID, in)
	require.NoError(t, err)
	assert.False(t, z.IsActive)

	_, err = s.Resolve(ctx, "560001", "MG Road")
	requireStatus(t, err, 400)
}
