package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/cache"
	"go-buildmart/logger"
	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/utils"
)

const zoneCachePrefix = "zones:"

// ZoneCheck answers "do you deliver here?".
type ZoneCheck struct {
	Available      bool                 `json:"available"`
	Pincode        string               `json:"pincode"`
	Zone           *models.DeliveryZone `json:"zone,omitempty"`
	DeliveryCharge float64              `json:"delivery_charge"`
	EstimatedDays  int                  `json:"estimated_days"`
}

// ZoneInput is the admin payload for creating or updating a zone.
type ZoneInput struct {
	Pincode        string  `json:"pincode" validate:"required,numeric,len=6"`
	Area           string  `json:"area" validate:"required,max=100"`
	City           string  `json:"city" validate:"required"`
	State          string  `json:"state" validate:"required"`
	DeliveryCharge float64 `json:"delivery_charge" validate:"gte=0"`
	EstimatedDays  int     `json:"estimated_days" validate:"gte=0,lte=60"`
	IsActive       *bool   `json:"is_active"`
}

type ZoneService struct {
	repo  repository.ZoneRepository
	cache *cache.Cache
}

func NewZoneService(repo repository.ZoneRepository, c *cache.Cache) *ZoneService {
	return &ZoneService{repo: repo, cache: c}
}

// active returns the active zones of pincode, cached per pincode.
func (s *ZoneService) active(ctx context.Context, pincode string) ([]models.DeliveryZone, error) {
	key := zoneCachePrefix + pincode
	var zones []models.DeliveryZone
	if s.cache.Get(ctx, key, &zones) {
		return zones, nil
	}
	zones, err := s.repo.List(ctx, pincode, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, zones); err != nil {
		logger.FromContext(ctx).Warn("cache zones", "error", err)
	}
	return zones, nil
}

// Resolve returns the zone serving the address, or a 400 when none does.
func (s *ZoneService) Resolve(ctx context.Context, pincode, area string) (*models.DeliveryZone, error) {
	zones, err := s.active(ctx, pincode)
	if err != nil {
		return nil, err
	}
	z := MatchZone(zones, pincode, area)
	if z == nil {
		return nil, utils.BadRequest("Delivery not available for pincode %s", pincode)
	}
	return z, nil
}

// Check reports availability without failing on unserved pincodes.
func (s *ZoneService) Check(ctx context.Context, pincode, area string) (*ZoneCheck, error) {
	if len(pincode) != 6 || !digits(pincode) {
		return nil, utils.BadRequest("Pincode must be 6 digits")
	}
	zones, err := s.active(ctx, pincode)
	if err != nil {
		return nil, err
	}
	out := &ZoneCheck{Pincode: pincode}
	if z := MatchZone(zones, pincode, area); z != nil {
		out.Available = true
		out.Zone = z
		out.DeliveryCharge = z.DeliveryCharge
		out.EstimatedDays = z.EstimatedDays
	}
	return out, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *ZoneService) List(ctx context.Context, pincode string) ([]models.DeliveryZone, error) {
	return s.repo.List(ctx, pincode, false)
}

func (s *ZoneService) Get(ctx context.Context, id primitive.ObjectID) (*models.DeliveryZone, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ZoneService) Create(ctx context.Context, in ZoneInput) (*models.DeliveryZone, error) {
	now := time.Now().UTC()
	z := &models.DeliveryZone{CreatedAt: now}
	in.apply(z, now)
	if err := s.repo.Create(ctx, z); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return z, nil
}

func (s *ZoneService) Update(ctx context.Context, id primitive.ObjectID, in ZoneInput) (*models.DeliveryZone, error) {
	z, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(z, time.Now().UTC())
	if err := s.repo.Update(ctx, z); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return z, nil
}

func (s *ZoneService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ZoneService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, zoneCachePrefix); err != nil {
		logger.FromContext(ctx).Warn("invalidate zone cache", "error", err)
	}
}

func (in ZoneInput) apply(z *models.DeliveryZone, now time.Time) {
	z.Pincode = in.Pincode
	z.Area = in.Area
	z.City = in.City
	z.State = in.State
	z.DeliveryCharge = in.DeliveryCharge
	z.EstimatedDays = in.EstimatedDays
	switch {
	case in.IsActive != nil:
		z.IsActive = *in.IsActive
	case z.ID.IsZero():
		z.IsActive = true
	}
	z.UpdatedAt = now
}
