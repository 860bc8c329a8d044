package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
	"go-buildmart/utils"
)

// CartLine is one line of a checkout request. Price is what the client
// displayed; it is accepted for compatibility and never trusted.
type CartLine struct {
	ProductID string  `json:"product" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1,max=10000"`
	Price     float64 `json:"price,omitempty"`
}

// OrderDraft carries everything BuildOrder needs.
type OrderDraft struct {
	User     *models.User
	Lines    []CartLine
	Products map[primitive.ObjectID]models.Product
	Zone     *models.DeliveryZone
	Shipping models.ShippingAddress
	Payment  models.PaymentMethod
	Notes    string
	Now      time.Time
}

// MergeLines parses product ids and sums quantities of repeated products,
// keeping first-seen order.
func MergeLines(lines []CartLine) ([]primitive.ObjectID, map[primitive.ObjectID]int, error) {
	if len(lines) == 0 {
		return nil, nil, utils.BadRequest("Order must contain at least one item")
	}
	var ids []primitive.ObjectID
	qty := make(map[primitive.ObjectID]int, len(lines))
	for _, l := range lines {
		id, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			return nil, nil, utils.BadRequest("Invalid product ID %q", l.ProductID)
		}
		if l.Quantity < 1 {
			return nil, nil, utils.BadRequest("Quantity must be at least 1")
		}
		if _, seen := qty[id]; !seen {
			ids = append(ids, id)
		}
		qty[id] += l.Quantity
	}
	return ids, qty, nil
}

// MatchZone picks the zone serving (pincode, area): an active zone whose area
// matches case-insensitively, else any active zone for the pincode. It
// returns nil when the pincode is not served.
func MatchZone(zones []models.DeliveryZone, pincode, area string) *models.DeliveryZone {
	pincode = strings.TrimSpace(pincode)
	area = strings.TrimSpace(area)
	var fallback *models.DeliveryZone
	for i := range zones {
		z := &zones[i]
		if !z.IsActive || z.Pincode != pincode {
			continue
		}
		if area != "" && strings.EqualFold(strings.TrimSpace(z.Area), area) {
			return z
		}
		if fallback == nil {
			fallback = z
		}
	}
	return fallback
}

// BuildOrder prices every line for the buyer's role from the live product,
// then adds the zone's flat delivery charge. Nothing is persisted.
func BuildOrder(d OrderDraft) (*models.Order, error) {
	if d.User == nil {
		return nil, utils.Unauthorized("Not authorized")
	}
	if d.Zone == nil {
		return nil, utils.BadRequest("Delivery not available for this location")
	}
	if !d.Payment.Valid() {
		return nil, utils.BadRequest("Invalid payment method")
	}
	ids, qty, err := MergeLines(d.Lines)
	if err != nil {
		return nil, err
	}
	now := d.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(ids))
	for _, id := range ids {
		p, ok := d.Products[id]
		if !ok {
			return nil, utils.NotFound("Product " + id.Hex())
		}
		n := qty[id]
		if !p.InStock(n) {
			return nil, utils.BadRequest("Insufficient stock for %s", p.Name)
		}
		price := ResolvePrice(&p, d.User.Role)
		if price.IsZero() {
			return nil, utils.BadRequest("%s has no price configured", p.Name)
		}
		line := price.Mul(decimal.NewFromInt(int64(n)))
		subtotal = subtotal.Add(line)
		items = append(items, models.OrderItem{
			Product:         p.ID,
			Name:            p.Name,
			Unit:            p.Unit,
			Quantity:        n,
			PriceAtPurchase: ToFloat(price),
			LineTotal:       ToFloat(line),
		})
	}

	charge := money(d.Zone.DeliveryCharge)
	if d.Zone.DeliveryCharge < 0 {
		charge = decimal.Zero
	}
	total := subtotal.Add(charge)
	by := d.User.ID

	return &models.Order{
		User:            d.User.ID,
		Items:           items,
		ShippingAddress: d.Shipping,
		DeliveryZone:    d.Zone.ID,
		Subtotal:        ToFloat(subtotal),
		DeliveryCharge:  ToFloat(charge),
		TotalAmount:     ToFloat(total),
		Status:          models.StatusProcessing,
		PaymentMethod:   d.Payment,
		PaymentStatus:   models.PaymentPending,
		TrackingHistory: []models.TrackingEvent{{
			Status:    models.StatusProcessing,
			Note:      "Order placed",
			UpdatedBy: &by,
			Timestamp: now,
		}},
		EstimatedDelivery: now.AddDate(0, 0, d.Zone.EstimatedDays),
		Notes:             d.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
