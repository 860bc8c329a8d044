package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

func sampleID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

var sampleCreated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SampleCatalog is served read-only when the database cannot be reached and
// loaded by the seed command. IDs are fixed so links keep working across
// restarts.
func SampleCatalog() []models.Product {
	list := []models.Product{
		{
			ID: sampleID("65a000000000000000000001"), Name: "UltraTech OPC 53 Grade Cement", Category: "cement", Unit: "bag (50kg)",
			Description: "Ordinary Portland cement for structural concrete.",
			Price: 420, Prices: map[string]float64{"standard": 420, "primary": 395, "secondary": 405}, Stock: 500,
			Specifications: map[string]string{"grade": "OPC 53", "weight": "50kg"},
		},
		{
			ID: sampleID("65a000000000000000000002"), Name: "ACC PPC Cement", Category: "cement", Unit: "bag (50kg)",
			Description: "Portland pozzolana cement for plastering and masonry.",
			Price: 380, Prices: map[string]float64{"standard": 380, "primary": 360}, Stock: 650,
		},
		{
			ID: sampleID("65a000000000000000000003"), Name: "TMT Steel Bar Fe500D 12mm", Category: "steel", Unit: "piece (12m)",
			Description: "Thermo-mechanically treated rebar.",
			Price: 960, Prices: map[string]float64{"standard": 960, "primary": 910, "secondary": 930}, Stock: 300,
			Specifications: map[string]string{"diameter": "12mm", "grade": "Fe500D"},
		},
		{
			ID: sampleID("65a000000000000000000004"), Name: "Red Clay Bricks", Category: "bricks", Unit: "1000 pcs",
			Description: "Kiln-fired first-class bricks.",
			Price: 7500, Prices: map[string]float64{"standard": 7500, "primary": 7100}, Stock: 80,
		},
		{
			ID: sampleID("65a000000000000000000005"), Name: "River Sand", Category: "sand", Unit: "cubic ft",
			Description: "Washed river sand for concrete.",
			Price: 60, Stock: 10000,
		},
		{
			ID: sampleID("65a000000000000000000006"), Name: "20mm Aggregate", Category: "aggregates", Unit: "cubic ft",
			Description: "Crushed stone aggregate.",
			Price: 45, Prices: map[string]float64{"standard": 45, "secondary": 42}, Stock: 8000,
		},
		{
			ID: sampleID("65a000000000000000000007"), Name: "Vitrified Floor Tile 600x600", Category: "tiles", Unit: "box (4 pcs)",
			Description: "Double-charged glossy vitrified tile.",
			Price: 1150, Prices: map[string]float64{"standard": 1150, "primary": 1080}, Stock: 0,
		},
		{
			ID: sampleID("65a000000000000000000008"), Name: "Asian Paints Tractor Emulsion 20L", Category: "paint", Unit: "bucket",
			Description: "Interior emulsion, smooth finish.",
			Price: 3200, Prices: map[string]float64{"standard": 3200, "primary": 3050, "secondary": 3100}, Stock: 40,
		},
	}
	for i := range list {
		list[i].IsAvailable = list[i].Stock > 0
		list[i].CreatedAt = sampleCreated.Add(time.Duration(i) * time.Hour)
		list[i].UpdatedAt = list[i].CreatedAt
	}
	return list
}

// SampleZones seeds a few serviceable areas.
func SampleZones() []models.DeliveryZone {
	zones := []models.DeliveryZone{
		{Pincode: "560001", Area: "MG Road", City: "Bengaluru", State: "Karnataka", DeliveryCharge: 60, EstimatedDays: 2},
		{Pincode: "560001", Area: "Shivajinagar", City: "Bengaluru", State: "Karnataka", DeliveryCharge: 80, EstimatedDays: 2},
		{Pincode: "560034", Area: "Koramangala", City: "Bengaluru", State: "Karnataka", DeliveryCharge: 100, EstimatedDays: 3},
		{Pincode: "400001", Area: "Fort", City: "Mumbai", State: "Maharashtra", DeliveryCharge: 150, EstimatedDays: 4},
	}
	for i := range zones {
		zones[i].IsActive = true
		zones[i].CreatedAt = sampleCreated
		zones[i].UpdatedAt = sampleCreated
	}
	return zones
}
