package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-buildmart/models"
)

type mongoZones struct {
	col *mongo.Collection
}

func (r *mongoZones) Create(ctx context.Context, z *models.DeliveryZone) error {
	res, err := r.col.InsertOne(ctx, z)
	if err != nil {
		return translate(err)
	}
	z.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoZones) FindByID(ctx context.Context, id primitive.ObjectID) (*models.DeliveryZone, error) {
	var z models.DeliveryZone
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&z); err != nil {
		return nil, translate(err)
	}
	return &z, nil
}

func (r *mongoZones) Update(ctx context.Context, z *models.DeliveryZone) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": z.ID}, z)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoZones) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoZones) List(ctx context.Context, pincode string, activeOnly bool) ([]models.DeliveryZone, error) {
	filter := bson.M{}
	if pincode != "" {
		filter["pincode"] = pincode
	}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "pincode", Value: 1}, {Key: "area", Value: 1}}))
	if err != nil {
		return nil, translate(err)
	}
	zones, err := decodeAll[models.DeliveryZone](ctx, cur)
	return zones, translate(err)
}
