package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-buildmart/models"
)

type mongoContacts struct {
	col *mongo.Collection
}

func (r *mongoContacts) Create(ctx context.Context, c *models.Contact) error {
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return translate(err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoContacts) List(ctx context.Context, page Page) ([]models.Contact, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, translate(err)
	}
	cur, err := r.col.Find(ctx, bson.M{}, pageOptions(page).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, translate(err)
	}
	list, err := decodeAll[models.Contact](ctx, cur)
	return list, total, translate(err)
}
