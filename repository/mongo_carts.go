package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-buildmart/models"
)

type mongoCarts struct {
	col *mongo.Collection
}

func (r *mongoCarts) Get(ctx context.Context, key string) (*models.Cart, error) {
	var c models.Cart
	err := r.col.FindOne(ctx, bson.M{"key": key}).Decode(&c)
	if err != nil {
		if translate(err) == ErrNotFound {
			return &models.Cart{Key: key, Items: []models.CartItem{}}, nil
		}
		return nil, translate(err)
	}
	return &c, nil
}

func (r *mongoCarts) Save(ctx context.Context, c *models.Cart) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"key": c.Key},
		bson.M{"$set": bson.M{"items": c.Items, "updated_at": c.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

func (r *mongoCarts) Delete(ctx context.Context, key string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"key": key})
	return translate(err)
}
