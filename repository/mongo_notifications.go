package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"go-buildmart/models"
)

type mongoNotifications struct {
	col *mongo.Collection
}

func (r *mongoNotifications) CreateMany(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	docs := make([]interface{}, len(ns))
	for i, n := range ns {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		docs[i] = n
	}
	_, err := r.col.InsertMany(ctx, docs)
	return translate(err)
}

func (r *mongoNotifications) ListForUser(ctx context.Context, user primitive.ObjectID, unreadOnly bool, page Page) ([]models.Notification, int64, error) {
	filter := bson.M{"recipient": user}
	if unreadOnly {
		filter["is_read"] = false
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(page).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, translate(err)
	}
	list, err := decodeAll[models.Notification](ctx, cur)
	return list, total, translate(err)
}

func (r *mongoNotifications) CountUnread(ctx context.Context, user primitive.ObjectID) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"recipient": user, "is_read": false})
	return n, translate(err)
}

func (r *mongoNotifications) MarkRead(ctx context.Context, id, user primitive.ObjectID, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": user},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoNotifications) MarkAllRead(ctx context.Context, user primitive.ObjectID, at time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"recipient": user, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}},
	)
	if err != nil {
		return 0, translate(err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotifications) Delete(ctx context.Context, id, user primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "recipient": user})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
