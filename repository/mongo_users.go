package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-buildmart/models"
)

type mongoUsers struct {
	col *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return translate(err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *mongoUsers) Update(ctx context.Context, u *models.User) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUsers) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_login": at}})
	return translate(err)
}

func (r *mongoUsers) List(ctx context.Context, role models.Role, page Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	opts := pageOptions(page).SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password": 0})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, translate(err)
	}
	users, err := decodeAll[models.User](ctx, cur)
	return users, total, translate(err)
}

func (r *mongoUsers) FindAdmins(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"role": models.RoleAdmin, "is_active": true},
		options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, translate(err)
	}
	admins, err := decodeAll[models.User](ctx, cur)
	return admins, translate(err)
}
