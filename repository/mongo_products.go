package repository

import (
	"context"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"go-buildmart/models"
)

type mongoProducts struct {
	client *mongo.Client
	col    *mongo.Collection
}

func (r *mongoProducts) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return translate(err)
	}
	return nil
}

func (r *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	p.NormalizeTiers()
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return translate(err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	p.NormalizeTiers()
	return &p, nil
}

func (r *mongoProducts) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, translate(err)
	}
	list, err := decodeAll[models.Product](ctx, cur)
	if err != nil {
		return nil, translate(err)
	}
	out := make(map[primitive.ObjectID]models.Product, len(list))
	for _, p := range list {
		p.NormalizeTiers()
		out[p.ID] = p
	}
	return out, nil
}

func (r *mongoProducts) Update(ctx context.Context, p *models.Product) error {
	p.NormalizeTiers()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func productQuery(f ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"description": rx}}
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if f.InStockOnly {
		filter["stock"] = bson.M{"$gt": 0}
		filter["is_available"] = true
	}
	return filter
}

func productSort(key string) bson.D {
	switch key {
	case "name":
		return bson.D{{Key: "name", Value: 1}}
	case "price":
		return bson.D{{Key: "price", Value: 1}}
	case "-price":
		return bson.D{{Key: "price", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

func (r *mongoProducts) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	filter := productQuery(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page).SetSort(productSort(f.Sort)))
	if err != nil {
		return nil, 0, translate(err)
	}
	list, err := decodeAll[models.Product](ctx, cur)
	if err != nil {
		return nil, 0, translate(err)
	}
	for i := range list {
		list[i].NormalizeTiers()
	}
	return list, total, nil
}

func (r *mongoProducts) All(ctx context.Context) ([]models.Product, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, translate(err)
	}
	list, err := decodeAll[models.Product](ctx, cur)
	if err != nil {
		return nil, translate(err)
	}
	for i := range list {
		list[i].NormalizeTiers()
	}
	return list, nil
}

func (r *mongoProducts) Categories(ctx context.Context) ([]string, error) {
	raw, err := r.col.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
