package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colUsers         = "users"
	colProducts      = "products"
	colOrders        = "orders"
	colZones         = "delivery_zones"
	colNotifications = "notifications"
	colContacts      = "contacts"
	colCarts         = "carts"
	colCounters      = "counters"
)

const (
	indexUserEmail       = "email_unique"
	indexZonePincodeArea = "pincode_area_unique"
	indexProductName     = "name_unique"
	indexOrderNumber     = "order_number_unique"
	indexOrderIdemKey    = "user_idempotency_key_unique"
	indexCartKey         = "key_unique"
	indexNotificationTTL = "expires_at_ttl"
)

// NewMongoStore wires every Mongo repository against db.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:         &mongoUsers{col: db.Collection(colUsers)},
		Products:      &mongoProducts{client: client, col: db.Collection(colProducts)},
		Orders:        &mongoOrders{client: client, db: db, col: db.Collection(colOrders)},
		Zones:         &mongoZones{col: db.Collection(colZones)},
		Notifications: &mongoNotifications{col: db.Collection(colNotifications)},
		Contacts:      &mongoContacts{col: db.Collection(colContacts)},
		Carts:         &mongoCarts{col: db.Collection(colCarts)},
	}
}

// EnsureIndexes creates the unique and TTL indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName(indexUserEmail).SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		colProducts: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName(indexProductName).SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetName(indexOrderNumber).SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "idempotency_key", Value: 1}},
				Options: options.Index().SetName(indexOrderIdemKey).SetUnique(true).
					SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
			},
		},
		colZones: {
			{Keys: bson.D{{Key: "pincode", Value: 1}, {Key: "area", Value: 1}}, Options: options.Index().SetName(indexZonePincodeArea).SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2})},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetName(indexNotificationTTL).SetExpireAfterSeconds(0)},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colCarts: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetName(indexCartKey).SetUnique(true)},
		},
	}
	for col, idx := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

// nextSequence atomically increments and returns the named counter.
func nextSequence(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("counter %s: %w", name, translate(err))
	}
	return doc.Seq, nil
}

// transactionsUnsupported reports whether err comes from a standalone server
// that cannot run multi-document transactions.
func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 20 || cmdErr.Code == 263
	}
	return false
}

func pageOptions(page Page) *options.FindOptions {
	page = page.Normalize()
	return options.Find().SetSkip(page.Skip()).SetLimit(int64(page.Limit))
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := make([]T, 0)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, cur.Err()
}

