package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-buildmart/models"
)

const orderCounter = "order_number"

// OrderNumber formats a counter value as a human-readable order number.
func OrderNumber(seq int64) string {
	return fmt.Sprintf("ORD-%06d", seq)
}

type mongoOrders struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

// inTransaction runs fn inside a session transaction. Standalone servers
// cannot run transactions; fn then runs directly.
func (r *mongoOrders) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return translate(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && transactionsUnsupported(err) {
		return fn(ctx)
	}
	return err
}

func (r *mongoOrders) Place(ctx context.Context, o *models.Order) error {
	return r.inTransaction(ctx, func(ctx context.Context) error {
		return r.place(ctx, o)
	})
}

func (r *mongoOrders) place(ctx context.Context, o *models.Order) (err error) {
	products := r.db.Collection(colProducts)
	taken := make([]models.OrderItem, 0, len(o.Items))
	defer func() {
		if err == nil {
			return
		}
		// only matters when running without a transaction
		for _, it := range taken {
			_, _ = products.UpdateOne(context.WithoutCancel(ctx),
				bson.M{"_id": it.Product}, bson.M{"$inc": bson.M{"stock": it.Quantity}})
		}
	}()

	for _, it := range o.Items {
		res, err := products.UpdateOne(ctx,
			bson.M{"_id": it.Product, "is_available": true, "stock": bson.M{"$gte": it.Quantity}},
			bson.M{"$inc": bson.M{"stock": -it.Quantity}},
		)
		if err != nil {
			return translate(err)
		}
		if res.MatchedCount == 0 {
			return &StockError{ProductID: it.Product, Name: it.Name}
		}
		taken = append(taken, it)
	}

	seq, err := nextSequence(ctx, r.db, orderCounter)
	if err != nil {
		return err
	}
	o.OrderNumber = OrderNumber(seq)
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return translate(err)
	}
	return nil
}

func (r *mongoOrders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *mongoOrders) FindByIdempotencyKey(ctx context.Context, user primitive.ObjectID, key string) (*models.Order, error) {
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"user": user, "idempotency_key": key}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *mongoOrders) ListByUser(ctx context.Context, user primitive.ObjectID, page Page) ([]models.Order, int64, error) {
	return r.list(ctx, bson.M{"user": user}, page)
}

func (r *mongoOrders) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.User != nil {
		filter["user"] = *f.User
	}
	return r.list(ctx, filter, f.Page)
}

func (r *mongoOrders) list(ctx context.Context, filter bson.M, page Page) ([]models.Order, int64, error) {
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, translate(err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(page).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, translate(err)
	}
	list, err := decodeAll[models.Order](ctx, cur)
	return list, total, translate(err)
}

func (r *mongoOrders) Transition(ctx context.Context, t Transition) (*models.Order, error) {
	var out *models.Order
	err := r.inTransaction(ctx, func(ctx context.Context) error {
		o, err := r.transition(ctx, t)
		out = o
		return err
	})
	return out, err
}

func (r *mongoOrders) transition(ctx context.Context, t Transition) (*models.Order, error) {
	set := bson.M{"status": t.To, "updated_at": t.Event.Timestamp}
	if t.PaymentStatus != nil {
		set["payment_status"] = *t.PaymentStatus
	}
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": t.OrderID, "status": t.From},
		bson.M{"$set": set, "$push": bson.M{"tracking_history": t.Event}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": t.OrderID})
		if cerr == nil && n > 0 {
			return nil, ErrStaleStatus
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}

	if t.RestoreStock {
		products := r.db.Collection(colProducts)
		for _, it := range o.Items {
			if _, err := products.UpdateOne(ctx,
				bson.M{"_id": it.Product}, bson.M{"$inc": bson.M{"stock": it.Quantity}}); err != nil {
				return nil, translate(err)
			}
		}
	}
	return &o, nil
}

func (r *mongoOrders) UpdatePayment(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) (*models.Order, error) {
	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status}, "$currentDate": bson.M{"updated_at": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (r *mongoOrders) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return n, translate(err)
}
