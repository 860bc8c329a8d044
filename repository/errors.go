package repository

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for malformed ObjectID strings.
	ErrInvalidID = errors.New("invalid id")
	// ErrInsufficientStock is returned when an order line exceeds stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleStatus is returned when an order changed status between read
	// and conditional update.
	ErrStaleStatus = errors.New("order status changed concurrently")
	// ErrUnavailable signals that the backing store cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// DuplicateKeyError reports a unique index violation.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// StockError names the product that ran out.
type StockError struct {
	ProductID primitive.ObjectID
	Name      string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ParseID converts a hex string to an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// index name -> field reported to clients
var duplicateFields = map[string]string{
	indexUserEmail:       "email",
	indexZonePincodeArea: "pincode and area",
	indexProductName:     "name",
	indexOrderNumber:     "order_number",
	indexOrderIdemKey:    "idempotency_key",
	indexCartKey:         "key",
}

// translate maps driver errors onto repository errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{Field: duplicateField(err.Error())}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func duplicateField(msg string) string {
	const marker = "index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "field"
	}
	name := msg[i+len(marker):]
	if j := strings.IndexByte(name, ' '); j >= 0 {
		name = name[:j]
	}
	if field, ok := duplicateFields[name]; ok {
		return field
	}
	return strings.TrimSuffix(name, "_1")
}
