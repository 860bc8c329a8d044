// Package storefront holds the shopper-side session: a cart reducer and the
// per-user cart buckets it is persisted into.
package storefront

import (
	"github.com/shopspring/decimal"

	"go-buildmart/models"
)

// ActionType names a cart mutation.
type ActionType string

const (
	AddItem        ActionType = "ADD_ITEM"
	UpdateQuantity ActionType = "UPDATE_QUANTITY"
	RemoveItem     ActionType = "REMOVE_ITEM"
	Clear          ActionType = "CLEAR"
	Load           ActionType = "LOAD"
)

// Action is a cart mutation. Item is used by ADD_ITEM, ProductID and
// Quantity by UPDATE_QUANTITY and REMOVE_ITEM, Items by LOAD.
type Action struct {
	Type      ActionType
	Item      models.CartItem
	ProductID string
	Quantity  int
	Items     []models.CartItem
}

// Reduce returns the cart after applying a. The input slice is not
// modified. Unknown actions return the cart unchanged.
func Reduce(items []models.CartItem, a Action) []models.CartItem {
	switch a.Type {
	case AddItem:
		if a.Item.ProductID == "" || a.Item.Quantity <= 0 {
			return items
		}
		out := clone(items)
		for i := range out {
			if out[i].ProductID == a.Item.ProductID {
				out[i].Quantity += a.Item.Quantity
				return out
			}
		}
		return append(out, a.Item)

	case UpdateQuantity:
		if a.Quantity <= 0 {
			return Reduce(items, Action{Type: RemoveItem, ProductID: a.ProductID})
		}
		out := clone(items)
		for i := range out {
			if out[i].ProductID == a.ProductID {
				out[i].Quantity = a.Quantity
			}
		}
		return out

	case RemoveItem:
		out := make([]models.CartItem, 0, len(items))
		for _, it := range items {
			if it.ProductID != a.ProductID {
				out = append(out, it)
			}
		}
		return out

	case Clear:
		return []models.CartItem{}

	case Load:
		out := []models.CartItem{}
		for _, it := range a.Items {
			out = Reduce(out, Action{Type: AddItem, Item: it})
		}
		return out
	}
	return items
}

func clone(items []models.CartItem) []models.CartItem {
	return append(make([]models.CartItem, 0, len(items)+1), items...)
}

// ItemCount is the number of units in the cart.
func ItemCount(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of price times quantity, at the displayed prices.
func Total(items []models.CartItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum.Round(2).InexactFloat64()
}
