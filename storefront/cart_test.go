package storefront

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-buildmart/models"
)

func item(id string, qty int, price float64) models.CartItem {
	return models.CartItem{ProductID: id, Name: id, Quantity: qty, Price: price}
}

func TestAddItemMergesByProduct(t *testing.T) {
	var cart []models.CartItem
	cart = Reduce(cart, Action{Type: AddItem, Item: item("a", 2, 10)})
	cart = Reduce(cart, Action{Type: AddItem, Item: item("b", 1, 5)})
	cart = Reduce(cart, Action{Type: AddItem, Item: item("a", 3, 10)})

	assert.Len(t, cart, 2)
	assert.Equal(t, 5, cart[0].Quantity)
	assert.Equal(t, 6, ItemCount(cart))
	assert.Equal(t, 55.0, Total(cart))
}

func TestAddItemIgnoresEmptyLines(t *testing.T) {
	cart := Reduce(nil, Action{Type: AddItem, Item: item("a", 0, 10)})
	assert.Empty(t, cart)
	cart = Reduce(cart, Action{Type: AddItem, Item: item("", 1, 10)})
	assert.Empty(t, cart)
}

func TestUpdateQuantity(t *testing.T) {
	cart := []models.CartItem{item("a", 2, 10), item("b", 1, 5)}

	updated := Reduce(cart, Action{Type: UpdateQuantity, ProductID: "a", Quantity: 7})
	assert.Equal(t, 7, updated[0].Quantity)
	assert.Equal(t, 2, cart[0].Quantity, "input must not be mutated")

	updated = Reduce(updated, Action{Type: UpdateQuantity, ProductID: "a", Quantity: 0})
	assert.Equal(t, []models.CartItem{item("b", 1, 5)}, updated)

	updated = Reduce(updated, Action{Type: UpdateQuantity, ProductID: "b", Quantity: -3})
	assert.Empty(t, updated)
}

func TestRemoveClearAndLoad(t *testing.T) {
	cart := []models.CartItem{item("a", 2, 10), item("b", 1, 5)}
	assert.Equal(t, []models.CartItem{item("b", 1, 5)}, Reduce(cart, Action{Type: RemoveItem, ProductID: "a"}))
	assert.Empty(t, Reduce(cart, Action{Type: Clear}))

	loaded := Reduce(cart, Action{Type: Load, Items: []models.CartItem{item("c", 1, 1), item("c", 2, 1), item("d", 0, 1)}})
	assert.Equal(t, []models.CartItem{item("c", 3, 1)}, loaded)

	assert.Equal(t, cart, Reduce(cart, Action{Type: "UNKNOWN"}))
}

func TestTotalIsExact(t *testing.T) {
	cart := []models.CartItem{item("a", 3, 0.1), item("b", 1, 0.2)}
	assert.Equal(t, 0.5, Total(cart))
}
