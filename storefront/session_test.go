package storefront

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "cart_guest", BucketKey(""))
	assert.Equal(t, "cart_42", BucketKey("42"))
}

func TestSessionKeepsCartsPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	alice := &models.User{ID: primitive.NewObjectID(), Name: "Alice"}
	bob := &models.User{ID: primitive.NewObjectID(), Name: "Bob"}

	s, err := NewSession(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, s.User())
	assert.Equal(t, "cart_guest", s.Bucket())
	require.NoError(t, s.Dispatch(ctx, Action{Type: AddItem, Item: item("guest-item", 1, 10)}))

	require.NoError(t, s.Login(ctx, alice, "token-a"))
	assert.Equal(t, BucketKey(alice.ID.Hex()), s.Bucket())
	assert.Empty(t, s.Items())
	require.NoError(t, s.Dispatch(ctx, Action{Type: AddItem, Item: item("cement", 5, 320)}))
	assert.Equal(t, 1600.0, s.Total())

	require.NoError(t, s.SwitchUser(ctx, bob, "token-b"))
	assert.Equal(t, "token-b", s.Token())
	assert.Empty(t, s.Items())

	require.NoError(t, s.SwitchUser(ctx, alice, "token-a2"))
	assert.Equal(t, 5, s.ItemCount())

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.User())
	assert.Equal(t, "", s.Token())
	assert.Equal(t, []models.CartItem{item("guest-item", 1, 10)}, s.Items())
}

func TestSessionLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	u := &models.User{ID: primitive.NewObjectID()}

	tab1, err := NewSession(ctx, store)
	require.NoError(t, err)
	tab2, err := NewSession(ctx, store)
	require.NoError(t, err)
	require.NoError(t, tab1.Login(ctx, u, "t"))
	require.NoError(t, tab2.Login(ctx, u, "t"))

	require.NoError(t, tab1.Dispatch(ctx, Action{Type: AddItem, Item: item("a", 1, 1)}))
	require.NoError(t, tab2.Dispatch(ctx, Action{Type: AddItem, Item: item("b", 2, 1)}))

	stored, err := store.Load(ctx, BucketKey(u.ID.Hex()))
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{item("b", 2, 1)}, stored)
}

type flakyStorage struct {
	*MemoryStorage
	failKey string
}

func (f *flakyStorage) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	if key == f.failKey {
		return nil, errors.New("storage down")
	}
	return f.MemoryStorage.Load(ctx, key)
}

func TestSwitchUserFailedLoadKeepsPreviousBucket(t *testing.T) {
	ctx := context.Background()
	alice := &models.User{ID: primitive.NewObjectID(), Name: "Alice"}
	bob := &models.User{ID: primitive.NewObjectID(), Name: "Bob"}
	store := &flakyStorage{MemoryStorage: NewMemoryStorage(), failKey: BucketKey(bob.ID.Hex())}

	s, err := NewSession(ctx, store)
	require.NoError(t, err)
	require.NoError(t, s.Login(ctx, alice, "token-a"))
	require.NoError(t, s.Dispatch(ctx, Action{Type: AddItem, Item: item("cement", 2, 320)}))
	require.NoError(t, s.Dispatch(ctx, Action{Type: AddItem, Item: item("sand", 10, 60)}))

	require.Error(t, s.SwitchUser(ctx, bob, "token-b"))
	assert.Equal(t, alice, s.User())
	assert.Equal(t, "token-a", s.Token())
	assert.Equal(t, BucketKey(alice.ID.Hex()), s.Bucket())
	assert.Len(t, s.Items(), 2)

	require.NoError(t, s.Dispatch(ctx, Action{Type: AddItem, Item: item("bricks", 1, 1)}))
	stored, err := store.Load(ctx, BucketKey(alice.ID.Hex()))
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}
