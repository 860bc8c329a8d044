package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"go-buildmart/models"
)

const guestBucket = "cart_guest"

// BucketKey is where the cart of userID is stored. An empty id is the guest.
func BucketKey(userID string) string {
	if userID == "" {
		return guestBucket
	}
	return "cart_" + userID
}

// Storage persists cart buckets. Load of a missing key returns an empty
// cart and no error.
type Storage interface {
	Load(ctx context.Context, key string) ([]models.CartItem, error)
	Save(ctx context.Context, key string, items []models.CartItem) error
	Remove(ctx context.Context, key string) error
}

// MemoryStorage keeps buckets in a map.
type MemoryStorage struct {
	mu      sync.Mutex
	buckets map[string][]models.CartItem
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: map[string][]models.CartItem{}}
}

func (s *MemoryStorage) Load(_ context.Context, key string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem{}, s.buckets[key]...), nil
}

func (s *MemoryStorage) Save(_ context.Context, key string, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[key] = append([]models.CartItem{}, items...)
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// RedisStorage keeps each bucket as a JSON string.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStorage(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: "buildmart:storefront:"}
}

func (s *RedisStorage) Load(ctx context.Context, key string) ([]models.CartItem, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []models.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *RedisStorage) Save(ctx context.Context, key string, items []models.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+key, raw, 0).Err()
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}
