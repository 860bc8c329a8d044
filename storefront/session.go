package storefront

import (
	"context"
	"sync"

	"go-buildmart/models"
)

// Session is one shopper's client state: who is signed in and their cart.
// Every mutation is written through to the current bucket; the last write
// wins.
type Session struct {
	mu      sync.Mutex
	store   Storage
	user    *models.User
	token   string
	items   []models.CartItem
	current string
}

// NewSession starts a guest session and loads the guest bucket.
func NewSession(ctx context.Context, store Storage) (*Session, error) {
	s := &Session{store: store}
	if err := s.switchTo(ctx, nil, ""); err != nil {
		return nil, err
	}
	return s, nil
}

// Login makes u the signed-in user and loads their bucket.
func (s *Session) Login(ctx context.Context, u *models.User, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchTo(ctx, u, token)
}

// Logout returns to the guest bucket. The user's bucket is left in storage.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.switchTo(ctx, nil, "")
}

// SwitchUser is Login for a different account without an intermediate
// logout.
func (s *Session) SwitchUser(ctx context.Context, u *models.User, token string) error {
	return s.Login(ctx, u, token)
}

func (s *Session) switchTo(ctx context.Context, u *models.User, token string) error {
	key := BucketKey("")
	if u != nil {
		key = BucketKey(u.ID.Hex())
	}
	// a failed load leaves the session on its previous bucket
	loaded, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}
	items := Reduce(s.items, Action{Type: Clear})
	s.items = Reduce(items, Action{Type: Load, Items: loaded})
	s.user = u
	s.token = token
	s.current = key
	return nil
}

// Dispatch applies a and persists the result.
func (s *Session) Dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Reduce(s.items, a)
	return s.store.Save(ctx, s.current, s.items)
}

func (s *Session) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem{}, s.items...)
}

func (s *Session) ItemCount() int { return ItemCount(s.Items()) }

func (s *Session) Total() float64 { return Total(s.Items()) }

// User returns the signed-in user, or nil for a guest.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Bucket is the storage key currently in use.
func (s *Session) Bucket() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
