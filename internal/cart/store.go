package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNotFound indicates that no cart is stored for the user.
var ErrNotFound = errors.New("cart not found")

// Store defines the persistence contract for carts.
type Store interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps carts in a process-local map.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewMemoryStore builds an empty in-memory cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*Cart)}
}

// Get returns a copy of the stored cart or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCart(cart), nil
}

// Save stores a copy of the cart keyed by user id.
func (s *MemoryStore) Save(ctx context.Context, cart *Cart) error {
	if cart == nil || cart.UserID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneCart(cart)
	stored.UpdatedAt = time.Now().UTC()
	s.carts[cart.UserID] = stored
	return nil
}

// Delete removes the cart for the user.
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, userID)
	return nil
}

func cloneCart(cart *Cart) *Cart {
	data, err := json.Marshal(cart)
	if err != nil {
		copied := *cart
		return &copied
	}

	var out Cart
	if err := json.Unmarshal(data, &out); err != nil {
		copied := *cart
		return &copied
	}
	return &out
}
