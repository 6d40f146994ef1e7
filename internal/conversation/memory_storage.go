package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStorage keeps conversation records in a process-local map. State is
// lost on restart, which is the documented default for the bot.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*Conversation
}

// NewMemoryStorage builds an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string]*Conversation)}
}

// Get returns a copy of the stored record or ErrNotFound.
func (s *MemoryStorage) Get(ctx context.Context, userID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

// Save stores a copy of the record keyed by user id.
func (s *MemoryStorage) Save(ctx context.Context, conv *Conversation) error {
	if conv == nil || conv.UserID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneConversation(conv)
	stored.UpdatedAt = time.Now().UTC()
	s.records[conv.UserID] = stored
	return nil
}

// Delete removes the record for the user.
func (s *MemoryStorage) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

// All returns copies of every stored record.
func (s *MemoryStorage) All(ctx context.Context) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Conversation, 0, len(s.records))
	for _, conv := range s.records {
		out = append(out, cloneConversation(conv))
	}
	return out, nil
}

// cloneConversation deep-copies via JSON; records are small and this keeps
// the copy in sync with the wire shape the Redis storage uses.
func cloneConversation(conv *Conversation) *Conversation {
	data, err := json.Marshal(conv)
	if err != nil {
		copied := *conv
		return &copied
	}

	var out Conversation
	if err := json.Unmarshal(data, &out); err != nil {
		copied := *conv
		return &copied
	}
	return &out
}
