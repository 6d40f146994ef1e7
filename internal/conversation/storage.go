package conversation

import (
	"context"
	"errors"
)

// ErrNotFound indicates that a conversation record does not exist.
var ErrNotFound = errors.New("conversation not found")

// Storage defines the persistence contract for conversation records.
type Storage interface {
	// Get returns the record for the user, or ErrNotFound.
	Get(ctx context.Context, userID string) (*Conversation, error)
	// Save persists the record.
	Save(ctx context.Context, conv *Conversation) error
	// Delete removes the record (no error when absent).
	Delete(ctx context.Context, userID string) error
	// All returns every stored record.
	All(ctx context.Context) ([]*Conversation, error)
}
