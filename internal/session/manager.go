package session

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ConversationResetter is the slice of the conversation service the
// manager needs for reset cascades.
type ConversationResetter interface {
	Clear(ctx context.Context, userID string) error
}

// CartClearer is the slice of the cart engine the manager and monitor need.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
	HasItems(ctx context.Context, userID string) bool
}

// Manager owns the session lifecycle and cascades resets to the
// conversation and cart stores.
type Manager struct {
	store Store
	conv  ConversationResetter
	cart  CartClearer
	log   *slog.Logger
	now   func() time.Time
}

// NewManager builds a Manager over the given store and cascade targets.
func NewManager(store Store, conv ConversationResetter, cart CartClearer, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		store: store,
		conv:  conv,
		cart:  cart,
		log:   log,
		now:   time.Now,
	}
}

// Touch creates or refreshes the user's session. A touch represents real
// user activity, so the notice flags reset and the next inactivity window
// starts now. Reports whether the session was created.
func (m *Manager) Touch(ctx context.Context, userID string) (created bool, err error) {
	now := m.now()

	sess, err := m.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return false, err
		}
		sess = &Session{UserID: userID, CreatedAt: now}
		created = true
	}

	sess.LastActivityAt = now
	sess.WarningSent = false
	sess.ExpiryNoticeSent = false
	sess.ContextResetSent = false

	if err := m.store.Save(ctx, sess); err != nil {
		return created, err
	}
	return created, nil
}

// Exists reports whether a session is stored for the user.
func (m *Manager) Exists(ctx context.Context, userID string) bool {
	_, err := m.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("failed to read session", "user_id", userID, "error", err)
		}
		return false
	}
	return true
}

// IsExpired reports whether the stored session passed its TTL. A missing
// session is "new", not "expired".
func (m *Manager) IsExpired(ctx context.Context, userID string) bool {
	sess, err := m.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("failed to read session", "user_id", userID, "error", err)
		}
		return false
	}

	return m.now().Sub(sess.LastActivityAt) > TTL
}

// Remove deletes the session only. Idempotent.
func (m *Manager) Remove(ctx context.Context, userID string) error {
	return m.store.Delete(ctx, userID)
}

// Reset removes the session, conversation state, and cart as one logical
// operation. Partial failures are logged and the remaining cascades still
// run; per-user store operations are individually atomic.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	var firstErr error

	if err := m.store.Delete(ctx, userID); err != nil {
		m.log.Error("reset: failed to delete session", "user_id", userID, "error", err)
		firstErr = err
	}
	if m.conv != nil {
		if err := m.conv.Clear(ctx, userID); err != nil {
			m.log.Error("reset: failed to clear conversation", "user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if m.cart != nil {
		if err := m.cart.Clear(ctx, userID); err != nil {
			m.log.Error("reset: failed to clear cart", "user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
