package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/messaging"
)

var noticeRecorder = func(kind string) {}

// RegisterNoticeRecorder allows external packages (metrics) to observe the
// notices the monitor emits: "warning", "context_reset", "expiry".
func RegisterNoticeRecorder(recorder func(kind string)) {
	if recorder == nil {
		noticeRecorder = func(string) {}
		return
	}

	noticeRecorder = recorder
}

// ConversationMonitorStore is the slice of the conversation service the
// monitor needs for the context reset.
type ConversationMonitorStore interface {
	ResetToMenu(ctx context.Context, userID string) error
}

// Monitor sweeps every known session on a fixed cadence and applies, per
// user and in priority order: expiry, warning, context reset. Users are
// evaluated independently; one failing send never blocks the rest.
type Monitor struct {
	store    Store
	manager  *Manager
	conv     ConversationMonitorStore
	cart     CartClearer
	sender   messaging.Sender
	log      *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewMonitor builds a Monitor sweeping at SweepInterval.
func NewMonitor(store Store, manager *Manager, conv ConversationMonitorStore, cart CartClearer, sender messaging.Sender, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}

	return &Monitor{
		store:    store,
		manager:  manager,
		conv:     conv,
		cart:     cart,
		sender:   sender,
		log:      log,
		interval: SweepInterval,
		now:      time.Now,
	}
}

// Run starts the sweep loop until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m == nil || m.store == nil {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			reason := ctx.Err()
			if reason != nil {
				m.log.Info("session monitor stopped", slog.String("reason", reason.Error()))
			} else {
				m.log.Info("session monitor stopped")
			}
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep evaluates every session once.
func (m *Monitor) Sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sessions, err := m.store.All(ctx)
	if err != nil {
		m.log.Error("session sweep failed to list sessions", slog.Any("error", err))
		return
	}

	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		m.evaluate(ctx, sess)
	}
}

// evaluate applies at most one notice per user per sweep, expiry first.
func (m *Monitor) evaluate(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}

	elapsed := m.now().Sub(sess.LastActivityAt)

	switch {
	case elapsed >= TTL && !sess.ExpiryNoticeSent:
		m.expire(ctx, sess)
	case elapsed >= WarningAt && !sess.WarningSent:
		m.warn(ctx, sess)
	case elapsed >= ContextResetAt && !sess.ContextResetSent:
		m.contextReset(ctx, sess)
	}
}

func (m *Monitor) expire(ctx context.Context, sess *Session) {
	cartHadItems := m.cart != nil && m.cart.HasItems(ctx, sess.UserID)

	m.send(ctx, sess.UserID, messages.SessionExpired(cartHadItems))

	if err := m.manager.Reset(ctx, sess.UserID); err != nil {
		m.log.Error("monitor failed to reset expired session", "user_id", sess.UserID, "error", err)
		return
	}

	noticeRecorder("expiry")
	m.log.Info("session expired", "user_id", sess.UserID)
}

func (m *Monitor) warn(ctx context.Context, sess *Session) {
	m.send(ctx, sess.UserID, messages.SessionWarning)

	fresh := m.reload(ctx, sess)
	if fresh == nil {
		return
	}

	// past the warning threshold the context-reset stage is moot
	fresh.WarningSent = true
	fresh.ContextResetSent = true
	if err := m.store.Save(ctx, fresh); err != nil {
		m.log.Error("monitor failed to persist warning flag", "user_id", sess.UserID, "error", err)
		return
	}

	noticeRecorder("warning")
	m.log.Info("session warning sent", "user_id", sess.UserID)
}

// contextReset clears the conversation and returns the user to the main
// menu, keeping session and cart. The session's activity clock restarts so
// the reset itself does not count as further inactivity; the flag survives
// because only a real user touch resets flags.
func (m *Monitor) contextReset(ctx context.Context, sess *Session) {
	m.send(ctx, sess.UserID, messages.ContextReset)

	fresh := m.reload(ctx, sess)
	if fresh == nil {
		return
	}

	if m.conv != nil {
		if err := m.conv.ResetToMenu(ctx, sess.UserID); err != nil {
			m.log.Error("monitor failed to reset conversation", "user_id", sess.UserID, "error", err)
		}
	}

	fresh.ContextResetSent = true
	fresh.LastActivityAt = m.now()
	if err := m.store.Save(ctx, fresh); err != nil {
		m.log.Error("monitor failed to persist context reset", "user_id", sess.UserID, "error", err)
		return
	}

	noticeRecorder("context_reset")
	m.log.Info("session context reset", "user_id", sess.UserID)
}

// reload re-reads the session after a send. The send is a suspension point:
// a touch can land while it is in flight, and writing back the record
// captured at sweep start would regress LastActivityAt and re-lose the
// cleared flags. Returns nil when the session is gone or the user has been
// active since the sweep snapshot.
func (m *Monitor) reload(ctx context.Context, sess *Session) *Session {
	fresh, err := m.store.Get(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.Error("monitor failed to reload session", "user_id", sess.UserID, "error", err)
		}
		return nil
	}
	if fresh.LastActivityAt.After(sess.LastActivityAt) {
		return nil
	}
	return fresh
}

// send is best effort: a failed delivery is logged and the sweep moves on.
func (m *Monitor) send(ctx context.Context, userID, body string) {
	if m.sender == nil {
		return
	}
	if err := m.sender.Send(ctx, userID, body); err != nil {
		m.log.Error("monitor failed to send notice", "user_id", userID, "error", err)
	}
}
