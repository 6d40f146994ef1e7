// Package session manages the per-user session lifecycle: activity
// tracking, expiry, and the timed notices delivered by the monitor.
package session

import "time"

// Timing policy. Fixed by design, not configuration: the warning fires
// three minutes before expiry, the context reset roughly at half the TTL.
const (
	// TTL is the inactivity window after which a session expires.
	TTL = 15 * time.Minute
	// WarningAt is the inactivity threshold for the expiry warning.
	WarningAt = 12 * time.Minute
	// ContextResetAt is the inactivity threshold for the return-to-menu reset.
	ContextResetAt = 8 * time.Minute
	// SweepInterval is the monitor cadence.
	SweepInterval = time.Minute
)

// Session tracks activity for one user, keyed by phone number. A session
// exists iff the user has an active, non-expired conversation.
type Session struct {
	UserID           string    `json:"user_id"`
	CreatedAt        time.Time `json:"created_at"`
	LastActivityAt   time.Time `json:"last_activity_at"`
	WarningSent      bool      `json:"warning_sent"`
	ExpiryNoticeSent bool      `json:"expiry_notice_sent"`
	ContextResetSent bool      `json:"context_reset_sent"`
}
