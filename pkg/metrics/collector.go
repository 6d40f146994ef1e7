package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/session"
)

var (
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of inbound messages labeled by conversation state and outcome",
		},
		[]string{"state", "outcome"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	sessionNoticesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_notices_total",
			Help: "Total number of session lifecycle notices sent by the monitor",
		},
		[]string{"kind"},
	)
	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of order submissions labeled by result",
		},
		[]string{"status"},
	)
	activeUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_users",
			Help: "Current number of users with a stored conversation",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per conversation state",
		},
		[]string{"state"},
	)
)

func init() {
	conversation.RegisterTransitionRecorder(RecordStateTransition)
	session.RegisterNoticeRecorder(RecordSessionNotice)
}

// RecordMessage counts one processed inbound message.
func RecordMessage(state, outcome string) {
	if state == "" {
		state = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}

	messagesTotal.WithLabelValues(state, outcome).Inc()
}

// RecordStateTransition tracks conversation state transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordSessionNotice counts warning, context-reset, and expiry notices.
func RecordSessionNotice(kind string) {
	if kind == "" {
		kind = "unknown"
	}

	sessionNoticesTotal.WithLabelValues(kind).Inc()
}

// RecordOrder counts an order submission attempt.
func RecordOrder(status string) {
	if status == "" {
		status = "unknown"
	}

	ordersTotal.WithLabelValues(status).Inc()
}

// SetActiveUsers updates the gauge for users with a stored conversation.
func SetActiveUsers(count int) {
	activeUsers.Set(float64(count))
}

// SetUsersByState updates the gauge for the given state.
func SetUsersByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	usersByState.WithLabelValues(state).Set(float64(count))
}

// StateCollector periodically counts stored conversations per state and
// emits gauge metrics.
type StateCollector struct {
	conv *conversation.Service
}

// NewStateCollector builds a collector bound to the conversation service.
func NewStateCollector(conv *conversation.Service) *StateCollector {
	return &StateCollector{conv: conv}
}

// Run polls every 10 seconds, updating user gauges until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.conv == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *StateCollector) collect(ctx context.Context) error {
	convs, err := c.conv.All(ctx)
	if err != nil {
		return err
	}

	SetActiveUsers(len(convs))

	stateCounts := make(map[string]int, len(convs))
	for _, conv := range convs {
		label := "unknown"
		if conv != nil && conv.State != "" {
			label = string(conv.State)
		}
		stateCounts[label]++
	}

	usersByState.Reset()

	for _, tracked := range conversation.States {
		label := string(tracked)
		SetUsersByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetUsersByState(label, count)
	}

	return nil
}
