// Package bot owns message routing: the dialogue router applies the
// global classification and shortcut rules, then the dispatcher hands the
// message to the handler registered for the user's conversation state.
package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/frutalia/ventabot/internal/bot/handlers"
	"github.com/frutalia/ventabot/internal/conversation"
)

// Dispatcher routes messages to state-specific handlers.
type Dispatcher struct {
	stateHandlers map[conversation.State]handlers.Handler
	fallback      handlers.Handler
	log           *slog.Logger
	mu            sync.RWMutex
}

// NewDispatcher creates a Dispatcher with every flow state registered.
// Unknown states fall back to the welcome flow.
func NewDispatcher(flows *handlers.Flows, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		stateHandlers: make(map[conversation.State]handlers.Handler),
		fallback:      flows.Welcome,
		log:           log,
	}

	d.Register(conversation.StateInitial, flows.Welcome)
	d.Register(conversation.StateAwaitingName, flows.HandleNameCapture)
	d.Register(conversation.StateMenu, flows.HandleMenu)
	d.Register(conversation.StateProductInfo, flows.HandleProductInfo)
	d.Register(conversation.StateOrdersMenu, flows.HandleOrdersMenu)
	d.Register(conversation.StateFAQ, flows.HandleFAQ)
	d.Register(conversation.StateSearchAwaitingQuery, flows.HandleSearchQuery)
	d.Register(conversation.StateSearchAwaitingSelection, flows.HandleSearchSelection)
	d.Register(conversation.StateSearchShowingDetails, flows.HandleSearchDetails)
	d.Register(conversation.StateOrderAwaitingProductList, flows.HandleOrderProductList)
	d.Register(conversation.StateOrderResolvingAmbiguous, flows.HandleAmbiguousResolution)
	d.Register(conversation.StateOrderAwaitingAddMore, flows.HandleAddMore)
	d.Register(conversation.StateOrderAwaitingDeliveryMethod, flows.HandleDeliveryMethod)
	d.Register(conversation.StateOrderAwaitingAddress, flows.HandleAddress)
	d.Register(conversation.StateOrderAwaitingCity, flows.HandleCity)
	d.Register(conversation.StateOrderAwaitingDistrict, flows.HandleDistrict)
	d.Register(conversation.StateOrderAwaitingCourier, flows.HandleCourier)
	d.Register(conversation.StateOrderAwaitingConfirmation, flows.HandleConfirmation)

	return d
}

// Register binds a handler to a state, replacing any previous binding.
func (d *Dispatcher) Register(s conversation.State, h handlers.Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stateHandlers[s] = h
}

// Dispatch runs the handler registered for the state.
func (d *Dispatcher) Dispatch(ctx context.Context, s conversation.State, userID, text string) error {
	handler := d.getHandler(s)
	if handler == nil {
		d.log.Warn("no handler registered for state", "state", s, "user_id", userID)
		handler = d.fallback
	}
	return handler(ctx, userID, text)
}

func (d *Dispatcher) getHandler(s conversation.State) handlers.Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stateHandlers[s]
}
