package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frutalia/ventabot/internal/domain"
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages (metrics) to observe
// state transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// Service exposes the conversation state store. Scratch mutation happens
// through patch functions so multiple flow steps can populate the same
// draft without clobbering each other's fields.
type Service struct {
	storage Storage
	log     *slog.Logger
}

// NewService builds a Service on top of the given storage backend.
func NewService(storage Storage, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{storage: storage, log: log}
}

// Get returns the user's conversation, defaulting to a fresh StateInitial
// record when none is stored.
func (s *Service) Get(ctx context.Context, userID string) (*Conversation, error) {
	conv, err := s.storage.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return newConversation(userID), nil
		}
		return nil, err
	}
	if conv.State == "" {
		conv.State = StateInitial
	}
	return conv, nil
}

// State returns the user's current state, StateInitial when unknown or on
// storage failure (the router treats that as "start over", never an error).
func (s *Service) State(ctx context.Context, userID string) State {
	conv, err := s.Get(ctx, userID)
	if err != nil {
		s.log.Error("failed to load conversation state", "user_id", userID, "error", err)
		return StateInitial
	}
	return conv.State
}

// SetState transitions the user to the given state.
func (s *Service) SetState(ctx context.Context, userID string, state State) error {
	return s.update(ctx, userID, func(conv *Conversation) {
		transitionRecorder(string(conv.State), string(state))
		conv.State = state
	})
}

// SetCustomer caches the backend-validated identity on the record.
func (s *Service) SetCustomer(ctx context.Context, userID string, customer *domain.Customer) error {
	return s.update(ctx, userID, func(conv *Conversation) {
		conv.Customer = customer
	})
}

// PatchSearch applies the patch to the search scratch, creating it first
// when absent.
func (s *Service) PatchSearch(ctx context.Context, userID string, patch func(*SearchScratch)) error {
	return s.update(ctx, userID, func(conv *Conversation) {
		if conv.Search == nil {
			conv.Search = &SearchScratch{}
		}
		patch(conv.Search)
	})
}

// PatchOrder applies the patch to the order draft, creating it first when
// absent.
func (s *Service) PatchOrder(ctx context.Context, userID string, patch func(*OrderScratch)) error {
	return s.update(ctx, userID, func(conv *Conversation) {
		if conv.Order == nil {
			conv.Order = &OrderScratch{}
		}
		patch(conv.Order)
	})
}

// ClearScratch drops the flow scratch (search and order draft) but keeps
// the state and cached customer.
func (s *Service) ClearScratch(ctx context.Context, userID string) error {
	return s.update(ctx, userID, func(conv *Conversation) {
		conv.Search = nil
		conv.Order = nil
	})
}

// Clear removes the record entirely; the user is back at StateInitial.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.storage.Delete(ctx, userID)
}

// ResetToMenu discards the record and re-enters the main menu. Used by the
// session monitor's context reset; the cached customer is dropped and will
// be re-validated on demand.
func (s *Service) ResetToMenu(ctx context.Context, userID string) error {
	if err := s.storage.Delete(ctx, userID); err != nil {
		return err
	}
	return s.SetState(ctx, userID, StateMenu)
}

// All returns every stored conversation record.
func (s *Service) All(ctx context.Context) ([]*Conversation, error) {
	return s.storage.All(ctx)
}

func (s *Service) update(ctx context.Context, userID string, mutate func(*Conversation)) error {
	conv, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	mutate(conv)
	return s.storage.Save(ctx, conv)
}
