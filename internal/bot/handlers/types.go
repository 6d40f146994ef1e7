// Package handlers implements the state-specific dialogue flows: welcome
// and registration, main menu, product search, and order capture.
package handlers

import (
	"context"
	"log/slog"

	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
	"github.com/frutalia/ventabot/internal/messaging"
	"github.com/frutalia/ventabot/internal/nlp"
	"github.com/frutalia/ventabot/internal/session"
)

// Handler processes one inbound message for a user.
type Handler func(ctx context.Context, userID, text string) error

// Backend is the slice of the commerce API the flows consume.
type Backend interface {
	SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error)
	ValidateCustomer(ctx context.Context, phone string) (*domain.Customer, error)
	RegisterCustomer(ctx context.Context, phone, fullName string) (*domain.Customer, error)
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
}

// Flows bundles the stores and collaborators every flow handler needs.
type Flows struct {
	sessions   *session.Manager
	conv       *conversation.Service
	cart       *cart.Service
	backend    Backend
	extractor  nlp.Extractor
	sender     messaging.Sender
	errHandler *apperrors.Handler
	log        *slog.Logger
}

// NewFlows wires the flow handlers.
func NewFlows(
	sessions *session.Manager,
	conv *conversation.Service,
	cartSvc *cart.Service,
	backend Backend,
	extractor nlp.Extractor,
	sender messaging.Sender,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Flows {
	if log == nil {
		log = slog.Default()
	}

	return &Flows{
		sessions:   sessions,
		conv:       conv,
		cart:       cartSvc,
		backend:    backend,
		extractor:  extractor,
		sender:     sender,
		errHandler: errHandler,
		log:        log,
	}
}

// send delivers a message best effort. A failed send is logged and never
// aborts the state transition that produced it.
func (f *Flows) send(ctx context.Context, userID, body string) {
	if f.sender == nil {
		return
	}
	if err := f.sender.Send(ctx, userID, body); err != nil {
		f.log.Error("failed to send message", "user_id", userID, "error", err)
	}
}
