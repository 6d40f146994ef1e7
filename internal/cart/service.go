package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frutalia/ventabot/internal/domain"
)

var (
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrNotInCart indicates the product has no line in the cart.
	ErrNotInCart = errors.New("product not in cart")
)

// StockError reports an add or update that would exceed the available
// stock recorded on the product at call time.
type StockError struct {
	ProductName string
	InCart      int
	Requested   int
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d in cart, %d requested, %d available",
		e.ProductName, e.InCart, e.Requested, e.Available)
}

// SessionChecker is the slice of the session manager the cart needs for
// expiry-aware reads.
type SessionChecker interface {
	IsExpired(ctx context.Context, userID string) bool
}

// Service is the cart engine. All mutations enforce the stock invariant
// and recompute tier pricing; reads clear the cart of an expired session.
type Service struct {
	store    Store
	sessions SessionChecker
	log      *slog.Logger
}

// NewService builds the cart engine.
func NewService(store Store, sessions SessionChecker, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{store: store, sessions: sessions, log: log}
}

// SetSessionChecker attaches the session manager after construction. The
// cart and the session manager reference each other, so one side has to be
// wired late.
func (s *Service) SetSessionChecker(sessions SessionChecker) {
	s.sessions = sessions
}

// Get returns the user's cart. When the session has expired the cart is
// cleared as a side effect and an empty cart is returned, so reads are
// expiry-aware even between monitor sweeps.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	if s.sessions != nil && s.sessions.IsExpired(ctx, userID) {
		if err := s.store.Delete(ctx, userID); err != nil {
			s.log.Error("failed to clear expired cart", "user_id", userID, "error", err)
		}
		return &Cart{UserID: userID}, nil
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Cart{UserID: userID}, nil
		}
		return nil, err
	}
	return cart, nil
}

// Add creates or merges a line for the product. The merged quantity must
// not exceed the product's available stock.
func (s *Service) Add(ctx context.Context, userID string, product domain.Product, quantity int) (*Line, Totals, error) {
	if quantity <= 0 {
		return nil, Totals{}, ErrInvalidQuantity
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}

	idx := cart.find(product.ID)
	inCart := 0
	if idx >= 0 {
		inCart = cart.Lines[idx].Quantity
	}

	if inCart+quantity > product.Stock {
		return nil, Totals{}, &StockError{
			ProductName: product.Name,
			InCart:      inCart,
			Requested:   quantity,
			Available:   product.Stock,
		}
	}

	if idx >= 0 {
		line := &cart.Lines[idx]
		line.Quantity += quantity
		line.UnitPrice = product.UnitPrice
		line.BulkPrice = product.BulkPrice
		line.AvailableStock = product.Stock
		line.reprice()
	} else {
		line := Line{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       quantity,
			UnitPrice:      product.UnitPrice,
			BulkPrice:      product.BulkPrice,
			AvailableStock: product.Stock,
		}
		line.reprice()
		cart.Lines = append(cart.Lines, line)
		idx = len(cart.Lines) - 1
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, Totals{}, err
	}

	updated := cart.Lines[idx]
	return &updated, cart.Totals(), nil
}

// UpdateQuantity replaces a line's quantity, validated against the line's
// cached available stock.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Line, Totals, error) {
	if quantity <= 0 {
		return nil, Totals{}, ErrInvalidQuantity
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}

	idx := cart.find(productID)
	if idx < 0 {
		return nil, Totals{}, ErrNotInCart
	}

	line := &cart.Lines[idx]
	if quantity > line.AvailableStock {
		return nil, Totals{}, &StockError{
			ProductName: line.Name,
			InCart:      line.Quantity,
			Requested:   quantity,
			Available:   line.AvailableStock,
		}
	}

	line.Quantity = quantity
	line.reprice()

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, Totals{}, err
	}

	updated := cart.Lines[idx]
	return &updated, cart.Totals(), nil
}

// Remove deletes a line and returns it along with the new totals.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*Line, Totals, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}

	idx := cart.find(productID)
	if idx < 0 {
		return nil, Totals{}, ErrNotInCart
	}

	removed := cart.Lines[idx]
	cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, Totals{}, err
	}

	return &removed, cart.Totals(), nil
}

// Totals returns the cart summary.
func (s *Service) Totals(ctx context.Context, userID string) (Totals, error) {
	cart, err := s.Get(ctx, userID)
	if err != nil {
		return Totals{}, err
	}
	return cart.Totals(), nil
}

// Clear empties the cart. Idempotent.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, userID)
}

// HasItems reports whether the store holds at least one line for the user.
// It reads the store directly, not through Get: expiry notices ask this
// about a cart that the expiry-aware read would already have discarded.
func (s *Service) HasItems(ctx context.Context, userID string) bool {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to read cart", "user_id", userID, "error", err)
		}
		return false
	}
	return len(cart.Lines) > 0
}
