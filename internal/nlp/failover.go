package nlp

import (
	"context"
	"log/slog"

	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
)

// FailoverExtractor runs the primary (LLM) extractor behind a circuit
// breaker and degrades to the deterministic fallback on any failure, so a
// collaborator outage never reaches the user as a raw error.
type FailoverExtractor struct {
	primary  Extractor
	fallback Extractor
	breaker  *apperrors.CircuitBreaker
	log      *slog.Logger
}

// NewFailoverExtractor builds the two-stage extractor. primary may be nil,
// in which case the fallback serves everything.
func NewFailoverExtractor(primary, fallback Extractor, log *slog.Logger) *FailoverExtractor {
	if log == nil {
		log = slog.Default()
	}

	return &FailoverExtractor{
		primary:  primary,
		fallback: fallback,
		breaker:  apperrors.NewCircuitBreaker(),
		log:      log,
	}
}

// ExtractTerm tries the primary extractor, then the fallback.
func (f *FailoverExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	if f.primary != nil {
		var term string
		err := f.breaker.Call(func() error {
			var callErr error
			term, callErr = f.primary.ExtractTerm(ctx, text)
			return callErr
		})
		if err == nil {
			return term, nil
		}
		f.log.Warn("primary extractor failed, using fallback", slog.Any("error", err))
	}

	return f.fallback.ExtractTerm(ctx, text)
}

// ExtractProducts tries the primary extractor, then the fallback.
func (f *FailoverExtractor) ExtractProducts(ctx context.Context, text string) ([]domain.Mention, error) {
	if f.primary != nil {
		var mentions []domain.Mention
		err := f.breaker.Call(func() error {
			var callErr error
			mentions, callErr = f.primary.ExtractProducts(ctx, text)
			return callErr
		})
		if err == nil {
			return mentions, nil
		}
		f.log.Warn("primary extractor failed, using fallback", slog.Any("error", err))
	}

	return f.fallback.ExtractProducts(ctx, text)
}
