package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/domain"
	"github.com/frutalia/ventabot/internal/nlp"
)

const searchResultLimit = 5

// StartSearch opens the product-search flow with a clean scratch.
func (f *Flows) StartSearch(ctx context.Context, userID string) error {
	if err := f.conv.PatchSearch(ctx, userID, func(s *conversation.SearchScratch) {
		*s = conversation.SearchScratch{}
	}); err != nil {
		return err
	}

	f.send(ctx, userID, messages.AskSearchQuery)
	return f.conv.SetState(ctx, userID, conversation.StateSearchAwaitingQuery)
}

// HandleSearchQuery extracts a term from the free-text answer and runs the
// catalog lookup. An unextractable term re-prompts in place.
func (f *Flows) HandleSearchQuery(ctx context.Context, userID, text string) error {
	term, err := f.extractor.ExtractTerm(ctx, text)
	if err != nil {
		f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, messages.SearchNoTerm)
		return nil
	}
	if term == "" {
		f.send(ctx, userID, messages.SearchNoTerm)
		return nil
	}

	return f.runSearch(ctx, userID, term)
}

// HandleSearchSelection resolves the numeric pick from an N-result list.
func (f *Flows) HandleSearchSelection(ctx context.Context, userID, text string) error {
	conv, err := f.conv.Get(ctx, userID)
	if err != nil {
		return err
	}

	if conv.Search == nil || len(conv.Search.Results) == 0 {
		// Stale scratch, most likely after a context reset.
		return f.StartSearch(ctx, userID)
	}
	results := conv.Search.Results

	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(results) {
		f.send(ctx, userID, messages.SelectionOutOfRange(len(results)))
		return nil
	}

	return f.showDetails(ctx, userID, results[n-1])
}

// HandleSearchDetails reacts to the add / search-again / menu choice under
// a product card.
func (f *Flows) HandleSearchDetails(ctx context.Context, userID, text string) error {
	norm := nlp.Normalize(text)

	switch {
	case isAffirmative(norm):
		conv, err := f.conv.Get(ctx, userID)
		if err != nil {
			return err
		}
		if conv.Search == nil || conv.Search.Selected == nil {
			return f.StartSearch(ctx, userID)
		}
		return f.addSelected(ctx, userID, *conv.Search.Selected)
	case isNegative(norm) || norm == "2" || norm == "otro" || strings.Contains(norm, "buscar"):
		return f.StartSearch(ctx, userID)
	case norm == "3" || norm == "menu":
		return f.ShowMenu(ctx, userID)
	default:
		f.send(ctx, userID, messages.DetailsOptions)
		return nil
	}
}

// QuickLookup serves a product question asked outside the search flow. It
// reports whether the message was consumed.
func (f *Flows) QuickLookup(ctx context.Context, userID, text string) (bool, error) {
	term, err := f.extractor.ExtractTerm(ctx, text)
	if err != nil || term == "" {
		return false, nil
	}
	return true, f.runSearch(ctx, userID, term)
}

// runSearch executes the 0/1/N presentation for a term.
func (f *Flows) runSearch(ctx context.Context, userID, term string) error {
	products, err := f.backend.SearchProducts(ctx, term, searchResultLimit)
	if err != nil {
		f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, messages.SearchUnavailable)
		return nil
	}

	switch len(products) {
	case 0:
		f.send(ctx, userID, messages.SearchNoResults(term))
		if err := f.conv.PatchSearch(ctx, userID, func(s *conversation.SearchScratch) {
			*s = conversation.SearchScratch{Term: term}
		}); err != nil {
			return err
		}
		return f.conv.SetState(ctx, userID, conversation.StateSearchAwaitingQuery)
	case 1:
		return f.showDetails(ctx, userID, products[0])
	default:
		if err := f.conv.PatchSearch(ctx, userID, func(s *conversation.SearchScratch) {
			*s = conversation.SearchScratch{Term: term, Results: products}
		}); err != nil {
			return err
		}
		f.send(ctx, userID, messages.SearchResultList(products))
		return f.conv.SetState(ctx, userID, conversation.StateSearchAwaitingSelection)
	}
}

func (f *Flows) showDetails(ctx context.Context, userID string, product domain.Product) error {
	if err := f.conv.PatchSearch(ctx, userID, func(s *conversation.SearchScratch) {
		s.Selected = &product
	}); err != nil {
		return err
	}

	f.send(ctx, userID, messages.ProductDetails(product))
	return f.conv.SetState(ctx, userID, conversation.StateSearchShowingDetails)
}

func (f *Flows) addSelected(ctx context.Context, userID string, product domain.Product) error {
	line, totals, err := f.cart.Add(ctx, userID, product, 1)
	if err != nil {
		var stockErr *cart.StockError
		if errors.As(err, &stockErr) {
			f.send(ctx, userID, messages.StockInsufficient(stockErr.ProductName, stockErr.InCart, stockErr.Available))
			return nil
		}
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}

	f.send(ctx, userID, messages.AddedToCart(*line, totals)+"\n\n"+messages.ProductInfoMenu)
	return f.conv.SetState(ctx, userID, conversation.StateProductInfo)
}

func isAffirmative(norm string) bool {
	switch norm {
	case "1", "si", "ok", "dale", "bueno", "ya", "agregar", "agregalo", "quiero":
		return true
	}
	return false
}

func isNegative(norm string) bool {
	return norm == "no"
}
