package handlers

import (
	"context"
	"strings"

	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/nlp"
)

// ShowMenu sends the main menu and moves the conversation there.
func (f *Flows) ShowMenu(ctx context.Context, userID string) error {
	f.send(ctx, userID, messages.MainMenu())
	return f.conv.SetState(ctx, userID, conversation.StateMenu)
}

// HandleMenu routes a main-menu selection (1-5).
func (f *Flows) HandleMenu(ctx context.Context, userID, text string) error {
	switch strings.TrimSpace(text) {
	case "1":
		return f.StartSearch(ctx, userID)
	case "2":
		return f.StartOrder(ctx, userID)
	case "3":
		return f.ShowCart(ctx, userID)
	case "4":
		f.send(ctx, userID, messages.OrdersMenu)
		return f.conv.SetState(ctx, userID, conversation.StateOrdersMenu)
	case "5":
		f.send(ctx, userID, messages.FAQIntro)
		return f.conv.SetState(ctx, userID, conversation.StateFAQ)
	default:
		f.send(ctx, userID, messages.InvalidMenuOption)
		return nil
	}
}

// HandleOrdersMenu serves the order-status submenu. Any selection goes
// back to the main menu; status lookups live on the web portal.
func (f *Flows) HandleOrdersMenu(ctx context.Context, userID, text string) error {
	if strings.TrimSpace(text) == "1" {
		return f.ShowMenu(ctx, userID)
	}
	f.send(ctx, userID, messages.OrdersMenu)
	return nil
}

// HandleFAQ answers a frequently-asked-question topic, staying in the
// FAQ state for follow-up questions.
func (f *Flows) HandleFAQ(ctx context.Context, userID, text string) error {
	if topic, ok := nlp.FAQTopic(text); ok {
		f.send(ctx, userID, messages.FAQAnswer(topic))
		return nil
	}
	f.send(ctx, userID, messages.FAQUnknown)
	return nil
}

// HandleProductInfo routes the short menu shown after a product was
// added to the cart.
func (f *Flows) HandleProductInfo(ctx context.Context, userID, text string) error {
	switch strings.TrimSpace(text) {
	case "1":
		return f.StartSearch(ctx, userID)
	case "2":
		return f.StartOrder(ctx, userID)
	case "3":
		return f.ShowMenu(ctx, userID)
	default:
		f.send(ctx, userID, messages.ProductInfoMenu)
		return nil
	}
}

// ShowCart renders the current cart with live pricing. The read is
// expiry aware, so a stale cart comes back empty.
func (f *Flows) ShowCart(ctx context.Context, userID string) error {
	current, err := f.cart.Get(ctx, userID)
	if err != nil {
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}

	if len(current.Lines) == 0 {
		f.send(ctx, userID, messages.CartEmpty)
		return nil
	}

	f.send(ctx, userID, messages.CartSummary(current))
	return nil
}
