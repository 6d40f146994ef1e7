package handlers

import (
	"context"
	"regexp"
	"strings"

	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/conversation"
)

// fullNamePattern accepts two or more words of letters (accents allowed),
// each at least two characters.
var fullNamePattern = regexp.MustCompile(`^[\p{L}]{2,}(?:\s+[\p{L}]{2,})+$`)

// Welcome is the entry point for new, expired, or greeting users: it
// validates the phone against the backend and either greets a known
// customer into the menu or starts registration.
func (f *Flows) Welcome(ctx context.Context, userID, text string) error {
	customer, err := f.backend.ValidateCustomer(ctx, userID)
	if err != nil {
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}

	if customer != nil {
		if err := f.conv.SetCustomer(ctx, userID, customer); err != nil {
			return err
		}
		f.send(ctx, userID, messages.GreetingRegistered(customer.Name))
		return f.ShowMenu(ctx, userID)
	}

	f.send(ctx, userID, messages.Welcome)
	return f.conv.SetState(ctx, userID, conversation.StateAwaitingName)
}

// HandleNameCapture validates and registers the first+last name answer.
// Validation failures re-prompt without a state change.
func (f *Flows) HandleNameCapture(ctx context.Context, userID, text string) error {
	fullName := strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
	if !fullNamePattern.MatchString(fullName) {
		f.send(ctx, userID, messages.AskNameAgain)
		return nil
	}

	customer, err := f.backend.RegisterCustomer(ctx, userID, fullName)
	if err != nil {
		f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, messages.RegistrationFailed)
		return nil
	}

	if err := f.conv.SetCustomer(ctx, userID, customer); err != nil {
		return err
	}

	f.send(ctx, userID, messages.RegistrationDone(customer.Name))
	return f.ShowMenu(ctx, userID)
}
