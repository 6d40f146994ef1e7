// Package messaging defines the outbound message boundary and its Twilio
// WhatsApp implementation.
package messaging

import "context"

// Sender delivers a text message to a user, best effort. Implementations
// must not panic; failures are logged by callers and never abort an
// otherwise-successful state transition.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, to, body string) error

func (f SenderFunc) Send(ctx context.Context, to, body string) error {
	return f(ctx, to, body)
}
