// Package server exposes the inbound HTTP surface: the Twilio WhatsApp
// webhook and the operational endpoints.
package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/frutalia/ventabot/pkg/logger"
)

// messageTimeout bounds the background processing of one inbound message.
const messageTimeout = 30 * time.Second

// InboundRouter consumes one inbound user message.
type InboundRouter interface {
	HandleInbound(ctx context.Context, userID, text string)
}

// twilioWebhookPayload is the form Twilio posts for each inbound WhatsApp
// message. Status callbacks arrive on the same URL with an empty Body.
type twilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	From       string `form:"From"` // whatsapp:+56912345678
	To         string `form:"To"`
	Body       string `form:"Body"`
}

// NewWebhookApp builds the fiber app serving the WhatsApp webhook. The
// webhook acknowledges immediately and processes the message in the
// background; Twilio retries on slow responses, which would double-process
// messages.
func NewWebhookApp(router InboundRouter, log *slog.Logger) *fiber.App {
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Post("/webhook/whatsapp", func(c *fiber.Ctx) error {
		var payload twilioWebhookPayload
		if err := c.BodyParser(&payload); err != nil {
			log.Warn("invalid webhook payload", "error", err)
			return c.SendStatus(fiber.StatusBadRequest)
		}

		from := strings.TrimPrefix(payload.From, "whatsapp:")
		if from == "" || payload.Body == "" {
			return c.SendStatus(fiber.StatusOK)
		}

		correlationID := logger.NewCorrelationID()
		log.Info("inbound message",
			"user_id", from,
			"message_sid", payload.MessageSid,
			"correlation_id", correlationID,
		)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
			defer cancel()

			ctx = logger.WithCorrelationID(ctx, correlationID)
			router.HandleInbound(ctx, from, payload.Body)
		}()

		return c.SendStatus(fiber.StatusOK)
	})

	return app
}
