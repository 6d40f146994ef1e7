package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	apperrors "github.com/frutalia/ventabot/internal/errors"
)

// TwilioSender sends WhatsApp messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
	log    *slog.Logger
}

// NewTwilioSender builds a sender from account credentials. from must be
// the WhatsApp-enabled number, with or without the "whatsapp:" prefix.
func NewTwilioSender(accountSID, authToken, from string, log *slog.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}

	if log == nil {
		log = slog.Default()
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		client: client,
		from:   withWhatsAppPrefix(from),
		log:    log,
	}, nil
}

// Send delivers one WhatsApp message.
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(withWhatsAppPrefix(to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		t.log.Error("failed to send whatsapp message", "user_id", to, "error", err)
		return apperrors.NewExternalAPIError("twilio", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Debug("whatsapp message sent", "user_id", to, "sid", sid)
	return nil
}

func withWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
