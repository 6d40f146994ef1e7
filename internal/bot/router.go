package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/frutalia/ventabot/internal/bot/handlers"
	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	apperrors "github.com/frutalia/ventabot/internal/errors"
	"github.com/frutalia/ventabot/internal/messaging"
	"github.com/frutalia/ventabot/internal/nlp"
	"github.com/frutalia/ventabot/internal/session"
	"github.com/frutalia/ventabot/pkg/metrics"
)

// Classifier confidence thresholds used by the routing rules.
const (
	autoReplyThreshold = 0.85
	helpThreshold      = 0.7
	sentimentThreshold = -0.5
)

var (
	orderKeywords = []string{"pedido", "pedir", "ordenar", "comprar", "orden"}
	cartKeywords  = []string{"carrito", "carro"}
	priceKeywords = []string{"precio", "catalogo", "productos"}
)

// Router applies the global routing rules to every inbound message before
// state dispatch: farewell, session lifecycle, intent classification, the
// product-question heuristic, and keyword shortcuts, in that order.
// Messages from the same user are serialized; different users proceed
// concurrently.
type Router struct {
	sessions   *session.Manager
	conv       *conversation.Service
	cart       *cart.Service
	flows      *handlers.Flows
	dispatcher *Dispatcher
	sender     messaging.Sender
	errHandler *apperrors.Handler
	log        *slog.Logger

	locks sync.Map // userID -> *sync.Mutex
}

// NewRouter wires the dialogue router.
func NewRouter(
	sessions *session.Manager,
	conv *conversation.Service,
	cartSvc *cart.Service,
	flows *handlers.Flows,
	dispatcher *Dispatcher,
	sender messaging.Sender,
	errHandler *apperrors.Handler,
	log *slog.Logger,
) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		sessions:   sessions,
		conv:       conv,
		cart:       cartSvc,
		flows:      flows,
		dispatcher: dispatcher,
		sender:     sender,
		errHandler: errHandler,
		log:        log,
	}
}

// HandleInbound processes one user message end to end. Routing errors are
// translated to a user-facing message here so the webhook never sees them.
func (r *Router) HandleInbound(ctx context.Context, userID, text string) {
	text = strings.TrimSpace(text)
	if userID == "" || text == "" {
		return
	}

	mu := r.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	state := r.conv.State(ctx, userID)

	if err := r.route(ctx, userID, text, state); err != nil {
		metrics.RecordMessage(string(state), "error")
		userMsg, _ := r.errHandler.Handle(ctx, err)
		r.send(ctx, userID, userMsg)
		return
	}
	metrics.RecordMessage(string(state), "handled")
}

func (r *Router) route(ctx context.Context, userID, text string, state conversation.State) error {
	bareDigit := isBareDigit(text)

	// Farewell wins over everything, including mid-order states.
	if !bareDigit {
		if res := nlp.DetectFarewell(text); res.Matched {
			r.send(ctx, userID, messages.Farewell)
			return r.sessions.Reset(ctx, userID)
		}
	}

	if !r.sessions.Exists(ctx, userID) {
		if _, err := r.sessions.Touch(ctx, userID); err != nil {
			return err
		}
		return r.flows.Welcome(ctx, userID, text)
	}

	if r.sessions.IsExpired(ctx, userID) {
		hadItems := r.cart.HasItems(ctx, userID)
		r.send(ctx, userID, messages.SessionExpired(hadItems))
		if err := r.sessions.Reset(ctx, userID); err != nil {
			return err
		}
		if _, err := r.sessions.Touch(ctx, userID); err != nil {
			return err
		}
		return r.flows.Welcome(ctx, userID, text)
	}

	if _, err := r.sessions.Touch(ctx, userID); err != nil {
		return err
	}

	classify := !state.SuppressesClassification() && !bareDigit
	if classify {
		if res := nlp.DetectAutoReply(text); res.Matched && res.Confidence > autoReplyThreshold {
			r.send(ctx, userID, res.Reply)
			return nil
		}
		if res := nlp.DetectGreeting(text); res.Matched && state.IsIdle() {
			return r.flows.Welcome(ctx, userID, text)
		}
		if res := nlp.DetectHelp(text); res.Matched && res.Confidence > helpThreshold && !state.IsProductContext() {
			return r.flows.ShowMenu(ctx, userID)
		}
		if nlp.Sentiment(text) < sentimentThreshold && !state.IsProductContext() {
			r.send(ctx, userID, messages.EmpatheticRedirect)
			return r.flows.ShowMenu(ctx, userID)
		}

		if !state.IsProductContext() && nlp.LooksLikeProductQuery(text) {
			handled, err := r.flows.QuickLookup(ctx, userID, text)
			if handled || err != nil {
				return err
			}
		}
	}

	if state == conversation.StateFAQ {
		if topic, ok := nlp.FAQTopic(text); ok {
			r.send(ctx, userID, messages.FAQAnswer(topic))
			return nil
		}
	}

	norm := nlp.Normalize(text)
	switch {
	case norm == "menu":
		return r.flows.ShowMenu(ctx, userID)
	case containsAny(norm, orderKeywords) && !strings.Contains(norm, "confirmar") && !state.IsOrderFlow():
		return r.flows.StartOrder(ctx, userID)
	case containsAny(norm, cartKeywords):
		return r.flows.ShowCart(ctx, userID)
	case containsAny(norm, priceKeywords) && !state.IsProductContext():
		return r.flows.StartSearch(ctx, userID)
	}

	return r.dispatcher.Dispatch(ctx, state, userID, text)
}

func (r *Router) send(ctx context.Context, userID, body string) {
	if r.sender == nil || body == "" {
		return
	}
	if err := r.sender.Send(ctx, userID, body); err != nil {
		r.log.Error("failed to send message", "user_id", userID, "error", err)
	}
}

func (r *Router) userLock(userID string) *sync.Mutex {
	lock, _ := r.locks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// isBareDigit reports whether the message is a single digit, reserved for
// menu selections.
func isBareDigit(text string) bool {
	return len(text) == 1 && unicode.IsDigit(rune(text[0]))
}

func containsAny(norm string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}
