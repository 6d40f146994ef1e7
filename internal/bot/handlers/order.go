package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
	"github.com/frutalia/ventabot/internal/nlp"
	"github.com/frutalia/ventabot/pkg/metrics"
)

const (
	// minDeliveryTotal is the order total required for home delivery, in CLP.
	minDeliveryTotal int64 = 50000

	// ambiguousMatchLimit caps how many catalog matches one requested
	// product can fan out into.
	ambiguousMatchLimit = 3
)

// resolutionToken accepts "3" or "3: 2" (option, optional quantity).
var resolutionToken = regexp.MustCompile(`^\s*(\d+)\s*(?::\s*(\d+))?\s*$`)

// StartOrder opens the order-capture flow with a clean draft.
func (f *Flows) StartOrder(ctx context.Context, userID string) error {
	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		*o = conversation.OrderScratch{}
	}); err != nil {
		return err
	}

	f.send(ctx, userID, messages.AskProductList)
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingProductList)
}

// HandleOrderProductList parses a free-text product list, adds unambiguous
// matches to the cart, and collects ambiguous ones into a numbered option
// map for the next turn.
func (f *Flows) HandleOrderProductList(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	mentions, err := f.extractor.ExtractProducts(ctx, text)
	if err != nil {
		f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, messages.TemporaryFailure)
		return nil
	}
	if len(mentions) == 0 {
		f.send(ctx, userID, messages.ProductListEmpty)
		return nil
	}

	var (
		added     []cart.Line
		ambiguous []messages.CaptureOption
		missed    []messages.CaptureMiss
		options   = map[int]conversation.AmbiguousOption{}
		optionNum = 0
	)

	for _, mention := range mentions {
		products, err := f.backend.SearchProducts(ctx, mention.Name, ambiguousMatchLimit)
		if err != nil {
			f.errHandler.Handle(ctx, err)
			missed = append(missed, messages.CaptureMiss{Name: mention.Name, Reason: "no disponible en este momento"})
			continue
		}

		switch len(products) {
		case 0:
			missed = append(missed, messages.CaptureMiss{Name: mention.Name, Reason: "sin coincidencias"})
		case 1:
			line, _, err := f.cart.Add(ctx, userID, products[0], mention.Quantity)
			if err != nil {
				missed = append(missed, captureMiss(products[0].Name, err))
				continue
			}
			added = append(added, *line)
		default:
			for _, p := range products {
				optionNum++
				options[optionNum] = conversation.AmbiguousOption{
					RequestedName:     mention.Name,
					RequestedQuantity: mention.Quantity,
					Product:           p,
				}
				ambiguous = append(ambiguous, messages.CaptureOption{
					Number:        optionNum,
					RequestedName: mention.Name,
					Product:       p,
				})
			}
		}
	}

	f.send(ctx, userID, messages.CaptureSummary(added, ambiguous, missed))

	if len(options) > 0 {
		if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
			o.Options = options
		}); err != nil {
			return err
		}
		return f.conv.SetState(ctx, userID, conversation.StateOrderResolvingAmbiguous)
	}

	if len(added) > 0 {
		return f.askAddMore(ctx, userID)
	}

	f.send(ctx, userID, messages.ProductListEmpty)
	return nil
}

// HandleAmbiguousResolution applies a "1, 3" or "1: 5, 2: 3" answer
// against the persisted option map. Malformed tokens and unknown option
// numbers are skipped silently; a fully unparseable answer re-prompts.
func (f *Flows) HandleAmbiguousResolution(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	conv, err := f.conv.Get(ctx, userID)
	if err != nil {
		return err
	}

	if conv.Order == nil || len(conv.Order.Options) == 0 {
		sessionErr := apperrors.NewSessionError("no pending options in ambiguous resolution")
		userMsg, _ := f.errHandler.Handle(ctx, sessionErr)
		f.send(ctx, userID, userMsg)
		return f.sessions.Reset(ctx, userID)
	}
	options := conv.Order.Options

	type pick struct {
		option   conversation.AmbiguousOption
		quantity int
	}
	var picks []pick
	for _, token := range strings.Split(text, ",") {
		m := resolutionToken.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		option, ok := options[num]
		if !ok {
			continue
		}

		quantity := option.RequestedQuantity
		if m[2] != "" {
			if q, err := strconv.Atoi(m[2]); err == nil && q > 0 {
				quantity = q
			}
		}
		if quantity < 1 {
			quantity = 1
		}
		picks = append(picks, pick{option: option, quantity: quantity})
	}

	if len(picks) == 0 {
		f.send(ctx, userID, messages.AmbiguousUnparseable)
		return nil
	}

	var (
		added  []cart.Line
		missed []messages.CaptureMiss
	)
	for _, p := range picks {
		line, _, err := f.cart.Add(ctx, userID, p.option.Product, p.quantity)
		if err != nil {
			missed = append(missed, captureMiss(p.option.Product.Name, err))
			continue
		}
		added = append(added, *line)
	}

	f.send(ctx, userID, messages.CaptureSummary(added, nil, missed))

	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		o.Options = nil
	}); err != nil {
		return err
	}
	return f.askAddMore(ctx, userID)
}

// HandleAddMore routes the add-more / finalize decision.
func (f *Flows) HandleAddMore(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	switch norm := nlp.Normalize(text); {
	case norm == "1" || norm == "si" || strings.Contains(norm, "agregar") || strings.Contains(norm, "mas"):
		f.send(ctx, userID, messages.AskProductList)
		return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingProductList)
	case norm == "2" || norm == "no" || strings.Contains(norm, "finalizar") || strings.Contains(norm, "listo"):
		if !f.cart.HasItems(ctx, userID) {
			f.send(ctx, userID, messages.EmptyCartAbort)
			return f.ShowMenu(ctx, userID)
		}
		f.send(ctx, userID, messages.DeliveryPrompt)
		return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingDeliveryMethod)
	default:
		f.send(ctx, userID, messages.AddMoreReprompt)
		return nil
	}
}

// HandleDeliveryMethod records pickup or delivery. Delivery enforces the
// minimum order total before any address capture starts.
func (f *Flows) HandleDeliveryMethod(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	switch norm := nlp.Normalize(text); {
	case norm == "1" || strings.Contains(norm, "retiro") || strings.Contains(norm, "tienda"):
		if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
			o.DeliveryMethod = domain.DeliveryPickup
		}); err != nil {
			return err
		}
		f.send(ctx, userID, messages.PickupConfirmed())
		return f.showConfirmation(ctx, userID)

	case norm == "2" || strings.Contains(norm, "despacho") || strings.Contains(norm, "domicilio") || strings.Contains(norm, "envio"):
		totals, err := f.cart.Totals(ctx, userID)
		if err != nil {
			userMsg, _ := f.errHandler.Handle(ctx, err)
			f.send(ctx, userID, userMsg)
			return nil
		}
		if totals.Total < minDeliveryTotal {
			f.send(ctx, userID, messages.DeliveryMinimumNotMet(totals.Total, minDeliveryTotal))
			return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingAddMore)
		}

		if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
			o.DeliveryMethod = domain.DeliveryDelivery
		}); err != nil {
			return err
		}
		f.send(ctx, userID, messages.AskAddress)
		return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingAddress)

	default:
		f.send(ctx, userID, messages.DeliveryReprompt)
		return nil
	}
}

// HandleAddress captures the street address.
func (f *Flows) HandleAddress(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	address := strings.TrimSpace(text)
	if utf8.RuneCountInString(address) < 5 {
		f.send(ctx, userID, messages.AddressTooShort)
		return nil
	}

	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		o.Address = address
	}); err != nil {
		return err
	}
	f.send(ctx, userID, messages.AskCity)
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingCity)
}

// HandleCity captures the city.
func (f *Flows) HandleCity(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	city := strings.TrimSpace(text)
	if utf8.RuneCountInString(city) < 3 {
		f.send(ctx, userID, messages.CityTooShort)
		return nil
	}

	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		o.City = city
	}); err != nil {
		return err
	}
	f.send(ctx, userID, messages.AskDistrict)
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingDistrict)
}

// HandleDistrict captures the district (comuna).
func (f *Flows) HandleDistrict(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	district := strings.TrimSpace(text)
	if utf8.RuneCountInString(district) < 3 {
		f.send(ctx, userID, messages.DistrictTooShort)
		return nil
	}

	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		o.District = district
	}); err != nil {
		return err
	}
	f.send(ctx, userID, messages.AskCourier)
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingCourier)
}

// HandleCourier records the courier choice by number or name.
func (f *Flows) HandleCourier(ctx context.Context, userID, text string) error {
	if isCancel(text) {
		return f.cancelOrder(ctx, userID)
	}

	courier, ok := parseCourier(nlp.Normalize(text))
	if !ok {
		f.send(ctx, userID, messages.CourierReprompt)
		return nil
	}

	if err := f.conv.PatchOrder(ctx, userID, func(o *conversation.OrderScratch) {
		o.Courier = courier
	}); err != nil {
		return err
	}
	return f.showConfirmation(ctx, userID)
}

// HandleConfirmation submits, cancels, or re-prompts the final summary.
func (f *Flows) HandleConfirmation(ctx context.Context, userID, text string) error {
	norm := nlp.Normalize(text)
	switch {
	case strings.Contains(norm, "confirmar"):
		return f.submitOrder(ctx, userID)
	case isCancel(text) || norm == "no":
		return f.cancelOrder(ctx, userID)
	default:
		f.send(ctx, userID, messages.ConfirmationReprompt)
		return nil
	}
}

// askAddMore shows the current cart and the add-more decision.
func (f *Flows) askAddMore(ctx context.Context, userID string) error {
	current, err := f.cart.Get(ctx, userID)
	if err != nil {
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}

	f.send(ctx, userID, messages.CartSummary(current)+"\n\n"+messages.AddMorePrompt)
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingAddMore)
}

// showConfirmation renders the itemized summary and waits for confirmar.
func (f *Flows) showConfirmation(ctx context.Context, userID string) error {
	conv, err := f.conv.Get(ctx, userID)
	if err != nil {
		return err
	}
	current, err := f.cart.Get(ctx, userID)
	if err != nil {
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}
	if len(current.Lines) == 0 {
		f.send(ctx, userID, messages.EmptyCartAbort)
		return f.ShowMenu(ctx, userID)
	}

	draft := conv.Order
	if draft == nil {
		draft = &conversation.OrderScratch{}
	}

	f.send(ctx, userID, messages.OrderConfirmation(current, draft.DeliveryMethod, draft.DeliveryAddress(), draft.Courier))
	return f.conv.SetState(ctx, userID, conversation.StateOrderAwaitingConfirmation)
}

// submitOrder builds the payload from the cart and the draft and posts it.
// A rejected submission keeps cart, draft, and state intact so the user
// can retry; a missing customer identity resets the whole session.
func (f *Flows) submitOrder(ctx context.Context, userID string) error {
	conv, err := f.conv.Get(ctx, userID)
	if err != nil {
		return err
	}

	if conv.Customer == nil || conv.Customer.ID == "" {
		sessionErr := apperrors.NewSessionError("no customer identity at order confirmation")
		f.errHandler.Handle(ctx, sessionErr)
		f.send(ctx, userID, messages.OrderMissingIdentity)
		return f.sessions.Reset(ctx, userID)
	}

	current, err := f.cart.Get(ctx, userID)
	if err != nil {
		userMsg, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, userMsg)
		return nil
	}
	if len(current.Lines) == 0 {
		f.send(ctx, userID, messages.EmptyCartAbort)
		return f.ShowMenu(ctx, userID)
	}

	draft := conv.Order
	if draft == nil {
		draft = &conversation.OrderScratch{}
	}

	req := buildOrderRequest(conv.Customer.ID, current, draft)
	total := current.Totals().Total

	order, err := f.backend.CreateOrder(ctx, req)
	if err != nil {
		metrics.RecordOrder("rejected")
		detail, _ := f.errHandler.Handle(ctx, err)
		f.send(ctx, userID, messages.OrderSubmissionFailed(detail))
		return nil
	}

	metrics.RecordOrder("created")
	f.send(ctx, userID, messages.OrderCreated(order.ID, total))

	if err := f.cart.Clear(ctx, userID); err != nil {
		f.log.Error("failed to clear cart after order", "user_id", userID, "error", err)
	}
	if err := f.conv.ClearScratch(ctx, userID); err != nil {
		f.log.Error("failed to clear draft after order", "user_id", userID, "error", err)
	}
	return f.ShowMenu(ctx, userID)
}

// cancelOrder discards cart and draft and returns to the menu.
func (f *Flows) cancelOrder(ctx context.Context, userID string) error {
	if err := f.cart.Clear(ctx, userID); err != nil {
		f.log.Error("failed to clear cart on cancel", "user_id", userID, "error", err)
	}
	if err := f.conv.ClearScratch(ctx, userID); err != nil {
		f.log.Error("failed to clear draft on cancel", "user_id", userID, "error", err)
	}

	f.send(ctx, userID, messages.OrderCancelled)
	return f.ShowMenu(ctx, userID)
}

func isCancel(text string) bool {
	return nlp.Normalize(text) == "cancelar"
}

func captureMiss(name string, err error) messages.CaptureMiss {
	var stockErr *cart.StockError
	if errors.As(err, &stockErr) {
		if stockErr.InCart > 0 {
			return messages.CaptureMiss{
				Name:   name,
				Reason: fmt.Sprintf("stock disponible: %d, ya tienes %d en tu carrito", stockErr.Available, stockErr.InCart),
			}
		}
		return messages.CaptureMiss{Name: name, Reason: fmt.Sprintf("stock disponible: %d", stockErr.Available)}
	}
	return messages.CaptureMiss{Name: name, Reason: "no disponible en este momento"}
}

func parseCourier(norm string) (domain.Courier, bool) {
	switch {
	case norm == "1" || strings.Contains(norm, "starken"):
		return domain.CourierStarken, true
	case norm == "2" || strings.Contains(norm, "chilexpress"):
		return domain.CourierChilexpress, true
	case norm == "3" || strings.Contains(norm, "blue"):
		return domain.CourierBluexpress, true
	}
	return "", false
}

func buildOrderRequest(customerID string, c *cart.Cart, draft *conversation.OrderScratch) domain.CreateOrderRequest {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, domain.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	req := domain.CreateOrderRequest{
		CustomerID:     customerID,
		Channel:        domain.ChannelWhatsApp,
		PaymentMethod:  domain.PaymentBankTransfer,
		Items:          items,
		ManualDiscount: 0,
	}

	if draft.DeliveryMethod == domain.DeliveryDelivery {
		req.DeliveryAddress = draft.DeliveryAddress()
		req.Courier = draft.Courier
	} else {
		req.DeliveryAddress = messages.PickupAddress
	}
	return req
}
