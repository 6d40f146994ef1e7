package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frutalia/ventabot/internal/bot/handlers"
	"github.com/frutalia/ventabot/internal/bot/messages"
	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/conversation"
	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
	"github.com/frutalia/ventabot/internal/nlp"
	"github.com/frutalia/ventabot/internal/session"
)

const testUser = "+56911111111"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBackend struct {
	products  map[string][]domain.Product
	customers map[string]*domain.Customer
}

func (f *fakeBackend) SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	results := f.products[term]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeBackend) ValidateCustomer(ctx context.Context, phone string) (*domain.Customer, error) {
	return f.customers[phone], nil
}

func (f *fakeBackend) RegisterCustomer(ctx context.Context, phone, fullName string) (*domain.Customer, error) {
	return &domain.Customer{ID: "c-" + phone, Name: fullName, Phone: phone}, nil
}

func (f *fakeBackend) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	return &domain.Order{ID: "ORD-1", CustomerID: req.CustomerID, Status: "pending"}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) Send(ctx context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

func (s *recordingSender) all() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.sent, "\n")
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

type routerFixture struct {
	router       *Router
	conv         *conversation.Service
	cart         *cart.Service
	sessions     *session.Manager
	sessionStore session.Store
	backend      *fakeBackend
	sender       *recordingSender
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	log := testLogger()
	convSvc := conversation.NewService(conversation.NewMemoryStorage(), log)
	cartSvc := cart.NewService(cart.NewMemoryStore(), nil, log)
	sessionStore := session.NewMemoryStore()
	sessions := session.NewManager(sessionStore, convSvc, cartSvc, log)
	cartSvc.SetSessionChecker(sessions)

	backend := &fakeBackend{
		products:  map[string][]domain.Product{},
		customers: map[string]*domain.Customer{},
	}
	sender := &recordingSender{}
	extractor := nlp.NewFailoverExtractor(nil, nlp.NewKeywordExtractor(), log)
	errHandler := apperrors.NewHandler(log, false)

	flows := handlers.NewFlows(sessions, convSvc, cartSvc, backend, extractor, sender, errHandler, log)
	dispatcher := NewDispatcher(flows, log)
	router := NewRouter(sessions, convSvc, cartSvc, flows, dispatcher, sender, errHandler, log)

	return &routerFixture{
		router:       router,
		conv:         convSvc,
		cart:         cartSvc,
		sessions:     sessions,
		sessionStore: sessionStore,
		backend:      backend,
		sender:       sender,
	}
}

// startSession puts the user in the given state with a live session, as if
// mid-conversation.
func (f *routerFixture) startSession(t *testing.T, state conversation.State) {
	t.Helper()
	ctx := context.Background()
	_, err := f.sessions.Touch(ctx, testUser)
	require.NoError(t, err)
	require.NoError(t, f.conv.SetState(ctx, testUser, state))
}

func (f *routerFixture) state(t *testing.T) conversation.State {
	t.Helper()
	return f.conv.State(context.Background(), testUser)
}

func TestRouter_NewUserGetsWelcome(t *testing.T) {
	f := newRouterFixture(t)

	f.router.HandleInbound(context.Background(), testUser, "hola")

	assert.True(t, f.sessions.Exists(context.Background(), testUser))
	assert.Equal(t, conversation.StateAwaitingName, f.state(t))
	assert.Contains(t, f.sender.last(), "Bienvenido")
}

func TestRouter_IgnoresEmptyMessage(t *testing.T) {
	f := newRouterFixture(t)

	f.router.HandleInbound(context.Background(), testUser, "   ")

	assert.False(t, f.sessions.Exists(context.Background(), testUser))
	assert.Empty(t, f.sender.all())
}

func TestRouter_FarewellMidOrderResetsEverything(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	f.startSession(t, conversation.StateOrderAwaitingAddress)
	_, _, err := f.cart.Add(ctx, testUser, domain.Product{ID: "p1", Name: "Almendras", UnitPrice: 1000, Stock: 10}, 2)
	require.NoError(t, err)

	f.router.HandleInbound(ctx, testUser, "gracias, eso era")

	assert.Equal(t, messages.Farewell, f.sender.last())
	assert.False(t, f.sessions.Exists(ctx, testUser))
	assert.False(t, f.cart.HasItems(ctx, testUser))
	assert.Equal(t, conversation.StateInitial, f.state(t))
}

func TestRouter_ExpiredSessionRestartsWithNotice(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessionStore.Save(ctx, &session.Session{
		UserID:         testUser,
		CreatedAt:      time.Now().Add(-time.Hour),
		LastActivityAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, f.conv.SetState(ctx, testUser, conversation.StateMenu))
	_, _, err := f.cart.Add(ctx, testUser, domain.Product{ID: "p1", Name: "Almendras", UnitPrice: 1000, Stock: 10}, 2)
	require.NoError(t, err)

	f.router.HandleInbound(ctx, testUser, "hola")

	assert.Contains(t, f.sender.all(), "sesión expiró")
	assert.Contains(t, f.sender.all(), "descartados")
	// the same message then starts a fresh conversation
	assert.Contains(t, f.sender.all(), "Bienvenido")
	assert.True(t, f.sessions.Exists(ctx, testUser))
	assert.False(t, f.cart.HasItems(ctx, testUser))
}

func TestRouter_BareDigitDispatchesToStateHandler(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateMenu)

	f.router.HandleInbound(context.Background(), testUser, "1")

	assert.Equal(t, conversation.StateSearchAwaitingQuery, f.state(t))
}

func TestRouter_MenuShortcutFromOrderFlow(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateOrderAwaitingAddress)

	f.router.HandleInbound(context.Background(), testUser, "menú")

	assert.Equal(t, conversation.StateMenu, f.state(t))
	assert.Contains(t, f.sender.last(), messages.MenuHeader)
}

func TestRouter_OrderKeywordShortcut(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateMenu)

	f.router.HandleInbound(context.Background(), testUser, "quiero hacer un pedido")

	assert.Equal(t, conversation.StateOrderAwaitingProductList, f.state(t))
}

func TestRouter_OrderKeywordIgnoredInsideOrderFlow(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateOrderAwaitingCity)

	// "pedido" inside the flow is handler input, not a restart
	f.router.HandleInbound(context.Background(), testUser, "Ciudad del Pedido")

	assert.Equal(t, conversation.StateOrderAwaitingDistrict, f.state(t))
}

func TestRouter_ConfirmationNotHijackedByOrderKeyword(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	f.startSession(t, conversation.StateOrderAwaitingConfirmation)
	require.NoError(t, f.conv.SetCustomer(ctx, testUser, &domain.Customer{ID: "c1", Name: "Ana Pérez"}))
	_, _, err := f.cart.Add(ctx, testUser, domain.Product{ID: "p1", Name: "Almendras", UnitPrice: 1000, Stock: 10}, 2)
	require.NoError(t, err)

	f.router.HandleInbound(ctx, testUser, "confirmar pedido")

	assert.Contains(t, f.sender.all(), "ORD-1")
	assert.Equal(t, conversation.StateMenu, f.state(t))
}

func TestRouter_AutoReply(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateFAQ)

	f.router.HandleInbound(context.Background(), testUser, "¿cuál es su horario?")

	assert.Contains(t, f.sender.last(), "lunes a viernes")
	assert.Equal(t, conversation.StateFAQ, f.state(t))
}

func TestRouter_GreetingOnlyRestartsWhenIdle(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()
	f.backend.customers[testUser] = &domain.Customer{ID: "c1", Name: "Ana Pérez", Phone: testUser}

	f.startSession(t, conversation.StateFAQ)
	f.router.HandleInbound(ctx, testUser, "hola de nuevo")
	assert.Contains(t, f.sender.last(), messages.MenuBody)
	assert.Equal(t, conversation.StateMenu, f.state(t))

	// mid-search the greeting is just input for the state handler
	require.NoError(t, f.conv.SetState(ctx, testUser, conversation.StateSearchAwaitingQuery))
	f.router.HandleInbound(ctx, testUser, "hola")
	assert.Equal(t, conversation.StateSearchAwaitingQuery, f.state(t))
}

func TestRouter_NegativeSentimentRedirects(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateFAQ)

	f.router.HandleInbound(context.Background(), testUser, "pésimo servicio")

	assert.Contains(t, f.sender.all(), messages.EmpatheticRedirect)
	assert.Equal(t, conversation.StateMenu, f.state(t))
}

func TestRouter_ProductQuestionTriggersQuickLookup(t *testing.T) {
	f := newRouterFixture(t)
	f.backend.products["nueces"] = []domain.Product{
		{ID: "p9", Name: "Nueces mariposa", UnitPrice: 9000, Stock: 7},
	}
	f.startSession(t, conversation.StateOrdersMenu)

	f.router.HandleInbound(context.Background(), testUser, "¿tienen nueces?")

	assert.Equal(t, conversation.StateSearchShowingDetails, f.state(t))
	assert.Contains(t, f.sender.last(), "Nueces mariposa")
}

func TestRouter_FAQTopicAnswered(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateFAQ)

	f.router.HandleInbound(context.Background(), testUser, "cuánto demora el despacho?")

	assert.Contains(t, f.sender.last(), messages.FAQAnswer("despacho"))
	assert.Equal(t, conversation.StateFAQ, f.state(t))
}

func TestRouter_CartKeywordShowsCart(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateMenu)

	f.router.HandleInbound(context.Background(), testUser, "muéstrame mi carrito")

	assert.Equal(t, messages.CartEmpty, f.sender.last())
}

func TestRouter_MessagesFromOneUserAreSerialized(t *testing.T) {
	f := newRouterFixture(t)
	f.startSession(t, conversation.StateMenu)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.router.HandleInbound(context.Background(), testUser, "4")
		}()
	}
	wg.Wait()

	assert.Equal(t, conversation.StateOrdersMenu, f.state(t))
}
