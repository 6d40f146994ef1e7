package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, testLogger())
}

func TestClient_SearchProducts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/search", r.URL.Path)
		assert.Equal(t, "almendras", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "p1", "name": "Almendras", "unit_price": 1000, "bulk_price": 800, "stock": 10},
		})
	}))

	products, err := client.SearchProducts(context.Background(), "almendras", 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, domain.Product{ID: "p1", Name: "Almendras", UnitPrice: 1000, BulkPrice: 800, Stock: 10}, products[0])
}

func TestClient_SearchProductsNotFoundMeansEmpty(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	products, err := client.SearchProducts(context.Background(), "unicornio", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_SearchProductsEmptyTerm(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty term")
	}))

	products, err := client.SearchProducts(context.Background(), "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_ValidateCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/by-phone/+56911111111", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "c1", "name": "Ana Pérez", "phone": "+56911111111",
		})
	}))

	customer, err := client.ValidateCustomer(context.Background(), "+56911111111")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "c1", customer.ID)
	assert.Equal(t, "Ana Pérez", customer.Name)
}

func TestClient_ValidateCustomerUnknownPhone(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	customer, err := client.ValidateCustomer(context.Background(), "+56900000000")
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestClient_RegisterCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ana Pérez", body["name"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "c2", "name": body["name"], "phone": body["phone"],
		})
	}))

	customer, err := client.RegisterCustomer(context.Background(), "+56922222222", "Ana Pérez")
	require.NoError(t, err)
	assert.Equal(t, "c2", customer.ID)
}

func TestClient_CreateOrder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)

		var req domain.CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "whatsapp", req.Channel)
		assert.Equal(t, "transferencia", req.PaymentMethod)
		require.Len(t, req.Items, 1)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "ORD-77", "customer_id": req.CustomerID, "status": "pending",
		})
	}))

	order, err := client.CreateOrder(context.Background(), domain.CreateOrderRequest{
		CustomerID:      "c1",
		DeliveryAddress: "Calle Falsa 123, Providencia, Santiago",
		Channel:         domain.ChannelWhatsApp,
		PaymentMethod:   domain.PaymentBankTransfer,
		Items:           []domain.OrderItem{{ProductID: "p1", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-77", order.ID)
	assert.Equal(t, "pending", order.Status)
}

func TestClient_CreateOrderRejectionCarriesDetail(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "stock insuficiente para Almendras"})
	}))

	_, err := client.CreateOrder(context.Background(), domain.CreateOrderRequest{CustomerID: "c1"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E310", appErr.Code)
	assert.Equal(t, "stock insuficiente para Almendras", appErr.UserMessage)
	assert.False(t, appErr.Retryable)
}
