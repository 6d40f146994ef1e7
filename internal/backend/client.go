// Package backend wraps the commerce REST API: catalog search, customer
// validation/registration, and order creation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Config carries the client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP client for the commerce backend. Every call is
// bounded by the configured timeout.
type Client struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// NewClient builds a backend client.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type productPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	BulkPrice int64  `json:"bulk_price"`
	Stock     int    `json:"stock"`
}

// SearchProducts queries the catalog. A 404 means "no matches" and is
// normalized to an empty slice, never an error.
func (c *Client) SearchProducts(ctx context.Context, term string, limit int) ([]domain.Product, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", term)
	query.Set("limit", strconv.Itoa(limit))

	var payload []productPayload
	err := apperrors.WithRetry(ctx, func() error {
		return c.getJSON(ctx, "/products/search?"+query.Encode(), &payload)
	})
	if err != nil {
		if isNotFound(err) {
			return []domain.Product{}, nil
		}
		return nil, err
	}

	products := make([]domain.Product, 0, len(payload))
	for _, p := range payload {
		products = append(products, domain.Product{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.UnitPrice,
			BulkPrice: p.BulkPrice,
			Stock:     p.Stock,
		})
	}
	return products, nil
}

type customerPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ValidateCustomer looks a customer up by phone. (nil, nil) means the
// phone is not registered.
func (c *Client) ValidateCustomer(ctx context.Context, phone string) (*domain.Customer, error) {
	var payload customerPayload
	err := apperrors.WithRetry(ctx, func() error {
		return c.getJSON(ctx, "/customers/by-phone/"+url.PathEscape(phone), &payload)
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return &domain.Customer{ID: payload.ID, Name: payload.Name, Phone: payload.Phone}, nil
}

// RegisterCustomer creates a customer record for the phone.
func (c *Client) RegisterCustomer(ctx context.Context, phone, fullName string) (*domain.Customer, error) {
	body := map[string]string{"phone": phone, "name": fullName}

	var payload customerPayload
	if err := c.postJSON(ctx, "/customers", body, &payload); err != nil {
		return nil, err
	}

	return &domain.Customer{ID: payload.ID, Name: payload.Name, Phone: payload.Phone}, nil
}

// CreateOrder submits an order. Non-2xx responses become a domain error
// carrying the backend's human-readable detail. Not retried here: the
// caller's flow lets the user resend "confirmar".
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var payload domain.Order
	if err := c.postJSON(ctx, "/orders", req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return apperrors.NewExternalAPIError("backend", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return apperrors.NewExternalAPIError("backend", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return apperrors.NewExternalAPIError("backend", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewExternalAPIError("backend", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewBackendRejectionError(resp.StatusCode, readDetail(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalAPIError("backend", err)
	}
	return nil
}

// errNotFound is internal plumbing so 404s can be normalized per endpoint.
var errNotFound = fmt.Errorf("backend: not found")

func isNotFound(err error) bool {
	return err == errNotFound
}

// readDetail pulls a human-readable message out of an error response body.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil || len(data) == 0 {
		return ""
	}

	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, candidate := range []string{payload.Detail, payload.Message, payload.Error} {
			if candidate != "" {
				return candidate
			}
		}
	}

	return strings.TrimSpace(string(data))
}
