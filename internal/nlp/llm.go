package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frutalia/ventabot/internal/domain"
	apperrors "github.com/frutalia/ventabot/internal/errors"
)

const (
	defaultLLMTimeout = 10 * time.Second

	termSystemPrompt = `Eres un extractor de productos para una tienda de frutos secos.
Responde SOLO con JSON: {"term": "<producto>"} o {"term": ""} si el mensaje no menciona productos.`

	productsSystemPrompt = `Eres un extractor de productos para una tienda de frutos secos.
Responde SOLO con JSON: {"products": [{"name": "<producto>", "quantity": <entero, minimo 1>}]}.
Usa cantidad 1 cuando no se indique. Lista vacía si no hay productos.`
)

// LLMConfig configures the OpenAI-compatible extraction client.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LLMExtractor calls an OpenAI-compatible chat-completions endpoint to
// pull product mentions out of free text.
type LLMExtractor struct {
	cfg    LLMConfig
	client *http.Client
	log    *slog.Logger
}

// NewLLMExtractor builds the primary extractor with a bounded per-call
// timeout.
func NewLLMExtractor(cfg LLMConfig, log *slog.Logger) *LLMExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultLLMTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &LLMExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractTerm asks the model for the single product term in the message.
func (e *LLMExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	content, err := e.complete(ctx, termSystemPrompt, text)
	if err != nil {
		return "", err
	}

	var out struct {
		Term string `json:"term"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return "", apperrors.NewExternalAPIError("llm", fmt.Errorf("unparseable term response: %w", err))
	}

	return strings.TrimSpace(out.Term), nil
}

// ExtractProducts asks the model for every product/quantity pair.
func (e *LLMExtractor) ExtractProducts(ctx context.Context, text string) ([]domain.Mention, error) {
	content, err := e.complete(ctx, productsSystemPrompt, text)
	if err != nil {
		return nil, err
	}

	var out struct {
		Products []domain.Mention `json:"products"`
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, apperrors.NewExternalAPIError("llm", fmt.Errorf("unparseable products response: %w", err))
	}

	mentions := make([]domain.Mention, 0, len(out.Products))
	for _, m := range out.Products {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			continue
		}
		if m.Quantity < 1 {
			m.Quantity = 1
		}
		mentions = append(mentions, m)
	}

	return mentions, nil
}

func (e *LLMExtractor) complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	payload := chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.NewExternalAPIError("llm", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewExternalAPIError("llm", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", apperrors.NewExternalAPIError("llm", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", apperrors.NewExternalAPIError("llm", fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.NewExternalAPIError("llm", err)
	}
	if len(out.Choices) == 0 {
		return "", apperrors.NewExternalAPIError("llm", fmt.Errorf("empty completion"))
	}

	return extractJSONBlock(out.Choices[0].Message.Content), nil
}

// extractJSONBlock tolerates models that wrap their JSON in code fences or
// prose.
func extractJSONBlock(content string) string {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
