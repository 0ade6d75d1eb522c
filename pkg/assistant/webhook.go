package assistant

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

	"github.com/teslashibe/go-folio/internal/httpc"
)

// maxBody caps how much of a webhook response is read.
const maxBody = 1 << 20

// replyFields are the response keys checked for reply text, in order.
var replyFields = []string{"response", "text", "output", "reply"}

// Webhook implements Client for an external automation webhook.
type Webhook struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

// NewWebhook creates a webhook client.
func NewWebhook(opts ...Option) (*Webhook, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWebhookTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpc.Client
	}

	return &Webhook{
		config: cfg,
		client: client,
		logger: cfg.Logger.With("component", "assistant.webhook"),
	}, nil
}

// Name implements Named.
func (w *Webhook) Name() string {
	if w.config.Label != "" {
		return w.config.Label
	}
	return "webhook"
}

// Reply posts the request to the webhook and extracts the reply text.
func (w *Webhook) Reply(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}
	if req.History == nil {
		req.History = []Turn{}
	}

	headers := make(map[string]string, len(w.config.Headers)+1)
	for k, v := range w.config.Headers {
		headers[k] = v
	}
	if w.config.Token != "" {
		headers["Authorization"] = "Bearer " + w.config.Token
	}

	resp, err := httpc.PostJSON(ctx, w.client, w.config.URL, headers, req)
	if err != nil {
		return "", fmt.Errorf("assistant: webhook request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("assistant: read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewAPIError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	reply, err := ParseReply(body)
	if err != nil {
		return "", err
	}

	w.logger.Debug("webhook reply",
		"session", req.SessionID,
		"chars", len(reply),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// ParseReply extracts reply text from a webhook response body. Objects are
// checked for the response, text, output and reply keys; an array is
// unwrapped to its first element.
func ParseReply(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", ErrEmptyReply
	}

	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return "", fmt.Errorf("assistant: decode webhook response: %w", err)
		}
		if len(items) == 0 {
			return "", ErrEmptyReply
		}
		return ParseReply(items[0])
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", fmt.Errorf("assistant: decode webhook response: %w", err)
	}

	for _, key := range replyFields {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return "", ErrEmptyReply
}

// Verify Webhook implements Client at compile time.
var _ Client = (*Webhook)(nil)
