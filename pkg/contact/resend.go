package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/teslashibe/go-folio/internal/httpc"
)

// ResendBaseURL is the Resend API endpoint.
const ResendBaseURL = "https://api.resend.com"

// Mailer delivers an email and returns the provider message ID.
type Mailer interface {
	Send(ctx context.Context, email Email) (string, error)
}

// Resend sends email through the Resend HTTP API.
type Resend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// ResendOption configures a Resend mailer.
type ResendOption func(*Resend)

// WithResendBaseURL overrides the API endpoint.
func WithResendBaseURL(url string) ResendOption {
	return func(r *Resend) {
		r.baseURL = strings.TrimRight(url, "/")
	}
}

// WithResendClient sets the HTTP client.
func WithResendClient(c *http.Client) ResendOption {
	return func(r *Resend) {
		r.client = c
	}
}

// NewResend creates a Resend mailer.
func NewResend(apiKey string, opts ...ResendOption) (*Resend, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	r := &Resend{
		apiKey:  apiKey,
		baseURL: ResendBaseURL,
		client:  httpc.Client,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Name    string `json:"name"`
}

// Send implements Mailer.
func (r *Resend) Send(ctx context.Context, email Email) (string, error) {
	resp, err := httpc.PostJSON(ctx, r.client, r.baseURL+"/emails",
		map[string]string{"Authorization": "Bearer " + r.apiKey}, email)
	if err != nil {
		return "", fmt.Errorf("contact: send email: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("contact: read response: %w", err)
	}

	var out resendResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: msg}
	}
	return out.ID, nil
}

var _ Mailer = (*Resend)(nil)
