package assistant

import (
	"log/slog"
	"net/http"
	"time"
)

// Default values.
const (
	DefaultWebhookTimeout = 15 * time.Second
	DefaultLLMTimeout     = 30 * time.Second
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 500
)

// Config holds configuration for assistant backends.
type Config struct {
	// URL is the webhook endpoint.
	URL string

	// Token is sent as a bearer token when set.
	Token string

	// Headers are extra request headers.
	Headers map[string]string

	// APIKey authenticates LLM requests.
	APIKey string

	// BaseURL is the OpenAI-compatible API root.
	BaseURL string

	// Model is the LLM model name.
	Model string

	// Label is the display name reported for the backend.
	Label string

	// Temperature controls response randomness.
	Temperature float32

	// MaxTokens limits response length.
	MaxTokens int

	// Timeout bounds a single request.
	Timeout time.Duration

	// HTTPClient overrides the shared client.
	HTTPClient *http.Client

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultWebhookTimeout,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option is a functional option for configuring backends.
type Option func(*Config)

// WithURL sets the webhook URL.
func WithURL(url string) Option {
	return func(c *Config) {
		c.URL = url
	}
}

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Config) {
		c.Token = token
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		c.Headers[key] = value
	}
}

// WithAPIKey sets the LLM API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the LLM API root.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the LLM model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithLabel sets the backend display name.
func WithLabel(label string) Option {
	return func(c *Config) {
		c.Label = label
	}
}

// WithTemperature sets the response temperature.
func WithTemperature(temp float32) Option {
	return func(c *Config) {
		c.Temperature = temp
	}
}

// WithMaxTokens sets the maximum response tokens.
func WithMaxTokens(tokens int) Option {
	return func(c *Config) {
		c.MaxTokens = tokens
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
