package conversation

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-folio/internal/config"
)

// Fallback replies appended when the assistant cannot answer.
const (
	FallbackError = "Sorry, I encountered an error. Please try again."
	FallbackEmpty = "Sorry, I could not process that."
)

// Config holds configuration for a conversation controller.
type Config struct {
	// SessionID identifies the session to the assistant.
	// Generated once per controller when empty.
	SessionID string

	// SettleDelay is the pause after playback before listening resumes.
	SettleDelay time.Duration

	// TurnTimeout bounds a single assistant round trip.
	TurnTimeout time.Duration

	// Continuous re-enters listening after each voice turn.
	Continuous bool

	// AudioEnabled is the initial audio toggle.
	AudioEnabled bool

	// ChatVisible is the initial chat panel toggle.
	ChatVisible bool

	// FallbackReply is used when the assistant fails.
	FallbackReply string

	// EmptyReply is used when the assistant returns no text.
	EmptyReply string

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SettleDelay:   2 * time.Second,
		TurnTimeout:   20 * time.Second,
		Continuous:    true,
		AudioEnabled:  true,
		ChatVisible:   true,
		FallbackReply: FallbackError,
		EmptyReply:    FallbackEmpty,
		Logger:        slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option is a functional option for configuring the controller.
type Option func(*Config)

// WithSessionID sets the session identifier.
func WithSessionID(id string) Option {
	return func(c *Config) {
		c.SessionID = id
	}
}

// WithSettleDelay sets the post-playback settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		c.SettleDelay = d
	}
}

// WithTurnTimeout sets the assistant round-trip timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.TurnTimeout = d
	}
}

// WithContinuous enables or disables continuous voice mode.
func WithContinuous(on bool) Option {
	return func(c *Config) {
		c.Continuous = on
	}
}

// WithAudio sets the initial audio toggle.
func WithAudio(on bool) Option {
	return func(c *Config) {
		c.AudioEnabled = on
	}
}

// WithFallbackReply sets the reply used on assistant failure.
func WithFallbackReply(text string) Option {
	return func(c *Config) {
		c.FallbackReply = text
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChatConfig applies the chat section of the application config.
func WithChatConfig(cc config.ChatConfig) Option {
	return func(c *Config) {
		c.SettleDelay = cc.SettleDelay
		c.TurnTimeout = cc.TurnTimeout
		c.Continuous = cc.Continuous
	}
}
