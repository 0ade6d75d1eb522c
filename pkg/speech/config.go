package speech

import (
	"log/slog"
	"time"
)

// DefaultSpeakDelay separates a cancel from the following speak so the
// platform does not drop the new utterance.
const DefaultSpeakDelay = 100 * time.Millisecond

// Config holds configuration for the speech adapter.
type Config struct {
	// SpeakDelay is the pause between cancelling playback and speaking.
	SpeakDelay time.Duration

	// Rate is the utterance speaking rate (1.0 = normal).
	Rate float64

	// Pitch is the utterance pitch (1.0 = normal).
	Pitch float64

	// Volume is the utterance volume (0.0-1.0).
	Volume float64

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SpeakDelay: DefaultSpeakDelay,
		Rate:       1.0,
		Pitch:      1.0,
		Volume:     1.0,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option is a functional option for configuring the adapter.
type Option func(*Config)

// WithSpeakDelay sets the cancel-to-speak delay.
func WithSpeakDelay(d time.Duration) Option {
	return func(c *Config) {
		c.SpeakDelay = d
	}
}

// WithRate sets the speaking rate.
func WithRate(rate float64) Option {
	return func(c *Config) {
		c.Rate = rate
	}
}

// WithPitch sets the speaking pitch.
func WithPitch(pitch float64) Option {
	return func(c *Config) {
		c.Pitch = pitch
	}
}

// WithVolume sets the speaking volume.
func WithVolume(volume float64) Option {
	return func(c *Config) {
		c.Volume = volume
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
