package assistant

import (
	"context"
	"log/slog"
)

// Chain implements Client by trying multiple backends in order.
// The first successful backend wins; if all fail, returns an aggregate error.
type Chain struct {
	backends []Client
	logger   *slog.Logger
}

// NewChain creates a backend chain that tries backends in order.
// At least one backend is required.
func NewChain(backends ...Client) (*Chain, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	return &Chain{
		backends: backends,
		logger:   slog.Default().With("component", "assistant.chain"),
	}, nil
}

// NewChainWithLogger creates a backend chain with a custom logger.
func NewChainWithLogger(logger *slog.Logger, backends ...Client) (*Chain, error) {
	chain, err := NewChain(backends...)
	if err != nil {
		return nil, err
	}
	chain.logger = logger.With("component", "assistant.chain")
	return chain, nil
}

// Reply tries each backend until one succeeds.
func (c *Chain) Reply(ctx context.Context, req Request) (string, error) {
	reply, _, err := c.ReplyNamed(ctx, req)
	return reply, err
}

// ReplyNamed is Reply that also reports which backend answered.
func (c *Chain) ReplyNamed(ctx context.Context, req Request) (string, string, error) {
	var errs []error

	for i, b := range c.backends {
		reply, err := b.Reply(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback backend succeeded",
					"backend", nameOf(b),
					"backend_index", i,
				)
			}
			return reply, nameOf(b), nil
		}

		errs = append(errs, err)
		c.logger.Warn("backend failed, trying next",
			"backend", nameOf(b),
			"backend_index", i,
			"error", err,
		)

		// Check if context was cancelled
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}
	}

	return "", "", &ChainError{Errors: errs}
}

// Backends returns the backends in the chain.
func (c *Chain) Backends() []Client {
	return c.backends
}

// Name implements Named with the first backend's name.
func (c *Chain) Name() string {
	return nameOf(c.backends[0])
}

// Verify Chain implements Client at compile time.
var _ Client = (*Chain)(nil)
