package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-folio/internal/config"
	"github.com/teslashibe/go-folio/pkg/knowledge"
)

// Service answers assistant HTTP requests.
type Service struct {
	backend Client
	logger  *slog.Logger
}

// NewService creates a service over backend.
func NewService(backend Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: backend,
		logger:  logger.With("component", "assistant.service"),
	}
}

// Answer produces a reply and the name of the backend that wrote it.
func (s *Service) Answer(ctx context.Context, req Request) (Answer, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return Answer{}, ErrEmptyMessage
	}

	if chain, ok := s.backend.(*Chain); ok {
		reply, name, err := chain.ReplyNamed(ctx, req)
		if err != nil {
			return Answer{}, err
		}
		return Answer{Response: reply, Model: name}, nil
	}

	reply, err := s.backend.Reply(ctx, req)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Response: reply, Model: nameOf(s.backend)}, nil
}

// NewBackendChain builds the server-side responder chain from config:
// Groq, Together and Ollama when configured, always ending with the
// rule-based responder.
func NewBackendChain(cfg config.AssistantConfig, kb *knowledge.Base, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var backends []Client

	add := func(opts []Option) {
		llm, err := NewLLM(kb, append(opts, WithLogger(logger))...)
		if err != nil {
			logger.Warn("skipping LLM backend", "error", err)
			return
		}
		backends = append(backends, llm)
	}

	if cfg.GroqKey != "" {
		add(Groq(cfg.GroqKey))
	}
	if cfg.TogetherKey != "" {
		add(Together(cfg.TogetherKey))
	}
	if cfg.UseOllama {
		add(Ollama(cfg.OllamaURL))
	}
	backends = append(backends, NewRuleBased(kb))

	return NewChainWithLogger(logger, backends...)
}

// NewGateway builds the client the chat controller calls. With a webhook
// URL set, the webhook answers first and local takes over when it fails.
// Without one it is local alone.
func NewGateway(cfg config.AssistantConfig, local Client, logger *slog.Logger) (Client, error) {
	if cfg.WebhookURL == "" {
		return local, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	webhook, err := NewWebhook(
		WithURL(cfg.WebhookURL),
		WithToken(cfg.WebhookToken),
		WithTimeout(cfg.WebhookTimeout),
		WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if local == nil {
		return webhook, nil
	}
	return NewChainWithLogger(logger, webhook, local)
}
