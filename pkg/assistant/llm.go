package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/teslashibe/go-folio/internal/httpc"
	"github.com/teslashibe/go-folio/pkg/knowledge"
)

// OpenAI-compatible endpoints and models.
const (
	GroqBaseURL     = "https://api.groq.com/openai/v1"
	GroqModel       = "llama3-8b-8192"
	TogetherBaseURL = "https://api.together.xyz/v1"
	TogetherModel   = "meta-llama/Llama-3-8b-chat-hf"
	OllamaBaseURL   = "http://localhost:11434/v1"
	OllamaModel     = "llama3"
)

// Groq returns options for the Groq Cloud backend.
func Groq(apiKey string) []Option {
	return []Option{
		WithAPIKey(apiKey),
		WithBaseURL(GroqBaseURL),
		WithModel(GroqModel),
		WithLabel("Llama 3 (Groq)"),
	}
}

// Together returns options for the Together AI backend.
func Together(apiKey string) []Option {
	return []Option{
		WithAPIKey(apiKey),
		WithBaseURL(TogetherBaseURL),
		WithModel(TogetherModel),
		WithLabel("Llama 3 (Together)"),
	}
}

// Ollama returns options for a local Ollama server. An empty baseURL uses
// the default local endpoint.
func Ollama(baseURL string) []Option {
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	return []Option{
		// Ollama ignores the key but the client requires one.
		WithAPIKey("ollama"),
		WithBaseURL(baseURL),
		WithModel(OllamaModel),
		WithLabel("Llama 3 (Local)"),
	}
}

// LLM implements Client against an OpenAI-compatible chat-completions API,
// grounded with the knowledge base persona prompt.
type LLM struct {
	config *Config
	api    *openai.Client
	prompt string
	logger *slog.Logger
}

// NewLLM creates an LLM backend.
func NewLLM(kb *knowledge.Base, opts ...Option) (*LLM, error) {
	cfg := DefaultConfig()
	cfg.Timeout = DefaultLLMTimeout
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = GroqModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if kb == nil {
		kb = knowledge.Default()
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		apiCfg.HTTPClient = cfg.HTTPClient
	} else {
		apiCfg.HTTPClient = httpc.Client
	}

	return &LLM{
		config: cfg,
		api:    openai.NewClientWithConfig(apiCfg),
		prompt: kb.SystemPrompt(),
		logger: cfg.Logger.With("component", "assistant.llm", "model", cfg.Model),
	}, nil
}

// Name implements Named.
func (l *LLM) Name() string {
	if l.config.Label != "" {
		return l.config.Label
	}
	return l.config.Model
}

// Reply asks the model for a reply to req.
func (l *LLM) Reply(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	resp, err := l.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.config.Model,
		Messages:    l.messages(req),
		Temperature: l.config.Temperature,
		MaxTokens:   l.config.MaxTokens,
	})
	if err != nil {
		return "", l.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyReply
	}

	l.logger.Debug("completion",
		"chars", len(reply),
		"tokens", resp.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

func (l *LLM) messages(req Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: l.prompt,
	})
	for _, t := range req.History {
		switch t.Role {
		case RoleUser:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: t.Content})
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: t.Content})
		}
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Message,
	})
}

func (l *LLM) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewAPIError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewAPIError(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return fmt.Errorf("assistant: %s: %w", l.Name(), err)
}

// Verify LLM implements Client at compile time.
var _ Client = (*LLM)(nil)
