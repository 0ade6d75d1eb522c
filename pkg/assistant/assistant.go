// Package assistant provides the remote assistant gateway and the
// server-side responders it can point at.
//
// Every backend implements Client. The Webhook client talks to an external
// automation workflow (n8n or similar); LLM talks to any OpenAI-compatible
// chat-completions API; RuleBased answers from the knowledge base without a
// network. Chain tries backends in order:
//
//	llm, _ := assistant.NewLLM(kb, assistant.Groq(os.Getenv("GROQ_API_KEY"))...)
//	chain, _ := assistant.NewChain(llm, assistant.NewRuleBased(kb))
//	reply, err := chain.Reply(ctx, assistant.Request{Message: "What are your skills?"})
package assistant

import (
	"context"
	"time"
)

// Roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client produces an assistant reply for one user message.
type Client interface {
	// Reply returns the reply text. Implementations must honor ctx
	// cancellation so a turn cannot hang.
	Reply(ctx context.Context, req Request) (string, error)
}

// Named is implemented by backends that report a display name.
type Named interface {
	Name() string
}

// Turn is one prior message in the history sent with a request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the payload for one assistant call.
type Request struct {
	Message   string    `json:"message"`
	History   []Turn    `json:"conversationHistory"`
	SessionID string    `json:"sessionId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Answer is the response of the assistant HTTP endpoint.
type Answer struct {
	Response string `json:"response"`
	Model    string `json:"model"`
}

// nameOf returns the backend's display name, if it has one.
func nameOf(c Client) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return "unknown"
}
