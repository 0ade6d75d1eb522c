// Package conversation implements the chat turn controller: the message log
// and the state machine that takes one user input (typed or spoken) through
// the remote assistant and back out through speech.
//
// The controller owns its state on a single goroutine. Speech adapter
// callbacks, assistant replies and timers are converted to typed Events and
// applied in arrival order; user commands run on the same goroutine and
// return once applied:
//
//	ctrl, err := conversation.New(gateway, adapter,
//	    conversation.WithSettleDelay(2*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Close()
//
//	ctrl.Subscribe(func(s conversation.Snapshot) {
//	    fmt.Println(s.State, len(s.Messages))
//	})
//
//	if err := ctrl.Submit("What are your skills?"); err != nil {
//	    log.Println(err)
//	}
//
// # States
//
//	Idle          not listening, not speaking, no reply pending
//	Listening     the recognizer is capturing speech
//	AwaitingReply a request to the assistant is in flight
//	Speaking      the reply is being read aloud
//
// At most one request is in flight per session. Every user message is
// paired with exactly one assistant message: the reply, or a fallback
// when the assistant fails or times out.
package conversation

import (
	"time"

	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/speech"
)

// Message roles.
const (
	RoleUser      = assistant.RoleUser
	RoleAssistant = assistant.RoleAssistant
)

// Message is one entry of the conversation log. Messages are never
// modified after they are appended.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the controller's turn state.
type State int

const (
	// StateIdle indicates nothing is happening.
	StateIdle State = iota
	// StateListening indicates speech is being captured.
	StateListening
	// StateAwaitingReply indicates a request is in flight.
	StateAwaitingReply
	// StateSpeaking indicates the reply is being played.
	StateSpeaking
)

// String returns a human-readable state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateAwaitingReply:
		return "awaiting_reply"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is an immutable view of a conversation session.
type Snapshot struct {
	SessionID    string       `json:"sessionId"`
	State        State        `json:"state"`
	Messages     []Message    `json:"messages"`
	AudioEnabled bool         `json:"audioEnabled"`
	ChatVisible  bool         `json:"chatVisible"`
	Continuous   bool         `json:"continuous"`
	Speech       speech.State `json:"speech"`
}

// Speech is the capability set the controller drives. *speech.Adapter
// implements it.
type Speech interface {
	StartListening() error
	StopListening()
	Speak(text string) (uint64, error)
	StopSpeaking()
	SetVoiceByName(name string) error
	ClearError()
	State() speech.State
	OnEvent(fn func(speech.Event))
}

// history converts messages to the assistant request history.
func history(msgs []Message) []assistant.Turn {
	turns := make([]assistant.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = assistant.Turn{Role: m.Role, Content: m.Content}
	}
	return turns
}
