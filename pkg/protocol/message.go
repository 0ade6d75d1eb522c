// Package protocol defines the WebSocket message types exchanged between the
// chat widget in the browser and the folio server.
//
// The browser owns the microphone and the speaker: it forwards recognition
// and synthesis events to the server and executes listen/speak instructions.
// The server owns the conversation and pushes rendered views back.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Browser → Server messages
	TypeCommand     MessageType = "command"     // User gesture
	TypeRecognition MessageType = "recognition" // Speech recognition event
	TypeSynthesis   MessageType = "synthesis"   // Speech synthesis event
	TypeVoices      MessageType = "voices"      // Capabilities and voice list

	// Server → Browser messages
	TypeView         MessageType = "view"          // Rendered widget view
	TypeListen       MessageType = "listen"        // Start or stop recognition
	TypeSpeak        MessageType = "speak"         // Speak an utterance
	TypeCancelSpeech MessageType = "cancel_speech" // Stop playback
	TypeError        MessageType = "error"         // Request failed

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Browser → Server Message Types
// =============================================================================

// CommandData is a user gesture forwarded to the widget.
type CommandData = widget.Command

// RecognitionData is a recognizer event from the browser.
type RecognitionData = speech.RecognitionEvent

// SynthesisData is a synthesizer event from the browser.
type SynthesisData = speech.SynthesisEvent

// VoicesData announces the browser's speech capabilities.
type VoicesData struct {
	Recognition bool           `json:"recognition"`
	Synthesis   bool           `json:"synthesis"`
	Voices      []speech.Voice `json:"voices"`
}

// =============================================================================
// Server → Browser Message Types
// =============================================================================

// ViewData is the rendered widget.
type ViewData = widget.View

// ListenData starts or stops recognition.
type ListenData struct {
	Active bool `json:"active"`
}

// SpeakData is an utterance to play.
type SpeakData = speech.Utterance

// ErrorData reports a failed command.
type ErrorData struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
