package protocol

import (
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewCommandMessage creates a command message
func NewCommandMessage(cmd widget.Command) (*Message, error) {
	return NewMessage(TypeCommand, cmd)
}

// NewRecognitionMessage creates a recognition event message
func NewRecognitionMessage(ev speech.RecognitionEvent) (*Message, error) {
	return NewMessage(TypeRecognition, ev)
}

// NewSynthesisMessage creates a synthesis event message
func NewSynthesisMessage(ev speech.SynthesisEvent) (*Message, error) {
	return NewMessage(TypeSynthesis, ev)
}

// NewVoicesMessage creates a capabilities message
func NewVoicesMessage(recognition, synthesis bool, voices []speech.Voice) (*Message, error) {
	return NewMessage(TypeVoices, VoicesData{
		Recognition: recognition,
		Synthesis:   synthesis,
		Voices:      voices,
	})
}

// NewViewMessage creates a view push
func NewViewMessage(v widget.View) (*Message, error) {
	return NewMessage(TypeView, v)
}

// NewListenMessage creates a listen instruction
func NewListenMessage(active bool) (*Message, error) {
	return NewMessage(TypeListen, ListenData{Active: active})
}

// NewSpeakMessage creates a speak instruction
func NewSpeakMessage(u speech.Utterance) (*Message, error) {
	return NewMessage(TypeSpeak, u)
}

// NewCancelSpeechMessage creates a cancel instruction
func NewCancelSpeechMessage() (*Message, error) {
	return NewMessage(TypeCancelSpeech, nil)
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetCommand extracts a command from a message
func (m *Message) GetCommand() (*CommandData, error) {
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRecognition extracts a recognition event from a message
func (m *Message) GetRecognition() (*RecognitionData, error) {
	var data RecognitionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSynthesis extracts a synthesis event from a message
func (m *Message) GetSynthesis() (*SynthesisData, error) {
	var data SynthesisData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetVoices extracts capabilities from a message
func (m *Message) GetVoices() (*VoicesData, error) {
	var data VoicesData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetView extracts a view from a message
func (m *Message) GetView() (*ViewData, error) {
	var data ViewData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetListen extracts a listen instruction from a message
func (m *Message) GetListen() (*ListenData, error) {
	var data ListenData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSpeak extracts an utterance from a message
func (m *Message) GetSpeak() (*SpeakData, error) {
	var data SpeakData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetError extracts error details from a message
func (m *Message) GetError() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
