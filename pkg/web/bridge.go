package web

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-folio/pkg/protocol"
	"github.com/teslashibe/go-folio/pkg/speech"
)

// Bridge relays speech capability calls to a connected browser. It
// implements speech.Recognizer and speech.Synthesizer; the browser reports
// results back as recognition and synthesis messages.
type Bridge struct {
	send func([]byte) error

	mu     sync.RWMutex
	voices []speech.Voice
}

var (
	_ speech.Recognizer  = (*Bridge)(nil)
	_ speech.Synthesizer = (*Bridge)(nil)
)

// NewBridge creates a bridge writing frames with send. A send error is
// returned from the capability call that produced the frame.
func NewBridge(send func([]byte) error) *Bridge {
	return &Bridge{send: send}
}

func (b *Bridge) write(msg *protocol.Message, err error) error {
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := b.send(data); err != nil {
		return fmt.Errorf("bridge: send %s: %w", msg.Type, err)
	}
	return nil
}

// Start asks the browser to begin recognition.
func (b *Bridge) Start() error {
	return b.write(protocol.NewListenMessage(true))
}

// Stop asks the browser to end recognition.
func (b *Bridge) Stop() error {
	return b.write(protocol.NewListenMessage(false))
}

// Speak asks the browser to play u.
func (b *Bridge) Speak(u speech.Utterance) error {
	return b.write(protocol.NewSpeakMessage(u))
}

// Cancel asks the browser to stop all playback.
func (b *Bridge) Cancel() error {
	return b.write(protocol.NewCancelSpeechMessage())
}

// Voices returns the voices the browser last reported.
func (b *Bridge) Voices() []speech.Voice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]speech.Voice(nil), b.voices...)
}

// SetVoices records the browser's voice list.
func (b *Bridge) SetVoices(voices []speech.Voice) {
	b.mu.Lock()
	b.voices = append([]speech.Voice(nil), voices...)
	b.mu.Unlock()
}
