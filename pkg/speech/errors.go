package speech

import (
	"errors"
	"fmt"
)

// Sentinel errors for the speech package.
var (
	// ErrRecognitionUnsupported indicates no recognizer is available.
	ErrRecognitionUnsupported = errors.New("speech: recognition not supported")

	// ErrSynthesisUnsupported indicates no synthesizer is available.
	ErrSynthesisUnsupported = errors.New("speech: synthesis not supported")

	// ErrAlreadyListening indicates StartListening was called while listening.
	ErrAlreadyListening = errors.New("speech: already listening")

	// ErrAlreadyAttached indicates a capability is already bound to the adapter.
	ErrAlreadyAttached = errors.New("speech: capability already attached")

	// ErrUnknownVoice indicates the requested voice is not available.
	ErrUnknownVoice = errors.New("speech: unknown voice")

	// ErrClosed indicates the adapter has been released.
	ErrClosed = errors.New("speech: adapter closed")
)

// User-facing error messages recorded in State.Err.
const (
	MsgRecognitionUnsupported = "Speech recognition not supported in this browser"
	MsgStartFailed            = "Failed to start listening"
)

// Platform error kinds with benign semantics.
const (
	RecognitionAborted  = "aborted"
	RecognitionNoSpeech = "no-speech"
	SynthesisCanceled   = "canceled"
	SynthesisInterrupt  = "interrupted"
)

// PlatformError wraps an error kind reported by the platform.
type PlatformError struct {
	// Source is "recognition" or "synthesis".
	Source string

	// Kind is the platform error code (e.g. "network", "not-allowed").
	Kind string
}

// Error implements the error interface.
func (e *PlatformError) Error() string {
	return fmt.Sprintf("speech: %s error: %s", e.Source, e.Kind)
}

// IsBenignRecognitionError reports whether a recognizer error kind only
// signals a normal end of listening.
func IsBenignRecognitionError(kind string) bool {
	return kind == RecognitionAborted || kind == RecognitionNoSpeech
}

// IsBenignSynthesisError reports whether a synthesizer error kind comes from
// deliberate cancellation or replacement.
func IsBenignSynthesisError(kind string) bool {
	return kind == SynthesisCanceled || kind == SynthesisInterrupt
}

// recognitionErrorMessage formats the user-visible message for a recognizer error.
func recognitionErrorMessage(kind string) string {
	return "Speech recognition error: " + kind
}
