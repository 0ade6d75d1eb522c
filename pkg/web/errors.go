package web

import (
	"errors"
	"net/http"

	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// Error codes sent to clients.
const (
	CodeEmptyMessage           = "empty_message"
	CodeTurnInFlight           = "turn_in_flight"
	CodeSpeaking               = "speaking"
	CodeAudioDisabled          = "audio_disabled"
	CodeUnknownVoice           = "unknown_voice"
	CodeRecognitionUnsupported = "recognition_unsupported"
	CodeUnknownAction          = "unknown_action"
	CodeUnknownType            = "unknown_type"
	CodeInvalidMessage         = "invalid_message"
	CodeSessionClosed          = "session_closed"
	CodeSessionNotFound        = "session_not_found"
	CodeInternal               = "internal"
)

// statusFor maps err to an HTTP status and an error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		return http.StatusBadRequest, CodeEmptyMessage
	case errors.Is(err, conversation.ErrTurnInFlight):
		return http.StatusConflict, CodeTurnInFlight
	case errors.Is(err, conversation.ErrSpeaking):
		return http.StatusConflict, CodeSpeaking
	case errors.Is(err, conversation.ErrAudioDisabled):
		return http.StatusConflict, CodeAudioDisabled
	case errors.Is(err, speech.ErrUnknownVoice):
		return http.StatusBadRequest, CodeUnknownVoice
	case errors.Is(err, speech.ErrRecognitionUnsupported):
		return http.StatusConflict, CodeRecognitionUnsupported
	case errors.Is(err, widget.ErrUnknownAction):
		return http.StatusBadRequest, CodeUnknownAction
	case errors.Is(err, conversation.ErrClosed), errors.Is(err, speech.ErrClosed):
		return http.StatusGone, CodeSessionClosed
	}
	return http.StatusInternalServerError, CodeInternal
}
