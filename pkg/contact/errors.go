package contact

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the contact package.
var (
	// ErrSpam indicates the honeypot field was filled in.
	ErrSpam = errors.New("contact: invalid request")

	// ErrExpired indicates the client timestamp is too far from now.
	ErrExpired = errors.New("contact: request expired")

	// ErrMissingAPIKey indicates the mail provider key is not configured.
	ErrMissingAPIKey = errors.New("contact: mail provider API key is required")

	// ErrNoRecipient indicates no destination address is configured.
	ErrNoRecipient = errors.New("contact: recipient is required")
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationError lists every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return "contact: invalid form data: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// ProviderError is returned when the mail provider rejects a message.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("contact: mail provider error (status %d): %s", e.StatusCode, e.Message)
}

// IsRejected reports whether err was caused by the submission itself
// rather than the mail provider.
func IsRejected(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrSpam) || errors.Is(err, ErrExpired)
}
