package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the assistant package.
var (
	// ErrEmptyReply indicates the backend answered without any reply text.
	ErrEmptyReply = errors.New("assistant: empty reply")

	// ErrMissingURL indicates the webhook URL was not provided.
	ErrMissingURL = errors.New("assistant: webhook URL is required")

	// ErrMissingAPIKey indicates an LLM backend has no API key.
	ErrMissingAPIKey = errors.New("assistant: API key is required")

	// ErrNoBackends indicates a chain was built without backends.
	ErrNoBackends = errors.New("assistant: no backends configured")

	// ErrEmptyMessage indicates the request carried no user text.
	ErrEmptyMessage = errors.New("assistant: message is required")
)

// APIError represents a non-success HTTP response from a backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the response body or error description.
	Message string

	// Retryable indicates if the request can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant: API error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("assistant: API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error can be retried.
func (e *APIError) IsRetryable() bool {
	return e.Retryable
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Retryable:  statusCode == http.StatusTooManyRequests || statusCode >= 500,
	}
}

// IsRetryable returns true if the error is transient.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsEmptyReply returns true if the backend produced no reply text.
func IsEmptyReply(err error) bool {
	return errors.Is(err, ErrEmptyReply)
}

// ChainError aggregates errors from all backends in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "assistant chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("assistant chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("assistant chain: all %d backends failed, last error: %v", len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap returns the last error in the chain.
func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
