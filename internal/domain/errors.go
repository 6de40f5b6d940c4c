package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexLoad signals that the embedding index artifact could not be loaded.
	ErrIndexLoad = errors.New("index load failed")
	// ErrIndexUnavailable signals a semantic request against a server that has no loaded index.
	ErrIndexUnavailable = errors.New("embedding index unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrDriveProviderError signals a remote listing provider failure.
	ErrDriveProviderError = errors.New("drive provider error")
	// ErrProviderTimeout signals that a provider call exceeded its time budget.
	// Distinct from provider-reported failures: the provider never answered.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrInvalidFilter signals a filter that can never match (e.g. inverted date range).
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidRequest signals a malformed search request.
	ErrInvalidRequest = errors.New("invalid request")
)

// DriveStatusError wraps ErrDriveProviderError with the provider's HTTP status and message.
type DriveStatusError struct {
	StatusCode int
	Message    string
}

func (e *DriveStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrDriveProviderError.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrDriveProviderError.Error(), e.StatusCode, e.Message)
}

func (e *DriveStatusError) Unwrap() error { return ErrDriveProviderError }

// NewDriveStatusError creates a drive provider error carrying the response status.
func NewDriveStatusError(status int, message string) error {
	return &DriveStatusError{StatusCode: status, Message: message}
}
