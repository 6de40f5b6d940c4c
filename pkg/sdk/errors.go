package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the API's error codes. Check with errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation failed")
	ErrEmbeddingProvider  = errors.New("embedding provider error")
	ErrCompletionProvider = errors.New("completion provider error")
	ErrDriveProvider      = errors.New("drive provider error")
	ErrIndexUnavailable   = errors.New("embedding index unavailable")
	ErrProviderTimeout    = errors.New("provider timeout")
)

var codeSentinels = map[string]error{
	"unauthorized":              ErrUnauthorized,
	"bad_request":               ErrValidation,
	"validation_failed":         ErrValidation,
	"embedding_provider_error":  ErrEmbeddingProvider,
	"completion_provider_error": ErrCompletionProvider,
	"drive_provider_error":      ErrDriveProvider,
	"index_unavailable":         ErrIndexUnavailable,
	"provider_timeout":          ErrProviderTimeout,
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("docdex api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap maps the wire code onto the matching sentinel so errors.Is works.
func (e *APIError) Unwrap() error {
	return codeSentinels[e.Code]
}
