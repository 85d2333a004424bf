package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("completion client not configured")
	// ErrEmptyResponse is returned when the provider sends no choices.
	ErrEmptyResponse = errors.New("empty response choices")
)

// ProviderError is a non-2xx answer from the completion endpoint.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("completion provider returned %d: %s", e.StatusCode, e.Message)
}
