package service

import (
	"errors"
	"fmt"

	"github.com/okian/leadgate/internal/domain/ratelimit"
)

// Sentinel errors returned by the admission pipeline.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrRateLimited    = errors.New("rate limited")
	ErrEmailThrottled = errors.New("email submission limit reached")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrCompletion     = errors.New("completion failed")
	ErrStopped        = errors.New("service stopped")
)

// ValidationError carries a message safe to show the visitor.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// RateLimitError reports a denied admission check.
type RateLimitError struct {
	Endpoint string
	Decision ratelimit.Decision
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry in %ds", e.Endpoint, e.Decision.ResetInSeconds)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ThrottledError reports an email that used up its daily submissions.
type ThrottledError struct {
	Email    string
	Decision ratelimit.Decision
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("email %s throttled", e.Email)
}

func (e *ThrottledError) Unwrap() error { return ErrEmailThrottled }

// DuplicateError reports a lead whose email is already on file.
type DuplicateError struct {
	Email string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("email %s already registered", e.Email)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateEmail }
