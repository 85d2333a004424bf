package counter

import "errors"

var (
	// ErrBackendUnavailable wraps every failure of a durable backend.
	ErrBackendUnavailable = errors.New("counter backend unavailable")
	// ErrInvalidWindow is returned for non-positive windows.
	ErrInvalidWindow = errors.New("window must be positive")
)
