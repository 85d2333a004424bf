// Package probe floods one endpoint from a single synthetic client address
// and checks that the admission limit holds.
package probe

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid probe config")
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrLimitMismatch = errors.New("admitted count does not match limit")
)

// Probe targets.
const (
	EndpointChat   = "chat"
	EndpointLeads  = "leads"
	EndpointEvents = "events"
	EndpointStats  = "stats"
)

// Config holds configuration for one probe run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Endpoint    string        // chat, leads, events or stats
	Requests    int           // Number of requests to fire
	Concurrency int           // Requests in flight at once
	Limit       int           // Expected admissions; zero skips the check
	ClientIP    string        // Sent as X-Forwarded-For
	Timeout     time.Duration // Per-request timeout
	Verbose     bool          // Log every response
}

// Validate checks the probe configuration.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	case c.Requests < 1:
		return fmt.Errorf("%w: requests must be positive", ErrInvalidConfig)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be positive", ErrInvalidConfig)
	case c.Limit < 0:
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	if _, err := target(c.Endpoint); err != nil {
		return err
	}
	return nil
}

// Report summarizes a probe run.
type Report struct {
	Sent     int
	Admitted int
	Denied   int
	Failed   int
	// MaxRetryAfter is the largest Retry-After seen on a denial, in seconds.
	MaxRetryAfter int
	Duration      time.Duration
}
