package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
)

// Email throttle defaults.
const (
	EmailNamespace    = "email_submission"
	EmailWindow       = 24 * time.Hour
	DefaultEmailDaily = 3
)

// EmailThrottle limits lead submissions per normalized email address. It
// shares the limiter's backends but never its keys.
type EmailThrottle struct {
	limiter *Limiter
}

// NewEmailThrottle builds a throttle over l.
func NewEmailThrottle(l *Limiter) *EmailThrottle {
	return &EmailThrottle{limiter: l}
}

// Check consumes one submission for email. A non-positive maxPerDay means
// DefaultEmailDaily.
func (t *EmailThrottle) Check(ctx context.Context, email string, maxPerDay int) (Decision, error) {
	if maxPerDay <= 0 {
		maxPerDay = DefaultEmailDaily
	}
	key := counter.Key{Namespace: EmailNamespace, ID: "email:" + NormalizeEmail(email)}
	return t.limiter.check(ctx, key, maxPerDay, EmailWindow)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
