// Package repository persists leads and widget analytics.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/leadgate/internal/domain/model"
)

// Stats windows.
const (
	statsWeek = 7 * 24 * time.Hour
	statsDay  = 24 * time.Hour
)

// LeadStore provides read/write access to leads.
type LeadStore interface {
	// FindByEmail returns the lead registered under email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (model.Lead, error)
	// Insert stores a new lead and returns it with ID, status and creation
	// time filled in. Returns ErrDuplicate when the email is taken.
	Insert(ctx context.Context, lead model.Lead) (model.Lead, error)
	// UpdateStatus moves a lead through the follow-up workflow.
	UpdateStatus(ctx context.Context, id string, status model.LeadStatus) error
	// Stats summarizes non-archived leads relative to now.
	Stats(ctx context.Context, now time.Time) (model.LeadStats, error)
}

// EventStore records widget analytics.
type EventStore interface {
	RecordAnalytics(ctx context.Context, event model.AnalyticsEvent) error
}

// prepareLead validates and normalizes a lead before it is stored.
func prepareLead(lead model.Lead, now time.Time) (model.Lead, error) {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.ToLower(strings.TrimSpace(lead.Email))
	if lead.Name == "" || lead.Email == "" || !lead.Block.Valid() {
		return model.Lead{}, ErrInvalidLead
	}
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = model.LeadNew
	}
	if lead.Source == "" {
		lead.Source = "chatbot"
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	return lead, nil
}

func prepareEvent(event model.AnalyticsEvent, now time.Time) (model.AnalyticsEvent, error) {
	if !event.Type.Valid() {
		return model.AnalyticsEvent{}, ErrInvalidEvent
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	return event, nil
}
