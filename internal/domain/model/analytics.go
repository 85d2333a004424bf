package model

import (
	"slices"
	"time"
)

// EventType names a widget analytics event.
type EventType string

// Accepted widget analytics events.
const (
	EventWidgetOpen      EventType = "widget_open"
	EventMessageSent     EventType = "message_sent"
	EventLeadSubmitted   EventType = "lead_submitted"
	EventFormAbandoned   EventType = "form_abandoned"
	EventExitIntentShown EventType = "exit_intent_shown"
)

// EventTypes lists every accepted analytics event type.
var EventTypes = []EventType{
	EventWidgetOpen,
	EventMessageSent,
	EventLeadSubmitted,
	EventFormAbandoned,
	EventExitIntentShown,
}

// Valid reports whether t is an accepted event type.
func (t EventType) Valid() bool {
	return slices.Contains(EventTypes, t)
}

// AnalyticsEvent is one widget interaction recorded for reporting.
type AnalyticsEvent struct {
	ID        string
	Type      EventType
	SessionID string
	Metadata  map[string]any
	CreatedAt time.Time
}

// LeadNotification is what the fan-out pipeline delivers for a new lead.
type LeadNotification struct {
	LeadID    string
	Name      string
	Email     string
	Block     Block
	Score     int
	Tier      string
	Source    string
	CreatedAt time.Time
}
