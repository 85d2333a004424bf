package service

import (
	"context"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
)

// EventRequest is one widget analytics event.
type EventRequest struct {
	Type      model.EventType
	SessionID string
	Metadata  map[string]any
	UserAgent string
	Referer   string
}

// RecordEvent admits and stores an analytics event. Only the rate limit and
// the event type can reject it; storage failures are logged and swallowed.
func (s *Service) RecordEvent(ctx context.Context, clientID string, req EventRequest) error {
	if _, err := s.admit(ctx, clientID, EndpointEvents, s.limits.Events); err != nil {
		return err
	}
	if !req.Type.Valid() {
		return &ValidationError{Message: "Invalid event type"}
	}

	meta := make(map[string]any, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	meta["ip"] = clientID
	meta["user_agent"] = optional(req.UserAgent)
	meta["referer"] = optional(req.Referer)

	err := s.events.RecordAnalytics(ctx, model.AnalyticsEvent{
		Type:      req.Type,
		SessionID: req.SessionID,
		Metadata:  meta,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to record analytics event",
			logger.String("event_type", string(req.Type)),
			logger.Error(err),
		)
	}
	return nil
}

func optional(v string) any {
	if v == "" {
		return nil
	}
	return v
}
