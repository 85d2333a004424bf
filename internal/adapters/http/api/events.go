package api

import (
	"errors"
	"net/http"

	service "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/domain/model"
)

type eventRequest struct {
	EventType string         `json:"event_type"`
	SessionID string         `json:"session_id"`
	Metadata  map[string]any `json:"metadata"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// handleEvents handles POST /api/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.events"
	var req eventRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	err := s.deps.RecordEvent(r.Context(), ClientIP(r), service.EventRequest{
		Type:      model.EventType(req.EventType),
		SessionID: req.SessionID,
		Metadata:  req.Metadata,
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		types := make([]string, len(model.EventTypes))
		for i, t := range model.EventTypes {
			types[i] = string(t)
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, ValidTypes: types})
	case err != nil:
		s.writeServiceError(r.Context(), w, op, err, "Failed to record event")
	default:
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}
