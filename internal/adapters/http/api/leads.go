package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	service "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/domain/model"
)

type leadRequest struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Block          string          `json:"block"`
	ConversationID string          `json:"conversationId"`
	Messages       []widgetMessage `json:"messages"`
}

type leadResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
}

// handleLeads handles POST /api/leads. Bot submissions get the same success
// shape as real ones.
func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req leadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := s.deps.SubmitLead(r.Context(), ClientIP(r), service.LeadRequest{
		Name:           req.Name,
		Email:          req.Email,
		Block:          model.Block(req.Block),
		ConversationID: req.ConversationID,
		Messages:       toMessages(req.Messages),
		Fields:         stringFields(body, s.honeypot),
	})
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err, "Failed to process registration")
		return
	}

	id := res.LeadID
	if res.Discarded {
		id = uuid.NewString()
	}
	writeJSON(w, http.StatusOK, leadResponse{Success: true, LeadID: id})
}

// stringFields extracts the string-valued top-level fields of a JSON object,
// always including honeypot when present.
func stringFields(body []byte, honeypot string) map[string]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			out[k] = str
			continue
		}
		if k == honeypot && string(v) != "null" {
			// A non-string value in the hidden field still means it was filled.
			out[k] = string(v)
		}
	}
	return out
}
