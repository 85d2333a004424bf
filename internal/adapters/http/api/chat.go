package api

import (
	"net/http"
	"time"

	service "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/domain/model"
)

// widgetMessage is a conversation turn as the chat widget sends it. Role
// is "user" or "bot"; Timestamp is RFC 3339 when present.
type widgetMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

func toMessages(in []widgetMessage) []model.Message {
	out := make([]model.Message, 0, len(in))
	for _, m := range in {
		msg := model.Message{Role: model.WidgetRole(m.Role), Content: m.Content}
		if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			msg.Timestamp = &ts
		}
		out = append(out, msg)
	}
	return out
}

type chatRequest struct {
	Message string          `json:"message"`
	History []widgetMessage `json:"history"`
}

type chatResponse struct {
	Message      string `json:"message"`
	ShowLeadForm bool   `json:"showLeadForm"`
	Score        int    `json:"score"`
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	const op = "api.chat"
	var req chatRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	reply, err := s.deps.Chat(r.Context(), ClientIP(r), service.ChatRequest{
		Message: req.Message,
		History: toMessages(req.History),
	})
	if err != nil {
		s.writeServiceError(r.Context(), w, op, err, "Failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Message:      reply.Message,
		ShowLeadForm: reply.ShowLeadForm,
		Score:        reply.Score,
	})
}
