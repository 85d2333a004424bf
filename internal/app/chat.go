package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/scoring"
)

// ChatRequest is one visitor turn plus the prior conversation.
type ChatRequest struct {
	Message string
	History []model.Message
}

// ChatReply is the assistant's answer with the live lead signals.
type ChatReply struct {
	Message      string
	ShowLeadForm bool
	// Score covers the history plus the new message.
	Score int
}

// Chat admits the turn and forwards it to the completion backend. The rate
// check runs before anything reaches the backend.
func (s *Service) Chat(ctx context.Context, clientID string, req ChatRequest) (ChatReply, error) {
	if _, err := s.admit(ctx, clientID, EndpointChat, s.limits.Chat); err != nil {
		return ChatReply{}, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return ChatReply{}, &ValidationError{Message: "Message is required"}
	}
	if s.completer == nil {
		return ChatReply{}, fmt.Errorf("%w: no completion backend configured", ErrCompletion)
	}

	reply, err := s.completer.Complete(ctx, req.History, req.Message)
	if err != nil {
		return ChatReply{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	conversation := make([]model.Message, 0, len(req.History)+1)
	conversation = append(conversation, req.History...)
	conversation = append(conversation, model.Message{Role: model.RoleUser, Content: req.Message})

	return ChatReply{
		Message:      reply,
		ShowLeadForm: scoring.WantsToRegister(req.Message),
		Score:        s.scorer.Score(conversation),
	}, nil
}
