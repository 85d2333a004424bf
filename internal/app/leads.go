package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/okian/leadgate/internal/adapters/repository"
	"github.com/okian/leadgate/internal/domain/botfilter"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/ratelimit"
	"github.com/okian/leadgate/internal/domain/scoring"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
)

// Lead source recorded for widget submissions.
const SourceChatbot = "chatbot"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Visitor-facing validation messages.
const (
	msgLeadRequired = "Name, email, and block preference are required"
	msgLeadEmail    = "Invalid email address"
	msgLeadBlock    = "Invalid block preference. Choose: block1, block2, both, full, or undecided"
)

// LeadRequest is a lead form submission.
type LeadRequest struct {
	Name           string
	Email          string
	Block          model.Block
	ConversationID string
	Messages       []model.Message
	// Fields holds every raw form field, honeypot included.
	Fields map[string]string
}

// LeadResult is the outcome of an accepted submission. Discarded is set when
// the submission was silently dropped as a bot.
type LeadResult struct {
	LeadID    string
	Score     int
	Tier      scoring.Tier
	Discarded bool
}

// SubmitLead runs the lead pipeline: bot filter, client rate limit,
// validation, email throttle, duplicate check, scoring, persistence and
// notification. A rejection at any stage skips every later stage.
func (s *Service) SubmitLead(ctx context.Context, clientID string, req LeadRequest) (LeadResult, error) { //nolint:gocritic // hugeParam: request is built once per call
	if botfilter.IsLikelyBot(req.Fields, s.honeypot) {
		metrics.RecordBotDetected(EndpointLeads)
		s.logger.Info(ctx, "discarding likely bot submission", logger.String("client", clientID))
		return LeadResult{Discarded: true}, nil
	}

	if _, err := s.admit(ctx, clientID, EndpointLeads, s.limits.Leads); err != nil {
		metrics.RecordLeadRejected("rate")
		return LeadResult{}, err
	}

	if err := validateLead(req); err != nil {
		metrics.RecordLeadRejected("validation")
		return LeadResult{}, err
	}

	email := ratelimit.NormalizeEmail(req.Email)
	d, err := s.emails.Check(ctx, email, s.limits.EmailDaily)
	if err != nil {
		return LeadResult{}, err
	}
	if !d.Allowed {
		metrics.RecordLeadRejected("email_throttle")
		return LeadResult{}, &ThrottledError{Email: strings.TrimSpace(req.Email), Decision: d}
	}

	if _, err := s.leads.FindByEmail(ctx, email); err == nil {
		metrics.RecordLeadRejected("duplicate")
		return LeadResult{}, &DuplicateError{Email: strings.TrimSpace(req.Email)}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return LeadResult{}, fmt.Errorf("find lead: %w", err)
	}

	score := s.scorer.Score(req.Messages)
	tier := scoring.TierOf(score)
	metrics.RecordLeadScore(score)

	lead, err := s.leads.Insert(ctx, model.Lead{
		Name:           req.Name,
		Email:          email,
		Block:          req.Block,
		ConversationID: req.ConversationID,
		Conversation:   req.Messages,
		Score:          score,
		Source:         SourceChatbot,
		Status:         model.LeadNew,
		CreatedAt:      s.now(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		metrics.RecordLeadRejected("duplicate")
		return LeadResult{}, &DuplicateError{Email: strings.TrimSpace(req.Email)}
	}
	if err != nil {
		return LeadResult{}, fmt.Errorf("insert lead: %w", err)
	}
	metrics.RecordLeadAccepted(string(tier))

	s.notify(ctx, lead, tier)

	s.logger.Info(ctx, "lead accepted",
		logger.String("lead_id", lead.ID),
		logger.String("block", string(lead.Block)),
		logger.Int("score", score),
		logger.String("tier", string(tier)),
	)
	return LeadResult{LeadID: lead.ID, Score: score, Tier: tier}, nil
}

// notify enqueues the lead announcement. Failures are logged only.
func (s *Service) notify(ctx context.Context, lead model.Lead, tier scoring.Tier) { //nolint:gocritic // hugeParam: value copy of the stored lead
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(ctx, model.LeadNotification{
		LeadID:    lead.ID,
		Name:      lead.Name,
		Email:     lead.Email,
		Block:     lead.Block,
		Score:     lead.Score,
		Tier:      string(tier),
		Source:    lead.Source,
		CreatedAt: lead.CreatedAt,
	})
	if err != nil {
		s.logger.Error(ctx, "failed to enqueue lead notification",
			logger.String("lead_id", lead.ID),
			logger.Error(err),
		)
	}
}

func validateLead(req LeadRequest) error { //nolint:gocritic // hugeParam: read-only
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Block == "" {
		return &ValidationError{Message: msgLeadRequired}
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return &ValidationError{Message: msgLeadEmail}
	}
	if !req.Block.Valid() {
		return &ValidationError{Message: msgLeadBlock}
	}
	return nil
}
