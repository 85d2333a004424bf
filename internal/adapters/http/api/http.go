// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/pkg/logger"
)

// maxBodyBytes caps request bodies; lead submissions carry the whole chat.
const maxBodyBytes = 256 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Chat(ctx context.Context, clientID string, req service.ChatRequest) (service.ChatReply, error)
	SubmitLead(ctx context.Context, clientID string, req service.LeadRequest) (service.LeadResult, error)
	RecordEvent(ctx context.Context, clientID string, req service.EventRequest) error
	Stats(ctx context.Context, clientID string) (service.Stats, error)
}

// Server wires HTTP routes for the public API.
type Server struct {
	deps       Dependencies
	corsOrigin string
	honeypot   string
	logger     logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithCORSOrigin sets Access-Control-Allow-Origin. Defaults to "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithHoneypotField names the hidden lead form field forwarded for bot
// detection. Defaults to "website".
func WithHoneypotField(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.honeypot = name
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:       deps,
		corsOrigin: "*",
		honeypot:   "website",
		logger:     logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/api/chat", MetricsMiddleware(CORS(s.handleChat, s.corsOrigin, http.MethodPost), "chat"))
	mux.HandleFunc("/api/leads", MetricsMiddleware(CORS(s.handleLeads, s.corsOrigin, http.MethodPost), "leads"))
	mux.HandleFunc("/api/events", MetricsMiddleware(CORS(s.handleEvents, s.corsOrigin, http.MethodPost), "events"))
	mux.HandleFunc("/api/stats", MetricsMiddleware(CORS(s.handleStats, s.corsOrigin, http.MethodGet), "stats"))
}

// errorResponse is the JSON shape of every failed request.
type errorResponse struct {
	Error      string   `json:"error"`
	Message    string   `json:"message,omitempty"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	ValidTypes []string `json:"valid_types,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

// writeRateLimited answers a denied admission check.
func writeRateLimited(w http.ResponseWriter, rl *service.RateLimitError) {
	d := rl.Decision
	h := w.Header()
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(d.ResetInSeconds))
	h.Set("Retry-After", strconv.Itoa(d.ResetInSeconds))
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:      "Too many requests",
		Message:    fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", d.ResetInSeconds),
		RetryAfter: d.ResetInSeconds,
	})
}

// writeServiceError maps pipeline outcomes onto responses. Anything it does
// not recognize is logged and answered with a generic 500 carrying fallback.
func (s *Server) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error, fallback string) {
	var (
		rl  *service.RateLimitError
		ve  *service.ValidationError
		th  *service.ThrottledError
		dup *service.DuplicateError
	)
	switch {
	case errors.As(err, &rl):
		writeRateLimited(w, rl)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message})
	case errors.As(err, &th):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:   "too_many_submissions",
			Message: fmt.Sprintf("It looks like %s is already registered. We'll be in touch soon!", th.Email),
		})
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "duplicate_email",
			Message: fmt.Sprintf("It looks like %s is already registered. Chris will be in touch soon! "+
				"If you need to update your information, please contact us directly.", dup.Email),
		})
	default:
		s.logger.Error(ctx, "request failed", logger.Error(WrapKind(op, ErrInternal, err)))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fallback})
	}
}

// decodeBody reads a bounded JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
