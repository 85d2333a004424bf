package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/okian/leadgate/internal/adapters/http/api"
	"github.com/okian/leadgate/internal/adapters/repository"
	service "github.com/okian/leadgate/internal/app"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type stubCompleter struct{}

func (stubCompleter) Complete(_ context.Context, history []model.Message, message string) (string, error) {
	return fmt.Sprintf("reply to %q after %d turns", message, len(history)), nil
}

type brokenDeps struct{}

func (brokenDeps) Chat(context.Context, string, service.ChatRequest) (service.ChatReply, error) {
	return service.ChatReply{}, errors.New("boom")
}

func (brokenDeps) SubmitLead(context.Context, string, service.LeadRequest) (service.LeadResult, error) { //nolint:gocritic // hugeParam: interface signature
	return service.LeadResult{}, errors.New("db down")
}

func (brokenDeps) RecordEvent(context.Context, string, service.EventRequest) error {
	return nil
}

func (brokenDeps) Stats(context.Context, string) (service.Stats, error) {
	return service.Stats{}, errors.New("db down")
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, api.WithLogger(logger.Discard())).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func leadBody(email, website string) string {
	return fmt.Sprintf(`{"name":"Pat","email":%q,"block":"full","conversationId":"c-1",`+
		`"messages":[{"role":"user","content":"how much to sign up?"},{"role":"bot","content":"$695"}],"website":%q}`,
		email, website)
}

func TestAPI_Leads(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithLeadStore(store),
			service.WithEventStore(store),
			service.WithLogger(logger.Discard()),
		)
		mux := newMux(svc)

		Convey("When a lead is submitted", func() {
			w := do(mux, http.MethodPost, "/api/leads", leadBody("pat@example.com", ""), "203.0.113.7")

			Convey("Then it is stored and acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["success"], ShouldEqual, true)
				lead, err := store.FindByEmail(context.Background(), "pat@example.com")
				So(err, ShouldBeNil)
				So(body["leadId"], ShouldEqual, lead.ID)
				So(lead.Score, ShouldEqual, 20)
				So(lead.Conversation[1].Role, ShouldEqual, model.RoleAssistant)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			})
		})

		Convey("When the conversation has turns from unknown authors", func() {
			body := `{"name":"Sam","email":"sam@example.com","block":"full","messages":[` +
				`{"role":"system","content":"How much does it cost to sign up?"},` +
				`{"content":"What are the hours?"},` +
				`{"role":"robot","content":"Any spots left?"},` +
				`{"role":"bot","content":"Sign up today!"}]}`
			w := do(mux, http.MethodPost, "/api/leads", body, "203.0.113.12")

			Convey("Then only visitor turns are scored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				lead, err := store.FindByEmail(context.Background(), "sam@example.com")
				So(err, ShouldBeNil)
				So(lead.Score, ShouldEqual, 0)
				So(lead.Conversation[0].Role, ShouldEqual, model.RoleSystem)
				So(lead.Conversation[1].Role, ShouldEqual, model.Role(""))
			})
		})

		Convey("When the widget sends message timestamps", func() {
			body := `{"name":"Lee","email":"lee@example.com","block":"full","messages":[` +
				`{"role":"user","content":"hi","timestamp":"2025-03-01T10:15:30.250Z"},` +
				`{"role":"bot","content":"hello","timestamp":"not a time"}]}`
			w := do(mux, http.MethodPost, "/api/leads", body, "203.0.113.13")

			Convey("Then valid ones are kept on the stored conversation", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				lead, err := store.FindByEmail(context.Background(), "lee@example.com")
				So(err, ShouldBeNil)
				So(lead.Conversation[0].Timestamp, ShouldNotBeNil)
				want := time.Date(2025, 3, 1, 10, 15, 30, 250_000_000, time.UTC)
				So(lead.Conversation[0].Timestamp.Equal(want), ShouldBeTrue)
				So(lead.Conversation[1].Timestamp, ShouldBeNil)
			})
		})

		Convey("When a bot fills the honeypot", func() {
			w := do(mux, http.MethodPost, "/api/leads", leadBody("bot@example.com", "http://spam"), "203.0.113.8")

			Convey("Then it looks accepted but nothing is stored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["success"], ShouldEqual, true)
				So(body["leadId"], ShouldNotBeEmpty)
				So(store.Count(), ShouldEqual, 0)
			})
		})

		Convey("When the hidden field holds a non-string value", func() {
			filled := do(mux, http.MethodPost, "/api/leads",
				`{"name":"Bo","email":"bo@example.com","block":"full","website":0}`, "203.0.113.14")
			empty := do(mux, http.MethodPost, "/api/leads",
				`{"name":"Cy","email":"cy@example.com","block":"full","website":null}`, "203.0.113.15")

			Convey("Then any value but null marks a bot", func() {
				So(filled.Code, ShouldEqual, http.StatusOK)
				_, err := store.FindByEmail(context.Background(), "bo@example.com")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				So(empty.Code, ShouldEqual, http.StatusOK)
				_, err = store.FindByEmail(context.Background(), "cy@example.com")
				So(err, ShouldBeNil)
			})
		})

		Convey("When one address submits six leads", func() {
			var last *httptest.ResponseRecorder
			for i := 0; i < 6; i++ {
				last = do(mux, http.MethodPost, "/api/leads", leadBody(fmt.Sprintf("v%d@example.com", i), ""), "198.51.100.1, 10.0.0.1")
			}

			Convey("Then the sixth gets 429 with retry headers", func() {
				So(last.Code, ShouldEqual, http.StatusTooManyRequests)
				So(last.Header().Get("X-RateLimit-Remaining"), ShouldEqual, "0")
				reset, err := strconv.Atoi(last.Header().Get("X-RateLimit-Reset"))
				So(err, ShouldBeNil)
				So(reset, ShouldBeGreaterThan, 0)
				So(last.Header().Get("Retry-After"), ShouldEqual, strconv.Itoa(reset))

				body := decode(last)
				So(body["error"], ShouldEqual, "Too many requests")
				So(body["retryAfter"], ShouldEqual, float64(reset))
				So(body["message"], ShouldEqual, fmt.Sprintf("Rate limit exceeded. Please try again in %d seconds.", reset))
				So(store.Count(), ShouldEqual, 5)
			})
		})

		Convey("When the email is already registered", func() {
			do(mux, http.MethodPost, "/api/leads", leadBody("pat@example.com", ""), "203.0.113.9")
			w := do(mux, http.MethodPost, "/api/leads", leadBody("pat@example.com", ""), "203.0.113.10")

			Convey("Then it answers 409 duplicate_email", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				body := decode(w)
				So(body["error"], ShouldEqual, "duplicate_email")
				So(body["message"], ShouldContainSubstring, "pat@example.com is already registered")
			})
		})

		Convey("When the email hits its daily cap", func() {
			var w *httptest.ResponseRecorder
			for i := 0; i < 4; i++ {
				w = do(mux, http.MethodPost, "/api/leads", leadBody("cap@example.com", ""), fmt.Sprintf("192.0.2.%d", i))
			}

			Convey("Then it gets the friendly 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				body := decode(w)
				So(body["error"], ShouldEqual, "too_many_submissions")
				So(body["message"], ShouldContainSubstring, "We'll be in touch soon!")
			})
		})

		Convey("When the payload is invalid", func() {
			bad := do(mux, http.MethodPost, "/api/leads", `{"name":"Pat","email":"nope","block":"full"}`, "203.0.113.11")
			broken := do(mux, http.MethodPost, "/api/leads", `{not json`, "203.0.113.11")

			Convey("Then it answers 400", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(bad)["error"], ShouldEqual, "Invalid email address")
				So(broken.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestAPI_ChatEventsStats(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithLeadStore(store),
			service.WithEventStore(store),
			service.WithCompleter(stubCompleter{}),
			service.WithLogger(logger.Discard()),
		)
		mux := newMux(svc)

		Convey("When chatting", func() {
			w := do(mux, http.MethodPost, "/api/chat",
				`{"message":"Can I register today?","history":[{"role":"bot","content":"Hi!"}]}`, "203.0.113.20")

			Convey("Then the reply carries the lead signals", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["message"], ShouldEqual, `reply to "Can I register today?" after 1 turns`)
				So(body["showLeadForm"], ShouldEqual, true)
				So(body["score"], ShouldEqual, float64(15+10))
			})
		})

		Convey("When the chat history carries non-visitor roles", func() {
			w := do(mux, http.MethodPost, "/api/chat",
				`{"message":"hello","history":[{"role":"system","content":"what does it cost?"},{"content":"sign up"}]}`, "203.0.113.22")

			Convey("Then they add nothing to the score", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["score"], ShouldEqual, float64(0))
			})
		})

		Convey("When the chat message is missing", func() {
			w := do(mux, http.MethodPost, "/api/chat", `{"history":[]}`, "203.0.113.21")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["error"], ShouldEqual, "Message is required")
		})

		Convey("When an analytics event is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/events",
				strings.NewReader(`{"event_type":"widget_open","session_id":"s-9","metadata":{"page":"/"}}`))
			req.Header.Set("X-Real-IP", "203.0.113.22")
			req.Header.Set("User-Agent", "probe/1.0")
			req.Header.Set("Referer", "https://example.com/winter")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is stored with request details", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				events := store.Events()
				So(len(events), ShouldEqual, 1)
				So(events[0].Metadata["ip"], ShouldEqual, "203.0.113.22")
				So(events[0].Metadata["user_agent"], ShouldEqual, "probe/1.0")
				So(events[0].Metadata["referer"], ShouldEqual, "https://example.com/winter")
			})
		})

		Convey("When an unknown event type is posted", func() {
			w := do(mux, http.MethodPost, "/api/events", `{"event_type":"page_view"}`, "203.0.113.23")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			body := decode(w)
			So(body["error"], ShouldEqual, "Invalid event type")
			So(body["valid_types"], ShouldHaveLength, 5)
		})

		Convey("When stats are requested", func() {
			do(mux, http.MethodPost, "/api/leads", leadBody("s@example.com", ""), "203.0.113.24")
			w := do(mux, http.MethodGet, "/api/stats", "", "203.0.113.24")

			Convey("Then totals and a cache header are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Cache-Control"), ShouldEqual, "s-maxage=300, stale-while-revalidate")
				body := decode(w)
				So(body["success"], ShouldEqual, true)
				stats := body["stats"].(map[string]any)
				So(stats["total"], ShouldEqual, float64(1))
				So(stats["lastRegistration"], ShouldEqual, "Just now")
			})
		})

		Convey("When there are no leads", func() {
			w := do(mux, http.MethodGet, "/api/stats", "", "203.0.113.25")
			stats := decode(w)["stats"].(map[string]any)
			So(stats["total"], ShouldEqual, float64(0))
			So(stats["lastRegistration"], ShouldBeNil)
		})
	})
}

func TestAPI_MethodsAndFailures(t *testing.T) {
	Convey("Given the API", t, func() {
		mux := newMux(brokenDeps{})

		Convey("Then preflight requests succeed", func() {
			w := do(mux, http.MethodOptions, "/api/leads", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Access-Control-Allow-Methods"), ShouldEqual, "POST, OPTIONS")
		})

		Convey("Then other methods are rejected", func() {
			w := do(mux, http.MethodGet, "/api/chat", "", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(decode(w)["error"], ShouldEqual, "Method not allowed")

			w = do(mux, http.MethodPost, "/api/stats", "", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then repository failures become a generic 500", func() {
			w := do(mux, http.MethodPost, "/api/leads", leadBody("pat@example.com", ""), "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			body := decode(w)
			So(body["error"], ShouldEqual, "Failed to process registration")
			So(w.Body.String(), ShouldNotContainSubstring, "db down")
		})

		Convey("Then health and metrics are served", func() {
			w := do(mux, http.MethodGet, "/healthz", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["status"], ShouldEqual, "ok")

			w = do(mux, http.MethodGet, "/metrics", "", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})
	})
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{"forwarded list", "198.51.100.1, 10.0.0.1", "10.0.0.2", "10.0.0.3:1234", "198.51.100.1"},
		{"real ip", "", "198.51.100.2", "10.0.0.3:1234", "198.51.100.2"},
		{"peer address", "", "", "198.51.100.3:5555", "198.51.100.3"},
		{"peer without port", "", "", "198.51.100.4", "198.51.100.4"},
		{"nothing", "", "", "", "unknown"},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		r.RemoteAddr = c.remote
		if c.xff != "" {
			r.Header.Set("X-Forwarded-For", c.xff)
		}
		if c.realIP != "" {
			r.Header.Set("X-Real-IP", c.realIP)
		}
		if got := api.ClientIP(r); got != c.want {
			t.Errorf("%s: ClientIP() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := api.WrapKind("api.leads", api.ErrBadRequest, cause)
	if !errors.Is(err, api.ErrBadRequest) || !errors.Is(err, cause) {
		t.Fatalf("WrapKind lost its kind or cause: %v", err)
	}
	if got := err.Error(); got != "api.leads: bad request: unexpected EOF" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := api.NewKind("api.chat", api.ErrInternal).Error(); got != "api.chat: internal error" {
		t.Fatalf("unexpected message %q", got)
	}
}
