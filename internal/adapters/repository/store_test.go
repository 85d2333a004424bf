package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/leadgate/internal/adapters/repository"
	"github.com/okian/leadgate/internal/adapters/sqldb"
	"github.com/okian/leadgate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type store interface {
	repository.LeadStore
	repository.EventStore
}

func openSQL(t *testing.T) *sqldb.DB {
	t.Helper()
	db, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStores(t *testing.T) {
	impls := map[string]func() store{
		"memory": func() store { return repository.NewMemoryStore() },
		"sqlite": func() store {
			// fresh database per convey path
			return repository.NewSQLStore(openSQL(t))
		},
	}

	for name, newStore := range impls {
		Convey("Given a "+name+" lead store", t, func() {
			s := newStore()
			ctx := context.Background()
			now := time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)

			Convey("When a lead is inserted", func() {
				lead, err := s.Insert(ctx, model.Lead{
					Name:           " Pat Putter ",
					Email:          "Pat@Example.com",
					Block:          model.BlockOne,
					ConversationID: "conv-1",
					Conversation: []model.Message{
						{Role: model.RoleUser, Content: "How much does it cost?"},
					},
					Score:     5,
					CreatedAt: now.Add(-time.Hour),
				})

				Convey("Then defaults are filled in", func() {
					So(err, ShouldBeNil)
					So(lead.ID, ShouldNotBeEmpty)
					So(lead.Email, ShouldEqual, "pat@example.com")
					So(lead.Name, ShouldEqual, "Pat Putter")
					So(lead.Status, ShouldEqual, model.LeadNew)
					So(lead.Source, ShouldEqual, "chatbot")
				})

				Convey("Then it can be found by any casing of its email", func() {
					found, err := s.FindByEmail(ctx, "PAT@example.COM")
					So(err, ShouldBeNil)
					So(found.ID, ShouldEqual, lead.ID)
					So(found.Score, ShouldEqual, 5)
					So(found.Block, ShouldEqual, model.BlockOne)
					So(found.ConversationID, ShouldEqual, "conv-1")
					So(len(found.Conversation), ShouldEqual, 1)
					So(found.CreatedAt.Equal(now.Add(-time.Hour)), ShouldBeTrue)
				})

				Convey("Then a second lead with the same email is a duplicate", func() {
					_, err := s.Insert(ctx, model.Lead{Name: "Pat", Email: "pat@example.com", Block: model.BlockTwo})
					So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
				})

				Convey("Then status can be updated", func() {
					So(s.UpdateStatus(ctx, lead.ID, model.LeadContacted), ShouldBeNil)
					So(errors.Is(s.UpdateStatus(ctx, "missing", model.LeadContacted), repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When an email is unknown", func() {
				_, err := s.FindByEmail(ctx, "nobody@example.com")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When a lead is missing required fields", func() {
				_, err := s.Insert(ctx, model.Lead{Name: "x", Email: "x@y.z", Block: "block9"})
				So(errors.Is(err, repository.ErrInvalidLead), ShouldBeTrue)
			})

			Convey("When leads span several days", func() {
				ages := map[string]time.Duration{
					"a@x.io": 2 * time.Hour,
					"b@x.io": 30 * time.Hour,
					"c@x.io": 10 * 24 * time.Hour,
					"d@x.io": 30 * time.Minute,
				}
				ids := map[string]string{}
				for email, age := range ages {
					l, err := s.Insert(ctx, model.Lead{Name: "n", Email: email, Block: model.BlockFull, CreatedAt: now.Add(-age)})
					So(err, ShouldBeNil)
					ids[email] = l.ID
				}
				So(s.UpdateStatus(ctx, ids["d@x.io"], model.LeadArchived), ShouldBeNil)

				st, err := s.Stats(ctx, now)

				Convey("Then archived leads are excluded from every count", func() {
					So(err, ShouldBeNil)
					So(st.Total, ShouldEqual, 3)
					So(st.ThisWeek, ShouldEqual, 2)
					So(st.Last24Hours, ShouldEqual, 1)
					So(st.Latest, ShouldNotBeNil)
					So(st.Latest.Equal(now.Add(-2*time.Hour)), ShouldBeTrue)
				})
			})

			Convey("When there are no leads", func() {
				st, err := s.Stats(ctx, now)
				So(err, ShouldBeNil)
				So(st.Total, ShouldEqual, 0)
				So(st.Latest, ShouldBeNil)
			})

			Convey("When analytics events are recorded", func() {
				err := s.RecordAnalytics(ctx, model.AnalyticsEvent{
					Type:      model.EventWidgetOpen,
					SessionID: "s-1",
					Metadata:  map[string]any{"page": "/junior"},
				})
				So(err, ShouldBeNil)

				err = s.RecordAnalytics(ctx, model.AnalyticsEvent{Type: "page_view"})
				So(errors.Is(err, repository.ErrInvalidEvent), ShouldBeTrue)
			})
		})
	}
}

func TestMemoryStore_Events(t *testing.T) {
	Convey("Given a memory store with one event", t, func() {
		s := repository.NewMemoryStore()
		meta := map[string]any{"ip": "1.2.3.4"}
		So(s.RecordAnalytics(context.Background(), model.AnalyticsEvent{Type: model.EventMessageSent, Metadata: meta}), ShouldBeNil)

		Convey("Then the stored metadata is a copy", func() {
			meta["ip"] = "changed"
			events := s.Events()
			So(len(events), ShouldEqual, 1)
			So(events[0].ID, ShouldNotBeEmpty)
			So(events[0].Metadata["ip"], ShouldEqual, "1.2.3.4")
			So(events[0].CreatedAt.IsZero(), ShouldBeFalse)
		})
	})
}
