package ratelimit_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/internal/adapters/sqldb"
	"github.com/okian/leadgate/internal/domain/ratelimit"
	"github.com/okian/leadgate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type failingStore struct{ calls atomic.Int32 }

func (f *failingStore) Hit(context.Context, counter.Key, time.Time, time.Duration) (counter.Tally, error) {
	f.calls.Add(1)
	return counter.Tally{}, errors.New("permission denied for table rate_limits")
}
func (f *failingStore) Name() string { return counter.BackendDurable }

type slowStore struct{}

func (slowStore) Hit(ctx context.Context, _ counter.Key, _ time.Time, _ time.Duration) (counter.Tally, error) {
	<-ctx.Done()
	return counter.Tally{}, ctx.Err()
}
func (slowStore) Name() string { return counter.BackendDurable }

func newMemory() *counter.Memory {
	return counter.NewMemory(counter.WithLogger(logger.Discard()))
}

func TestLimiter_WindowExhaustion(t *testing.T) {
	Convey("Given a memory-only limiter allowing 5 per minute", t, func() {
		clk := &clock{t: epoch}
		l := ratelimit.New(newMemory(), ratelimit.WithClock(clk.now), ratelimit.WithLogger(logger.Discard()))
		ctx := context.Background()

		Convey("When 8 checks arrive within the window", func() {
			var decisions []ratelimit.Decision
			for i := 0; i < 8; i++ {
				d, err := l.Check(ctx, "198.51.100.7", "leads", 5, time.Minute)
				So(err, ShouldBeNil)
				decisions = append(decisions, d)
				clk.advance(time.Second)
			}

			Convey("Then exactly the first 5 are allowed with remaining counting down", func() {
				for i, d := range decisions {
					So(d.Allowed, ShouldEqual, i < 5)
					So(d.Remaining, ShouldEqual, max(0, 4-i))
					So(d.Backend, ShouldEqual, counter.BackendMemory)
				}
			})

			Convey("Then the reset counts down to the window boundary", func() {
				So(decisions[0].ResetInSeconds, ShouldEqual, 60)
				So(decisions[7].ResetInSeconds, ShouldEqual, 53)
			})

			Convey("Then the key renews once the window elapses", func() {
				clk.t = epoch.Add(time.Minute + time.Millisecond)
				d, err := l.Check(ctx, "198.51.100.7", "leads", 5, time.Minute)
				So(err, ShouldBeNil)
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 4)
				So(d.ResetInSeconds, ShouldEqual, 60)
			})

			Convey("Then other clients and endpoints are unaffected", func() {
				d, _ := l.Check(ctx, "198.51.100.8", "leads", 5, time.Minute)
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 4)

				d, _ = l.Check(ctx, "198.51.100.7", "chat", 10, time.Minute)
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 9)
			})
		})

		Convey("When the window is zero", func() {
			d, err := l.Check(ctx, "x", "stats", 1, 0)
			So(err, ShouldBeNil)
			So(d.ResetInSeconds, ShouldEqual, 60)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := l.Check(cctx, "x", "chat", 1, time.Minute)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestLimiter_Fallback(t *testing.T) {
	Convey("Given a limiter whose durable backend always fails", t, func() {
		clk := &clock{t: epoch}
		durable := &failingStore{}
		degraded := ratelimit.New(newMemory(),
			ratelimit.WithDurable(durable),
			ratelimit.WithClock(clk.now),
			ratelimit.WithLogger(logger.Discard()),
		)
		refClk := &clock{t: epoch}
		reference := ratelimit.New(newMemory(), ratelimit.WithClock(refClk.now), ratelimit.WithLogger(logger.Discard()))
		ctx := context.Background()

		Convey("When both see the same request timing", func() {
			for i := 0; i < 12; i++ {
				got, err := degraded.Check(ctx, "203.0.113.1", "chat", 10, time.Minute)
				want, _ := reference.Check(ctx, "203.0.113.1", "chat", 10, time.Minute)

				So(err, ShouldBeNil)
				So(got.Allowed, ShouldEqual, want.Allowed)
				So(got.Remaining, ShouldEqual, want.Remaining)
				So(got.ResetInSeconds, ShouldEqual, want.ResetInSeconds)
				So(got.Backend, ShouldEqual, counter.BackendMemory)

				clk.advance(3 * time.Second)
				refClk.advance(3 * time.Second)
			}

			Convey("Then the durable backend was tried on every call", func() {
				So(durable.calls.Load(), ShouldEqual, 12)
			})
		})
	})

	Convey("Given a durable backend that hangs", t, func() {
		l := ratelimit.New(newMemory(),
			ratelimit.WithDurable(slowStore{}),
			ratelimit.WithDurableTimeout(20*time.Millisecond),
			ratelimit.WithLogger(logger.Discard()),
		)

		Convey("Then the check falls back after the timeout", func() {
			start := time.Now()
			d, err := l.Check(context.Background(), "a", "chat", 10, time.Minute)
			So(err, ShouldBeNil)
			So(d.Allowed, ShouldBeTrue)
			So(d.Backend, ShouldEqual, counter.BackendMemory)
			So(time.Since(start), ShouldBeLessThan, time.Second)
		})
	})
}

func TestLimiter_DurableSQL(t *testing.T) {
	db, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	Convey("Given a limiter backed by sqlite", t, func() {
		clk := &clock{t: epoch}
		l := ratelimit.New(newMemory(),
			ratelimit.WithDurable(counter.NewDurable(counter.NewSQLLog(db))),
			ratelimit.WithClock(clk.now),
			ratelimit.WithLogger(logger.Discard()),
		)
		client := "192.0.2." + time.Now().Format("150405.000000000")

		Convey("Then decisions come from the durable store with a full-window reset", func() {
			for i := 0; i < 4; i++ {
				d, err := l.Check(context.Background(), client, "stats", 3, time.Minute)
				So(err, ShouldBeNil)
				So(d.Backend, ShouldEqual, counter.BackendDurable)
				So(d.Allowed, ShouldEqual, i < 3)
				So(d.Remaining, ShouldEqual, max(0, 2-i))
				So(d.ResetInSeconds, ShouldEqual, 60)
				clk.advance(time.Second)
			}
		})
	})
}

func TestEmailThrottle(t *testing.T) {
	Convey("Given an email throttle", t, func() {
		clk := &clock{t: epoch}
		l := ratelimit.New(newMemory(), ratelimit.WithClock(clk.now), ratelimit.WithLogger(logger.Discard()))
		th := ratelimit.NewEmailThrottle(l)
		ctx := context.Background()

		Convey("When one address submits four times in a day with mixed case", func() {
			var allowed []bool
			var remaining []int
			for _, e := range []string{"Pat@Example.com", "pat@example.com", " PAT@EXAMPLE.COM ", "pat@example.com"} {
				d, err := th.Check(ctx, e, 3)
				So(err, ShouldBeNil)
				allowed = append(allowed, d.Allowed)
				remaining = append(remaining, d.Remaining)
				clk.advance(time.Hour)
			}

			Convey("Then the fourth is denied", func() {
				So(allowed, ShouldResemble, []bool{true, true, true, false})
				So(remaining, ShouldResemble, []int{2, 1, 0, 0})
			})

			Convey("Then a different address has its own counter", func() {
				d, _ := th.Check(ctx, "sam@example.com", 3)
				So(d.Allowed, ShouldBeTrue)
				So(d.Remaining, ShouldEqual, 2)
			})

			Convey("Then the per-client limiter is not affected", func() {
				d, _ := l.Check(ctx, "pat@example.com", "leads", 5, time.Minute)
				So(d.Remaining, ShouldEqual, 4)
			})

			Convey("Then the address is admitted again the next day", func() {
				clk.t = epoch.Add(24*time.Hour + time.Second)
				d, _ := th.Check(ctx, "pat@example.com", 3)
				So(d.Allowed, ShouldBeTrue)
			})
		})

		Convey("When the daily limit is zero the default applies", func() {
			for i := 0; i < 3; i++ {
				d, _ := th.Check(ctx, "new@example.com", 0)
				So(d.Allowed, ShouldBeTrue)
			}
			d, _ := th.Check(ctx, "new@example.com", 0)
			So(d.Allowed, ShouldBeFalse)
		})
	})
}

func TestNormalizeEmail(t *testing.T) {
	if got := ratelimit.NormalizeEmail("  Jo@Golf.CLUB "); got != "jo@golf.club" {
		t.Fatalf("NormalizeEmail() = %q", got)
	}
}
