package counter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/leadgate/internal/adapters/counter"
	"github.com/okian/leadgate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)

func TestMemory_Hit(t *testing.T) {
	Convey("Given an empty memory table", t, func() {
		m := counter.NewMemory(counter.WithLogger(logger.Discard()))
		ctx := context.Background()
		key := counter.Key{Namespace: "leads", ID: "10.0.0.1:leads"}

		Convey("When a key is hit repeatedly inside one window", func() {
			var tallies []counter.Tally
			for i := 0; i < 4; i++ {
				tl, err := m.Hit(ctx, key, epoch.Add(time.Duration(i)*time.Second), time.Minute)
				So(err, ShouldBeNil)
				tallies = append(tallies, tl)
			}

			Convey("Then the count grows and the reset stays anchored at the first hit", func() {
				for i, tl := range tallies {
					So(tl.Count, ShouldEqual, i+1)
					So(tl.ResetAt, ShouldEqual, epoch.Add(time.Minute))
				}
			})
		})

		Convey("When the window has elapsed", func() {
			_, _ = m.Hit(ctx, key, epoch, time.Minute)
			_, _ = m.Hit(ctx, key, epoch.Add(time.Minute), time.Minute)
			tl, err := m.Hit(ctx, key, epoch.Add(time.Minute+time.Millisecond), time.Minute)

			Convey("Then a fresh window starts at the triggering hit", func() {
				So(err, ShouldBeNil)
				So(tl.Count, ShouldEqual, 1)
				So(tl.ResetAt, ShouldEqual, epoch.Add(2*time.Minute+time.Millisecond))
			})
		})

		Convey("When different namespaces share an identifier", func() {
			a := counter.Key{Namespace: "chat", ID: "x"}
			b := counter.Key{Namespace: "leads", ID: "x"}
			_, _ = m.Hit(ctx, a, epoch, time.Minute)
			_, _ = m.Hit(ctx, a, epoch, time.Minute)
			tl, _ := m.Hit(ctx, b, epoch, time.Minute)

			Convey("Then their counts are isolated", func() {
				So(tl.Count, ShouldEqual, 1)
				So(m.Len(), ShouldEqual, 2)
			})
		})

		Convey("When the window is not positive", func() {
			_, err := m.Hit(ctx, key, epoch, 0)
			So(err, ShouldEqual, counter.ErrInvalidWindow)
		})

		Convey("When many goroutines hit one key", func() {
			const n = 200
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = m.Hit(ctx, key, epoch, time.Minute)
				}()
			}
			wg.Wait()
			tl, _ := m.Hit(ctx, key, epoch, time.Minute)

			Convey("Then no increment is lost", func() {
				So(tl.Count, ShouldEqual, n+1)
			})
		})
	})
}

func TestMemory_Sweep(t *testing.T) {
	Convey("Given a table with one stale and one live key", t, func() {
		now := epoch
		m := counter.NewMemory(
			counter.WithLogger(logger.Discard()),
			counter.WithClock(func() time.Time { return now }),
		)
		ctx := context.Background()
		stale := counter.Key{Namespace: "chat", ID: "a"}
		live := counter.Key{Namespace: "email_submission", ID: "email:a@b.co"}
		_, _ = m.Hit(ctx, stale, epoch, time.Minute)
		_, _ = m.Hit(ctx, live, epoch, 24*time.Hour)

		Convey("When the sweeper runs after the short window closed", func() {
			now = epoch.Add(2 * time.Minute)
			evicted := m.Sweep()

			Convey("Then only the expired window is evicted", func() {
				So(evicted, ShouldEqual, 1)
				So(m.Len(), ShouldEqual, 1)
			})

			Convey("Then the evicted key starts over", func() {
				tl, _ := m.Hit(ctx, stale, now, time.Minute)
				So(tl.Count, ShouldEqual, 1)
			})

			Convey("Then the live key keeps counting", func() {
				tl, _ := m.Hit(ctx, live, now, 24*time.Hour)
				So(tl.Count, ShouldEqual, 2)
			})
		})
	})
}

func TestMemory_Lifecycle(t *testing.T) {
	Convey("Given a table with a fast sweeper", t, func() {
		m := counter.NewMemory(
			counter.WithLogger(logger.Discard()),
			counter.WithSweepInterval(5*time.Millisecond),
			counter.WithClock(func() time.Time { return epoch.Add(time.Hour) }),
		)
		_, _ = m.Hit(context.Background(), counter.Key{Namespace: "chat", ID: "a"}, epoch, time.Minute)

		Convey("When it is started and stopped", func() {
			m.Start(context.Background())
			m.Start(context.Background())
			deadline := time.Now().Add(2 * time.Second)
			for m.Len() > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			m.Stop()
			m.Stop()

			Convey("Then the sweeper evicted the stale key and shut down", func() {
				So(m.Len(), ShouldEqual, 0)
			})
		})
	})
}
