package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/econgpt/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryRegistry", t, func() {
		Convey("When creating a registry with default options", func() {
			r := session.NewInMemoryRegistry()

			Convey("Then it should be empty", func() {
				So(r, ShouldNotBeNil)
				So(r.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a session is requested without an id", func() {
			r := session.NewInMemoryRegistry()
			s, created := r.GetOrCreate(ctx, "")

			Convey("Then a new session with a UUID is created", func() {
				So(created, ShouldBeTrue)
				_, err := uuid.Parse(s.ID())
				So(err, ShouldBeNil)
				So(r.Size(), ShouldEqual, 1)
			})

			Convey("And asking again by id returns the same session", func() {
				again, created := r.GetOrCreate(ctx, s.ID())
				So(created, ShouldBeFalse)
				So(again, ShouldEqual, s)

				got, ok := r.Get(ctx, s.ID())
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, s)
			})
		})

		Convey("When an unknown id is requested", func() {
			r := session.NewInMemoryRegistry()
			s, created := r.GetOrCreate(ctx, "chosen-by-client")

			Convey("Then the new session gets a generated id instead", func() {
				So(created, ShouldBeTrue)
				So(s.ID(), ShouldNotEqual, "chosen-by-client")
				_, err := uuid.Parse(s.ID())
				So(err, ShouldBeNil)

				_, ok := r.Get(ctx, "chosen-by-client")
				So(ok, ShouldBeFalse)
			})

			Convey("And repeating the unknown id does not reach that session", func() {
				other, created := r.GetOrCreate(ctx, "chosen-by-client")
				So(created, ShouldBeTrue)
				So(other, ShouldNotEqual, s)
				So(r.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a session is removed", func() {
			r := session.NewInMemoryRegistry()
			s, _ := r.GetOrCreate(ctx, "")
			r.Remove(ctx, s.ID())
			r.Remove(ctx, "missing")

			Convey("Then it is gone", func() {
				_, ok := r.Get(ctx, s.ID())
				So(ok, ShouldBeFalse)
				So(r.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the bound is exceeded", func() {
			r := session.NewInMemoryRegistry(session.WithMaxSize(3))
			ids := make([]string, 0, 4)
			for i := 0; i < 3; i++ {
				s, _ := r.GetOrCreate(ctx, "")
				ids = append(ids, s.ID())
			}
			// touch the first so the second becomes least recently used
			r.Get(ctx, ids[0])
			d, _ := r.GetOrCreate(ctx, "")
			ids = append(ids, d.ID())

			Convey("Then the least recently used session is evicted", func() {
				So(r.Size(), ShouldEqual, 3)
				_, okB := r.Get(ctx, ids[1])
				So(okB, ShouldBeFalse)
				for _, id := range []string{ids[0], ids[2], ids[3]} {
					_, ok := r.Get(ctx, id)
					So(ok, ShouldBeTrue)
				}
			})
		})

		Convey("When the registry is unbounded", func() {
			r := session.NewInMemoryRegistry(session.WithMaxSize(0))
			for i := 0; i < 500; i++ {
				r.GetOrCreate(ctx, "")
			}

			Convey("Then nothing is evicted", func() {
				So(r.Size(), ShouldEqual, 500)
			})
		})

		Convey("When a custom id generator is set", func() {
			n := 0
			r := session.NewInMemoryRegistry(session.WithIDGenerator(func() string {
				n++
				return fmt.Sprintf("gen-%d", n)
			}))
			s, _ := r.GetOrCreate(ctx, "")

			Convey("Then it names new sessions", func() {
				So(s.ID(), ShouldEqual, "gen-1")
			})
		})

		Convey("When sessions are created concurrently", func() {
			r := session.NewInMemoryRegistry(session.WithMaxSize(64))
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(worker int) {
					defer wg.Done()
					for j := 0; j < 50; j++ {
						s, _ := r.GetOrCreate(ctx, fmt.Sprintf("w%d-%d", worker, j))
						id := s.ID()
						r.Get(ctx, id)
						if j%5 == 0 {
							r.Remove(ctx, id)
						}
					}
				}(i)
			}
			wg.Wait()

			Convey("Then the bound holds", func() {
				So(r.Size(), ShouldBeLessThanOrEqualTo, 64)
				So(r.Size(), ShouldBeGreaterThan, 0)
			})
		})
	})
}
