package cache_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/econgpt/internal/adapters/cache"
	"github.com/okian/econgpt/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleTable() types.Table {
	return types.Table{
		{Date: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Inflation: types.Value{}, Unemployment: types.Defined(6.2), Growth: types.Defined(-1.5)},
		{Date: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Inflation: types.Defined(4.0), Unemployment: types.Defined(5.9), Growth: types.Defined(12.2)},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemory(t *testing.T) {
	Convey("Given an in-memory cache with a one minute TTL", t, func() {
		ctx := context.Background()
		clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		c := cache.NewMemory(cache.WithTTL(time.Minute), cache.WithClock(clk.Now))

		Convey("When nothing was stored", func() {
			_, ok, err := c.Get(ctx)

			Convey("Then it misses", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a table is stored", func() {
			So(c.Set(ctx, sampleTable()), ShouldBeNil)

			Convey("Then it is returned before expiry", func() {
				clk.Advance(59 * time.Second)
				got, ok, err := c.Get(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, sampleTable())
			})

			Convey("Then it expires after the TTL", func() {
				clk.Advance(time.Minute)
				_, ok, err := c.Get(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})

			Convey("Then callers cannot mutate the cached copy", func() {
				got, _, _ := c.Get(ctx)
				got[0].Growth = types.Defined(100)
				again, _, _ := c.Get(ctx)
				So(again[0].Growth, ShouldResemble, types.Defined(-1.5))
			})
		})

		So(c.Close(), ShouldBeNil)
	})
}

func TestRedis(t *testing.T) {
	url := os.Getenv("ECONGPT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ECONGPT_TEST_REDIS_URL not set")
	}

	Convey("Given a redis cache", t, func() {
		ctx := context.Background()
		key := fmt.Sprintf("econgpt:test:%s:%d", t.Name(), time.Now().UnixNano())
		c, err := cache.NewRedis(ctx, url, cache.WithKey(key), cache.WithTTL(time.Minute))
		So(err, ShouldBeNil)
		defer func() { _ = c.Close() }()

		Convey("When nothing was stored", func() {
			_, ok, err := c.Get(ctx)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("When a table is stored", func() {
			So(c.Set(ctx, sampleTable()), ShouldBeNil)
			got, ok, err := c.Get(ctx)

			Convey("Then it round-trips", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, sampleTable())
			})
		})
	})
}

func TestNewRedis_BadURL(t *testing.T) {
	Convey("Given a malformed redis URL", t, func() {
		_, err := cache.NewRedis(context.Background(), "http://not-redis")

		Convey("Then it fails before connecting", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "parsing redis URL")
		})
	})
}
