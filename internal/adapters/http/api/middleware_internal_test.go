package api

import (
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClientLimiter_Bound(t *testing.T) {
	Convey("Given a limiter holding its maximum of active clients", t, func() {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		l := newClientLimiter(1, 1)
		l.maxSize = 3
		l.now = func() time.Time { return now }

		for i := 0; i < 3; i++ {
			So(l.allow(fmt.Sprintf("10.0.0.%d", i)), ShouldBeTrue)
			now = now.Add(time.Second)
		}

		Convey("When a new client arrives before anyone goes idle", func() {
			So(l.allow("10.0.0.9"), ShouldBeTrue)

			Convey("Then the least recently seen client is evicted", func() {
				So(l.clients, ShouldHaveLength, 3)
				So(l.clients, ShouldNotContainKey, "10.0.0.0")
				So(l.clients, ShouldContainKey, "10.0.0.9")
				So(l.lastSeen, ShouldHaveLength, 3)
			})
		})

		Convey("When a known client returns", func() {
			l.allow("10.0.0.0")

			Convey("Then nobody is evicted", func() {
				So(l.clients, ShouldHaveLength, 3)
			})
		})

		Convey("When clients have gone idle", func() {
			now = now.Add(10 * time.Minute)
			So(l.allow("10.0.0.9"), ShouldBeTrue)

			Convey("Then the idle ones are pruned", func() {
				So(l.clients, ShouldHaveLength, 1)
			})
		})
	})
}
