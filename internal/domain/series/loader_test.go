package series_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/series"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeSource answers selectors by their first filter value.
type fakeSource struct {
	data  map[string][]model.Observation
	fail  map[string]error
	calls atomic.Int32
}

func (f *fakeSource) Observations(_ context.Context, sel model.Selector) ([]model.Observation, error) {
	f.calls.Add(1)
	key := sel.Table + "/" + sel.Filters[0].Value
	if err := f.fail[key]; err != nil {
		return nil, err
	}
	return f.data[key], nil
}

func TestLoader_Load(t *testing.T) {
	Convey("Given a source with all three series", t, func() {
		start := quarter(2018, 1)
		src := &fakeSource{
			data: map[string][]model.Observation{
				"beanipa/" + series.PriceIndexTable:            observations(start, 100, 102, 104, 106, 110, 111),
				"blsuslfscps2019/" + series.UnemploymentSeries: observations(start.AddDate(0, 6, 0), 4.0, 4.1, 4.2, 4.3),
				"beanipa/" + series.GDPTable:                   observations(start, 200, 200, 200, 210, 220, 231),
			},
			fail: map[string]error{},
		}

		Convey("When the table is loaded with the default lag", func() {
			loader := series.NewLoader(src)
			table, err := loader.Load(context.Background())

			Convey("Then only dates common to all three series remain", func() {
				So(err, ShouldBeNil)
				So(src.calls.Load(), ShouldEqual, 3)
				So(len(table), ShouldEqual, 4)
				So(table[0].Date, ShouldEqual, start.AddDate(0, 6, 0))
			})

			Convey("And rows before the lookback have undefined rates", func() {
				So(table[0].Inflation.Valid, ShouldBeFalse)
				So(table[0].Unemployment.Valid, ShouldBeTrue)
				So(table[1].Inflation.Valid, ShouldBeTrue)
				So(table[1].Inflation.Float, ShouldAlmostEqual, 6.0, 1e-9)
				So(table[1].Growth.Float, ShouldAlmostEqual, 5.0, 1e-9)
			})
		})

		Convey("When a custom lag is configured", func() {
			loader := series.NewLoader(src, series.WithLag(1))
			table, err := loader.Load(context.Background())

			Convey("Then the lookback follows it", func() {
				So(err, ShouldBeNil)
				So(loader.Lag(), ShouldEqual, 1)
				So(table[0].Inflation.Valid, ShouldBeTrue)
				So(table[0].Inflation.Float, ShouldAlmostEqual, 100.0*2/102, 1e-9)
			})
		})

		Convey("When custom tables are configured", func() {
			src.data["prices/"+series.PriceIndexTable] = src.data["beanipa/"+series.PriceIndexTable]
			src.data["prices/"+series.GDPTable] = src.data["beanipa/"+series.GDPTable]
			src.data["labor/"+series.UnemploymentSeries] = src.data["blsuslfscps2019/"+series.UnemploymentSeries]
			loader := series.NewLoader(src, series.WithPriceTable("prices"), series.WithLaborTable("labor"))
			table, err := loader.Load(context.Background())

			Convey("Then the selectors read from them", func() {
				So(err, ShouldBeNil)
				So(len(table), ShouldEqual, 4)
			})
		})

		Convey("When one query fails", func() {
			boom := errors.New("connection reset")
			src.fail["blsuslfscps2019/"+series.UnemploymentSeries] = boom
			_, err := series.NewLoader(src).Load(context.Background())

			Convey("Then the failure propagates unmasked", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, series.ErrQuery), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "unemployment")
			})
		})
	})

	Convey("Given a loader without a source", t, func() {
		_, err := series.NewLoader(nil).Load(context.Background())

		So(errors.Is(err, series.ErrNilSource), ShouldBeTrue)
	})
}
