package types_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	types "github.com/okian/econgpt/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseIndicators(t *testing.T) {
	Convey("Given indicator lists", t, func() {
		Convey("When the list is empty", func() {
			got, err := types.ParseIndicators("")

			Convey("Then every indicator is selected", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, types.AllIndicators())
			})
		})

		Convey("When the list mixes case and repeats a name", func() {
			got, err := types.ParseIndicators("growth, INFLATION,Growth")

			Convey("Then it keeps first-seen order without duplicates", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []types.Indicator{types.Growth, types.Inflation})
			})
		})

		Convey("When the list has an unknown name", func() {
			_, err := types.ParseIndicators("INFLATION,WAGES")

			Convey("Then it fails with ErrUnknownIndicator", func() {
				So(errors.Is(err, types.ErrUnknownIndicator), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "WAGES")
			})
		})
	})
}

func TestValue(t *testing.T) {
	Convey("Given nullable values", t, func() {
		Convey("When an undefined value is encoded", func() {
			data, err := json.Marshal(types.Value{})

			Convey("Then it is null", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "null")
			})
		})

		Convey("When a defined value is encoded", func() {
			data, err := json.Marshal(types.Defined(6))

			Convey("Then it is a number", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "6")
			})
		})

		Convey("When null is decoded", func() {
			v := types.Defined(1)
			err := json.Unmarshal([]byte("null"), &v)

			Convey("Then the value becomes undefined", func() {
				So(err, ShouldBeNil)
				So(v.Valid, ShouldBeFalse)
			})
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given a table with one row", t, func() {
		table := types.Table{{
			Date:         time.Date(2021, time.June, 30, 0, 0, 0, 0, time.UTC),
			Inflation:    types.Defined(4.1),
			Unemployment: types.Defined(5.9),
			Growth:       types.Value{},
		}}

		Convey("When the table round-trips through JSON", func() {
			data, err := json.Marshal(table)
			So(err, ShouldBeNil)

			var back types.Table
			So(json.Unmarshal(data, &back), ShouldBeNil)

			Convey("Then rows are preserved", func() {
				So(string(data), ShouldContainSubstring, `"date":"2021-06-30"`)
				So(string(data), ShouldContainSubstring, `"growth":null`)
				So(back, ShouldResemble, table)
			})
		})

		Convey("When projecting onto one indicator", func() {
			rows := table.Project([]types.Indicator{types.Unemployment})

			Convey("Then only the date and that column remain", func() {
				So(len(rows), ShouldEqual, 1)
				So(len(rows[0]), ShouldEqual, 2)
				So(rows[0]["date"], ShouldEqual, "2021-06-30")
				So(rows[0]["unemployment"], ShouldResemble, types.Defined(5.9))
			})
		})
	})
}
