// Package series builds the economic table from warehouse observations.
package series

import (
	"sort"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/types"
)

// DefaultLag is the number of quarterly periods looked back by the
// year-over-year transform.
const DefaultLag = 3

// Warehouse column names and filter values of the three source series.
const (
	ColumnTableName     = "table_name"
	ColumnIndicatorName = "indicator_name"
	ColumnSeriesName    = "series_name"
	ColumnFrequency     = "frequency"

	FrequencyQuarterly = "Q"

	PriceIndexTable     = "Price Indexes For Personal Consumption Expenditures By Major Type Of Product"
	PriceIndexIndicator = "Personal consumption expenditures (PCE)"
	UnemploymentSeries  = "Unemployment Rate - (Seas)"
	GDPTable            = "Gross Domestic Product"
	GDPIndicator        = "Gross domestic product, A191RC-1"
)

// InflationSelector selects the quarterly PCE price index from table.
func InflationSelector(table string) model.Selector {
	return model.Selector{
		Table: table,
		Filters: []model.Filter{
			{Column: ColumnTableName, Value: PriceIndexTable},
			{Column: ColumnIndicatorName, Value: PriceIndexIndicator},
			{Column: ColumnFrequency, Value: FrequencyQuarterly},
		},
	}
}

// UnemploymentSelector selects the seasonally adjusted quarterly
// unemployment rate from table.
func UnemploymentSelector(table string) model.Selector {
	return model.Selector{
		Table: table,
		Filters: []model.Filter{
			{Column: ColumnSeriesName, Value: UnemploymentSeries},
			{Column: ColumnFrequency, Value: FrequencyQuarterly},
		},
	}
}

// GrowthSelector selects quarterly nominal GDP from table.
func GrowthSelector(table string) model.Selector {
	return model.Selector{
		Table: table,
		Filters: []model.Filter{
			{Column: ColumnTableName, Value: GDPTable},
			{Column: ColumnIndicatorName, Value: GDPIndicator},
			{Column: ColumnFrequency, Value: FrequencyQuarterly},
		},
	}
}

// sortedByDate returns a copy of obs in ascending date order. Equal dates
// keep their input order.
func sortedByDate(obs []model.Observation) []model.Observation {
	out := make([]model.Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// YearOverYear computes the percentage change of each point against the
// point lag positions earlier:
//
//	(value - yearBefore) * 100 / yearBefore
//
// The first lag points are undefined, as are points whose own value or base
// is NULL and points whose base is zero. NULL rows still count as positions.
func YearOverYear(obs []model.Observation, lag int) []model.SeriesPoint {
	ordered := sortedByDate(obs)
	points := make([]model.SeriesPoint, len(ordered))
	for i, o := range ordered {
		points[i] = model.SeriesPoint{Date: o.Date}
		if lag < 1 || i < lag || o.Null {
			continue
		}
		base := ordered[i-lag]
		if base.Null || base.Value == 0 {
			continue
		}
		yearBefore := base.Value
		points[i].Value = (o.Value - yearBefore) * 100 / yearBefore
		points[i].Valid = true
	}
	return points
}

// Levels projects observations unchanged, in date order. NULL values stay
// undefined.
func Levels(obs []model.Observation) []model.SeriesPoint {
	ordered := sortedByDate(obs)
	points := make([]model.SeriesPoint, len(ordered))
	for i, o := range ordered {
		points[i] = model.SeriesPoint{Date: o.Date, Value: o.Value, Valid: !o.Null}
	}
	return points
}

func dateKey(p model.SeriesPoint) string {
	return p.Date.Format(types.DateLayout)
}

func toValue(p model.SeriesPoint) types.Value {
	if !p.Valid {
		return types.Value{}
	}
	return types.Defined(p.Value)
}

// Join inner-joins the three series on calendar date. Only dates present in
// all three survive. Rows come back sorted by date. When a series repeats a
// date the last point wins.
func Join(inflation, unemployment, growth []model.SeriesPoint) types.Table {
	byDateU := make(map[string]model.SeriesPoint, len(unemployment))
	for _, p := range unemployment {
		byDateU[dateKey(p)] = p
	}
	byDateG := make(map[string]model.SeriesPoint, len(growth))
	for _, p := range growth {
		byDateG[dateKey(p)] = p
	}

	rows := make(map[string]types.Row)
	for _, p := range inflation {
		key := dateKey(p)
		u, ok := byDateU[key]
		if !ok {
			continue
		}
		g, ok := byDateG[key]
		if !ok {
			continue
		}
		rows[key] = types.Row{
			Date:         p.Date,
			Inflation:    toValue(p),
			Unemployment: toValue(u),
			Growth:       toValue(g),
		}
	}

	table := make(types.Table, 0, len(rows))
	for _, r := range rows {
		table = append(table, r)
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Date.Before(table[j].Date) })
	return table
}
