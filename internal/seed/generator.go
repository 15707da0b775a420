// Package seed fills a warehouse with synthetic quarterly series so the
// dashboard can run without the production data set.
package seed

import (
	"math"
	"math/rand/v2"

	"github.com/okian/econgpt/internal/domain/model"
	"github.com/okian/econgpt/internal/domain/series"
)

// Generation parameters, per quarter.
const (
	priceIndexBase   = 70.0
	priceDriftMean   = 0.005
	priceDriftSpread = 0.004

	gdpBase         = 10_000.0
	gdpDriftMean    = 0.012
	gdpDriftSpread  = 0.01
	recessionChance = 0.04
	recessionDrop   = 0.03

	unemploymentBase  = 5.0
	unemploymentFloor = 3.0
	unemploymentCeil  = 14.0
	unemploymentStep  = 0.25
)

// Generate returns the rows of the price table (price index and GDP) and
// of the labor table (unemployment rate) for cfg.
func Generate(cfg Config) (prices, labor []model.RawObservation) {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	prices = make([]model.RawObservation, 0, 2*cfg.Quarters)
	labor = make([]model.RawObservation, 0, cfg.Quarters)

	index, gdp, rate := priceIndexBase, gdpBase, unemploymentBase
	for i := 0; i < cfg.Quarters; i++ {
		d := cfg.Start.AddDate(0, 3*i, 0)

		prices = append(prices,
			model.RawObservation{
				Date:          d,
				TableName:     series.PriceIndexTable,
				IndicatorName: series.PriceIndexIndicator,
				Frequency:     series.FrequencyQuarterly,
				Value:         round(index, 3),
			},
			model.RawObservation{
				Date:          d,
				TableName:     series.GDPTable,
				IndicatorName: series.GDPIndicator,
				Frequency:     series.FrequencyQuarterly,
				Value:         round(gdp, 1),
			},
		)
		labor = append(labor, model.RawObservation{
			Date:       d,
			SeriesName: series.UnemploymentSeries,
			Frequency:  series.FrequencyQuarterly,
			Value:      round(rate, 1),
		})

		index *= 1 + priceDriftMean + spread(rng, priceDriftSpread)
		if rng.Float64() < recessionChance {
			gdp *= 1 - recessionDrop*rng.Float64()
			rate = math.Min(unemploymentCeil, rate+4*unemploymentStep*rng.Float64()+unemploymentStep)
			continue
		}
		gdp *= 1 + gdpDriftMean + spread(rng, gdpDriftSpread)
		rate = math.Max(unemploymentFloor, math.Min(unemploymentCeil, rate+spread(rng, unemploymentStep)-0.02))
	}
	return prices, labor
}

// spread returns a uniform value in [-w, w).
func spread(rng *rand.Rand, w float64) float64 {
	return (rng.Float64()*2 - 1) * w
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
