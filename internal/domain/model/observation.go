// Package model contains domain models passed between layers.
package model

import "time"

// RawObservation is one row of a warehouse economic table. It is read-only
// for the service; only the seeder writes it.
type RawObservation struct {
	Date          time.Time
	SeriesName    string  // e.g. "Unemployment Rate - (Seas)"
	TableName     string  // logical table inside the warehouse table, e.g. "Gross Domestic Product"
	IndicatorName string  // e.g. "Personal consumption expenditures (PCE)"
	Frequency     string  // "Q" for quarterly
	Value         float64 // raw level or rate
	Null          bool    // stored as NULL, Value is ignored
}

// Observation is the (date, value) projection returned by a Selector. Null
// marks a warehouse row whose value is NULL; it still holds its position in
// the date ordering.
type Observation struct {
	Date  time.Time
	Value float64
	Null  bool
}

// Filter is a single equality predicate on a warehouse column.
type Filter struct {
	Column string
	Value  string
}

// Selector names a warehouse table and the equality filters that narrow it
// down to one series.
type Selector struct {
	Table   string
	Filters []Filter
}

// SeriesPoint is one derived value. Valid is false when the value is
// undefined: not enough history, a NULL value or base, or a zero base.
type SeriesPoint struct {
	Date  time.Time
	Value float64
	Valid bool
}

// CompletionRequest carries a prompt and its sampling parameters to a
// completion backend.
type CompletionRequest struct {
	Model            string
	Prompt           string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}
