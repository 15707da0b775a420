// Package types contains common types used across the application
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of table dates.
const DateLayout = "2006-01-02"

// Indicator names one column of the economic table.
type Indicator string

// Known indicators.
const (
	Inflation    Indicator = "INFLATION"
	Unemployment Indicator = "UNEMPLOYMENT"
	Growth       Indicator = "GROWTH"
)

// AllIndicators lists every indicator in display order.
func AllIndicators() []Indicator {
	return []Indicator{Inflation, Unemployment, Growth}
}

// Column returns the JSON key used for the indicator in table rows.
func (i Indicator) Column() string {
	return strings.ToLower(string(i))
}

// ParseIndicator accepts an indicator name in any case.
func ParseIndicator(s string) (Indicator, error) {
	switch Indicator(strings.ToUpper(strings.TrimSpace(s))) {
	case Inflation:
		return Inflation, nil
	case Unemployment:
		return Unemployment, nil
	case Growth:
		return Growth, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIndicator, s)
}

// ParseIndicators parses a comma separated list. Empty input selects all
// indicators; duplicates are dropped.
func ParseIndicators(csv string) ([]Indicator, error) {
	if strings.TrimSpace(csv) == "" {
		return AllIndicators(), nil
	}
	seen := make(map[Indicator]bool)
	var out []Indicator
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ind, err := ParseIndicator(part)
		if err != nil {
			return nil, err
		}
		if seen[ind] {
			continue
		}
		seen[ind] = true
		out = append(out, ind)
	}
	if len(out) == 0 {
		return AllIndicators(), nil
	}
	return out, nil
}

// Value is a nullable float. The zero Value is undefined and encodes as
// JSON null.
type Value struct {
	Float float64
	Valid bool
}

// Defined wraps f as a defined Value.
func Defined(f float64) Value {
	return Value{Float: f, Valid: true}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// Row is one date of the economic table.
type Row struct {
	Date         time.Time
	Inflation    Value
	Unemployment Value
	Growth       Value
}

type rowJSON struct {
	Date         string `json:"date"`
	Inflation    Value  `json:"inflation"`
	Unemployment Value  `json:"unemployment"`
	Growth       Value  `json:"growth"`
}

// MarshalJSON implements json.Marshaler.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Date:         r.Date.Format(DateLayout),
		Inflation:    r.Inflation,
		Unemployment: r.Unemployment,
		Growth:       r.Growth,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw rowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("row date: %w", err)
	}
	*r = Row{Date: d, Inflation: raw.Inflation, Unemployment: raw.Unemployment, Growth: raw.Growth}
	return nil
}

// Get returns the value of one indicator column.
func (r Row) Get(i Indicator) Value {
	switch i {
	case Inflation:
		return r.Inflation
	case Unemployment:
		return r.Unemployment
	case Growth:
		return r.Growth
	}
	return Value{}
}

// Table is the economic table: rows ordered ascending by date.
type Table []Row

// Project returns rows holding the date plus the selected columns only.
func (t Table) Project(indicators []Indicator) []map[string]any {
	out := make([]map[string]any, 0, len(t))
	for _, r := range t {
		m := make(map[string]any, len(indicators)+1)
		m["date"] = r.Date.Format(DateLayout)
		for _, ind := range indicators {
			m[ind.Column()] = r.Get(ind)
		}
		out = append(out, m)
	}
	return out
}
