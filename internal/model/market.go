package model

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Undefined marks a row a derived column has no value for (window not yet full).
var Undefined = math.NaN()

// IsDefined reports whether v holds a computed value.
func IsDefined(v float64) bool { return !math.IsNaN(v) }

// PriceSeries is a date-indexed table of bars plus derived float columns.
// Every derived column has exactly one value per bar. A PriceSeries is
// treated as immutable: WithColumn returns a new value and column slices
// are never written after they are attached.
type PriceSeries struct {
	Symbol string

	bars    []OHLCV
	columns map[string][]float64
	order   []string
}

// NewPriceSeries copies bars into a new series sorted by time.
// Two bars with the same timestamp are rejected.
func NewPriceSeries(symbol string, bars []OHLCV) (*PriceSeries, error) {
	sorted := make([]OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return nil, fmt.Errorf("%w: duplicate bar at %s", ErrInvalidArgument, sorted[i].Time.Format("2006-01-02"))
		}
	}
	return &PriceSeries{
		Symbol:  symbol,
		bars:    sorted,
		columns: map[string][]float64{},
	}, nil
}

// Len returns the number of rows.
func (s *PriceSeries) Len() int { return len(s.bars) }

// Bar returns row i.
func (s *PriceSeries) Bar(i int) OHLCV { return s.bars[i] }

// Bars returns a copy of all rows.
func (s *PriceSeries) Bars() []OHLCV {
	out := make([]OHLCV, len(s.bars))
	copy(out, s.bars)
	return out
}

// Closes returns the close column.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, b := range s.bars {
		closes[i] = b.Close
	}
	return closes
}

// Column returns a copy of a derived column.
func (s *PriceSeries) Column(name string) ([]float64, bool) {
	col, ok := s.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, true
}

// Value returns the derived value at row i; ok is false for a missing
// column or an undefined row.
func (s *PriceSeries) Value(name string, i int) (v float64, ok bool) {
	col, found := s.columns[name]
	if !found || i < 0 || i >= len(col) {
		return Undefined, false
	}
	return col[i], IsDefined(col[i])
}

// Columns lists derived column names in the order they were first added.
func (s *PriceSeries) Columns() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// WithColumn returns a copy of s with the column set. An existing column of
// the same name is replaced in place in the column order.
func (s *PriceSeries) WithColumn(name string, values []float64) (*PriceSeries, error) {
	if len(values) != len(s.bars) {
		return nil, fmt.Errorf("%w: column %q has %d rows, series has %d",
			ErrInvalidArgument, name, len(values), len(s.bars))
	}
	out := s.clone()
	col := make([]float64, len(values))
	copy(col, values)
	if _, exists := out.columns[name]; !exists {
		out.order = append(out.order, name)
	}
	out.columns[name] = col
	return out, nil
}

// clone shares bars and column slices, which are never mutated after creation.
func (s *PriceSeries) clone() *PriceSeries {
	cols := make(map[string][]float64, len(s.columns)+1)
	for k, v := range s.columns {
		cols[k] = v
	}
	order := make([]string, len(s.order), len(s.order)+1)
	copy(order, s.order)
	return &PriceSeries{
		Symbol:  s.Symbol,
		bars:    s.bars,
		columns: cols,
		order:   order,
	}
}
