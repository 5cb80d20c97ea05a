package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockAnalyzer/internal/model"
)

// DateLayout is the calendar date format accepted for explicit ranges.
const DateLayout = "2006-01-02"

// Request selects the history to fetch: either a relative Period token
// ("5d", "1 month", "1y", ...) or an explicit Start/End date pair.
type Request struct {
	Ticker string
	Period string
	Start  time.Time
	End    time.Time
}

// HasRange reports whether an explicit date range was given.
func (r Request) HasRange() bool { return !r.Start.IsZero() || !r.End.IsZero() }

// Validate checks that exactly one of Period or the Start/End pair is set.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return fmt.Errorf("%w: ticker is required", model.ErrInvalidArgument)
	}
	period := strings.TrimSpace(r.Period)
	switch {
	case period == "" && !r.HasRange():
		return fmt.Errorf("%w: either a period or a start and end date is required", model.ErrInvalidArgument)
	case period != "" && r.HasRange():
		return fmt.Errorf("%w: period and date range are mutually exclusive", model.ErrInvalidArgument)
	case period != "":
		return nil
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: both start and end date are required", model.ErrInvalidArgument)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s",
			model.ErrInvalidArgument, r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

// ParseDate parses an ISO YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q: %v", model.ErrInvalidArgument, s, err)
	}
	return t, nil
}

// Fetcher defines the interface for fetching daily market history.
type Fetcher interface {
	FetchHistory(ctx context.Context, req Request) ([]model.OHLCV, error)
	Name() string
}

// dedupeByDate collapses runs of bars sharing a timestamp, keeping the last
// one of each run. bars must already be sorted by time.
func dedupeByDate(bars []model.OHLCV) []model.OHLCV {
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
