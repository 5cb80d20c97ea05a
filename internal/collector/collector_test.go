package collector

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"StockAnalyzer/internal/indicator"
	"StockAnalyzer/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestCollector(f Fetcher) *Collector {
	logger := zerolog.New(io.Discard)
	return NewCollector(f, indicator.NewEngine(logger), indicator.DefaultParams(), logger)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"period only", Request{Ticker: "AAPL", Period: "5d"}, false},
		{"date range", Request{Ticker: "AAPL", Start: date("2024-01-01"), End: date("2024-02-01")}, false},
		{"same day range", Request{Ticker: "AAPL", Start: date("2024-01-01"), End: date("2024-01-01")}, false},
		{"neither", Request{Ticker: "AAPL"}, true},
		{"blank period", Request{Ticker: "AAPL", Period: "   "}, true},
		{"both", Request{Ticker: "AAPL", Period: "5d", Start: date("2024-01-01"), End: date("2024-02-01")}, true},
		{"start only", Request{Ticker: "AAPL", Start: date("2024-01-01")}, true},
		{"end only", Request{Ticker: "AAPL", End: date("2024-01-01")}, true},
		{"end before start", Request{Ticker: "AAPL", Start: date("2024-02-01"), End: date("2024-01-01")}, true},
		{"no ticker", Request{Period: "5d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, date("2024-03-15"), d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("15/03/2024")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestFetch_MissingPeriodAndRange(t *testing.T) {
	m := &MockFetcher{Price: 100}
	_, err := newTestCollector(m).Fetch(context.Background(), Request{Ticker: "AAPL"})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.Empty(t, m.Requests, "provider must not be called for an invalid request")
}

func TestFetch_ProviderError(t *testing.T) {
	boom := errors.New("unknown ticker")
	m := &MockFetcher{Err: boom}
	_, err := newTestCollector(m).Fetch(context.Background(), Request{Ticker: "NOPE", Period: "5d"})

	var pe *model.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "mock", pe.Provider)
	assert.ErrorIs(t, err, boom)
}

func TestFetch_SeriesFromBars(t *testing.T) {
	m := &MockFetcher{Bars: []model.OHLCV{
		{Time: date("2024-01-03"), Close: 3},
		{Time: date("2024-01-02"), Close: 2},
	}}
	s, err := newTestCollector(m).Fetch(context.Background(), Request{Ticker: " AAPL ", Period: " 5d "})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, []float64{2, 3}, s.Closes())
	require.Len(t, m.Requests, 1)
	assert.Equal(t, "5d", m.Requests[0].Period)
}

func TestFetch_DuplicateBarsAreProviderError(t *testing.T) {
	m := &MockFetcher{Bars: []model.OHLCV{{Time: date("2024-01-02")}, {Time: date("2024-01-02")}}}
	_, err := newTestCollector(m).Fetch(context.Background(), Request{Ticker: "AAPL", Period: "5d"})
	var pe *model.ProviderError
	assert.ErrorAs(t, err, &pe)
}

func TestCollect(t *testing.T) {
	m := &MockFetcher{Price: 100, Days: 60}
	a, err := newTestCollector(m).Collect(context.Background(), Request{Ticker: "AAPL", Period: "3mo"})
	require.NoError(t, err)

	assert.Equal(t, 60, a.Series.Len())
	assert.InDelta(t, 100, a.AverageClose, 1)
	assert.Empty(t, a.Advisory)
	for _, name := range []string{model.ColMovingAverage, model.ColRSI, model.ColMACD, model.ColSignal, model.ColStdDev} {
		_, ok := a.Series.Column(name)
		assert.True(t, ok, name)
	}
}
