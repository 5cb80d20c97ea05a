package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockAnalyzer/internal/indicator"
	"StockAnalyzer/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns controllable synthetic data for offline runs and tests.
type MockFetcher struct {
	Price float64
	Days  int
	Bars  []model.OHLCV
	Err   error

	Requests []Request
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, req Request) ([]model.OHLCV, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	days := m.Days
	if days <= 0 {
		days = 30
	}
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches a price series and runs the indicator engine over it.
type Collector struct {
	Fetcher Fetcher
	Engine  *indicator.Engine
	Params  indicator.Params
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, engine *indicator.Engine, params indicator.Params, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Engine:  engine,
		Params:  params,
		logger:  logger.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
	}
}

// Fetch validates req and returns the provider's history as a PriceSeries.
// Provider failures come back as *model.ProviderError.
func (c *Collector) Fetch(ctx context.Context, req Request) (*model.PriceSeries, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Ticker = strings.TrimSpace(req.Ticker)
	req.Period = strings.TrimSpace(req.Period)

	start := time.Now()
	bars, err := c.Fetcher.FetchHistory(ctx, req)
	if err != nil {
		return nil, &model.ProviderError{Provider: c.Fetcher.Name(), Err: err}
	}
	series, err := model.NewPriceSeries(req.Ticker, bars)
	if err != nil {
		return nil, &model.ProviderError{Provider: c.Fetcher.Name(), Err: err}
	}

	c.logger.Debug().
		Str("ticker", req.Ticker).
		Int("bars", series.Len()).
		Dur("took", time.Since(start)).
		Msg("fetched history")
	return series, nil
}

// Collect fetches the series and computes all indicators.
func (c *Collector) Collect(ctx context.Context, req Request) (*model.Analysis, error) {
	series, err := c.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", req.Ticker, err)
	}
	analysis, err := c.Engine.Analyze(series, c.Params)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", req.Ticker, err)
	}
	return analysis, nil
}
