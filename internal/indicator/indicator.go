// Package indicator computes technical indicators over a daily price series.
//
// Every Add* transform reads only the close column (plus columns it creates
// itself) and returns a new series with its output columns attached; the
// input series is left untouched. Rows without enough history hold
// model.Undefined.
package indicator

import (
	"fmt"
	"time"

	"StockAnalyzer/internal/model"

	"github.com/rs/zerolog"
)

// Defaults for the transform parameters.
const (
	DefaultMAWindow             = 5
	DefaultFluctuationThreshold = 20.0
	DefaultRSIWindow            = 14
	DefaultMACDShort            = 12
	DefaultMACDLong             = 26
	DefaultMACDSignal           = 9
)

// Params configures a full Analyze run.
type Params struct {
	MAWindow             int
	RSIWindow            int
	MACDShort            int
	MACDLong             int
	MACDSignal           int
	FluctuationThreshold float64
}

// DefaultParams returns the standard parameter set.
func DefaultParams() Params {
	return Params{
		MAWindow:             DefaultMAWindow,
		RSIWindow:            DefaultRSIWindow,
		MACDShort:            DefaultMACDShort,
		MACDLong:             DefaultMACDLong,
		MACDSignal:           DefaultMACDSignal,
		FluctuationThreshold: DefaultFluctuationThreshold,
	}
}

// Engine runs the indicator transforms. Its only state is the logger that
// receives the average, standard deviation and fluctuation entries.
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates an Engine logging through logger.
func NewEngine(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "indicator").Logger()}
}

// Analyze applies every transform to series and gathers the scalar outputs.
func (e *Engine) Analyze(series *model.PriceSeries, p Params) (*model.Analysis, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", model.ErrInvalidArgument)
	}

	out, err := e.AddMovingAverage(series, p.MAWindow)
	if err != nil {
		return nil, fmt.Errorf("moving average: %w", err)
	}
	if out, err = e.AddRSI(out, p.RSIWindow); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	if out, err = e.AddMACD(out, p.MACDShort, p.MACDLong, p.MACDSignal); err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	if out, err = e.AddStdDev(out); err != nil {
		return nil, fmt.Errorf("std dev: %w", err)
	}

	avg := e.AverageClose(out)
	advisory, err := e.checkFluctuations(out, avg, p.FluctuationThreshold)
	if err != nil {
		return nil, fmt.Errorf("fluctuations: %w", err)
	}

	std := model.Undefined
	if out.Len() > 0 {
		std, _ = out.Value(model.ColStdDev, 0)
	}

	return &model.Analysis{
		Series:       out,
		AverageClose: avg,
		StdDev:       std,
		Advisory:     advisory,
		RanAt:        time.Now(),
	}, nil
}

func requireSeries(series *model.PriceSeries) error {
	if series == nil {
		return fmt.Errorf("%w: nil series", model.ErrInvalidArgument)
	}
	return nil
}

func requirePositive(name string, v int) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", model.ErrInvalidArgument, name, v)
	}
	return nil
}
