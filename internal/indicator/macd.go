package indicator

import (
	"fmt"

	"StockAnalyzer/internal/model"
)

// EMA returns the exponential moving average of values with the given span.
// It is seeded with the first value and uses no bias adjustment, so every
// row is defined.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// AddMACD attaches ema_short, ema_long, macd and signal.
func (e *Engine) AddMACD(series *model.PriceSeries, shortWindow, longWindow, signalWindow int) (*model.PriceSeries, error) {
	if err := requireSeries(series); err != nil {
		return nil, err
	}
	for _, w := range []struct {
		name string
		v    int
	}{
		{"short window", shortWindow},
		{"long window", longWindow},
		{"signal window", signalWindow},
	} {
		if err := requirePositive(w.name, w.v); err != nil {
			return nil, err
		}
	}

	closes := series.Closes()
	emaShort := EMA(closes, shortWindow)
	emaLong := EMA(closes, longWindow)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaShort[i] - emaLong[i]
	}
	signal := EMA(macd, signalWindow)

	out := series
	for _, c := range []struct {
		name   string
		values []float64
	}{
		{model.ColEMAShort, emaShort},
		{model.ColEMALong, emaLong},
		{model.ColMACD, macd},
		{model.ColSignal, signal},
	} {
		next, err := out.WithColumn(c.name, c.values)
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", c.name, err)
		}
		out = next
	}
	return out, nil
}
