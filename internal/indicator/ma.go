package indicator

import (
	"StockAnalyzer/internal/model"
)

// SMA returns the simple moving average of values over window, one entry per
// input value. Entries before the window fills are model.Undefined.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = model.Undefined
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// AddMovingAverage attaches the moving_average column. Applying it again with
// the same window replaces the column with identical values.
func (e *Engine) AddMovingAverage(series *model.PriceSeries, window int) (*model.PriceSeries, error) {
	if err := requireSeries(series); err != nil {
		return nil, err
	}
	if err := requirePositive("window size", window); err != nil {
		return nil, err
	}
	return series.WithColumn(model.ColMovingAverage, SMA(series.Closes(), window))
}
