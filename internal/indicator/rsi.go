package indicator

import (
	"StockAnalyzer/internal/model"
)

// RSI computes the relative strength index from simple rolling means of
// gains and losses over window close-to-close changes. Rows before window
// changes exist are model.Undefined. A window with no losses saturates at 100.
func RSI(closes []float64, window int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	gains := make([]float64, n)
	losses := make([]float64, n)

	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := 0; i < n; i++ {
		if i < window {
			out[i] = model.Undefined
			continue
		}
		var avgGain, avgLoss float64
		for j := i - window + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(window)
		avgLoss /= float64(window)

		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// AddRSI attaches the rsi column.
func (e *Engine) AddRSI(series *model.PriceSeries, window int) (*model.PriceSeries, error) {
	if err := requireSeries(series); err != nil {
		return nil, err
	}
	if err := requirePositive("rsi window", window); err != nil {
		return nil, err
	}
	return series.WithColumn(model.ColRSI, RSI(series.Closes(), window))
}
