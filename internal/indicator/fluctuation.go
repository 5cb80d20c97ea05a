package indicator

import (
	"fmt"
	"math"

	"StockAnalyzer/internal/model"
)

// FluctuationAdvisory is returned when the close range crosses the threshold.
const FluctuationAdvisory = "The company is unstable, be careful!"

// AverageClose returns the mean close price and logs it. An empty or nil
// series yields NaN.
func (e *Engine) AverageClose(series *model.PriceSeries) float64 {
	var closes []float64
	symbol := ""
	if series != nil {
		closes = series.Closes()
		symbol = series.Symbol
	}
	avg := Mean(closes)
	e.logger.Info().
		Str("symbol", symbol).
		Float64("average_close", avg).
		Msg("average close price")
	return avg
}

// CheckFluctuations compares the close range, as a percentage of the mean
// close, against threshold. It returns FluctuationAdvisory when the range is
// at or above the threshold and "" otherwise. A mean close of exactly zero
// returns model.ErrDivisionByZero.
func (e *Engine) CheckFluctuations(series *model.PriceSeries, threshold float64) (string, error) {
	if err := requireSeries(series); err != nil {
		return "", err
	}
	return e.checkFluctuations(series, e.AverageClose(series), threshold)
}

func (e *Engine) checkFluctuations(series *model.PriceSeries, avg, threshold float64) (string, error) {
	if series.Len() == 0 {
		return "", nil
	}
	if avg == 0 {
		return "", fmt.Errorf("%w: mean close is zero", model.ErrDivisionByZero)
	}

	lo, hi := MinMax(series.Closes())
	percent := (hi - lo) / (avg / 100)
	if math.IsNaN(percent) || percent < threshold {
		return "", nil
	}

	e.logger.Warn().
		Str("symbol", series.Symbol).
		Float64("percent", percent).
		Float64("threshold", threshold).
		Msg("high price fluctuation")
	return FluctuationAdvisory, nil
}
