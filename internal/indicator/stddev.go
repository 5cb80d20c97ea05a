package indicator

import (
	"StockAnalyzer/internal/model"
)

// AddStdDev attaches std_dev: the sample standard deviation of the whole
// close column repeated on every row.
func (e *Engine) AddStdDev(series *model.PriceSeries) (*model.PriceSeries, error) {
	if err := requireSeries(series); err != nil {
		return nil, err
	}
	std := SampleStdDev(series.Closes())
	e.logger.Info().
		Str("symbol", series.Symbol).
		Float64("std_dev", std).
		Msg("close price standard deviation")

	col := make([]float64, series.Len())
	for i := range col {
		col[i] = std
	}
	return series.WithColumn(model.ColStdDev, col)
}
