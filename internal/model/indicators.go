package model

import "time"

// Derived column names.
const (
	ColMovingAverage = "moving_average"
	ColRSI           = "rsi"
	ColEMAShort      = "ema_short"
	ColEMALong       = "ema_long"
	ColMACD          = "macd"
	ColSignal        = "signal"
	ColStdDev        = "std_dev"
)

// DerivedColumns returns every derived column name in display and storage order.
func DerivedColumns() []string {
	return []string{ColMovingAverage, ColRSI, ColEMAShort, ColEMALong, ColMACD, ColSignal, ColStdDev}
}

// Analysis holds the annotated series and scalar outputs of one run.
type Analysis struct {
	Series       *PriceSeries
	AverageClose float64
	StdDev       float64
	Advisory     string // empty when the close range stays under the threshold
	RanAt        time.Time
}
