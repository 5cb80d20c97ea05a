package recorder

import "StockAnalyzer/internal/model"

// Recorder persists analysis runs for later inspection.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) (int64, error)
	Close() error
}
