package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"StockAnalyzer/internal/model"
)

// reportColumns are the derived columns shown in the report tail.
var reportColumns = []struct {
	name  string
	label string
}{
	{model.ColMovingAverage, "MA"},
	{model.ColRSI, "RSI"},
	{model.ColMACD, "MACD"},
	{model.ColSignal, "Signal"},
}

// FormatReport renders an analysis as a Telegram HTML message: the summary
// scalars, the advisory if any, and the last tail rows of the series.
func FormatReport(a *model.Analysis, tail int) string {
	var b strings.Builder
	if a == nil || a.Series == nil {
		return "No analysis available."
	}
	s := a.Series
	ranAt := a.RanAt
	if ranAt.IsZero() {
		ranAt = time.Now()
	}

	fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n\n", html.EscapeString(s.Symbol), ranAt.Format("2006-01-02"))
	if s.Len() == 0 {
		b.WriteString("No price data for the requested window.\n")
		return b.String()
	}

	first, last := s.Bar(0), s.Bar(s.Len()-1)
	fmt.Fprintf(&b, "Rows: %d (%s → %s)\n", s.Len(), first.Time.Format(time.DateOnly), last.Time.Format(time.DateOnly))
	fmt.Fprintf(&b, "Last close: %s\n", num(last.Close))
	fmt.Fprintf(&b, "Average close: %s\n", num(a.AverageClose))
	fmt.Fprintf(&b, "Std dev: %s\n", num(a.StdDev))

	if a.Advisory != "" {
		fmt.Fprintf(&b, "\n⚠️ <b>%s</b>\n", html.EscapeString(a.Advisory))
	}

	if tail <= 0 {
		return b.String()
	}
	from := s.Len() - tail
	if from < 0 {
		from = 0
	}

	b.WriteString("\n<pre>")
	fmt.Fprintf(&b, "%-10s %9s", "Date", "Close")
	for _, c := range reportColumns {
		fmt.Fprintf(&b, " %9s", c.label)
	}
	b.WriteString("\n")
	for i := from; i < s.Len(); i++ {
		bar := s.Bar(i)
		fmt.Fprintf(&b, "%-10s %9s", bar.Time.Format(time.DateOnly), num(bar.Close))
		for _, c := range reportColumns {
			v, ok := s.Value(c.name, i)
			if !ok {
				v = model.Undefined
			}
			fmt.Fprintf(&b, " %9s", num(v))
		}
		b.WriteString("\n")
	}
	b.WriteString("</pre>")
	return b.String()
}

// FormatError renders a failed run.
func FormatError(symbol string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b> analysis failed: %s", html.EscapeString(symbol), html.EscapeString(err.Error()))
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
