package indicator

import (
	"bytes"
	"math"
	"testing"

	"StockAnalyzer/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────────────────
// Moving average
// ────────────────────────────────────────────────────────────

func TestMovingAverage_WarmupAndValues(t *testing.T) {
	e, _ := newTestEngine()
	closes := []float64{10, 11, 12, 13, 14, 15, 16}

	for _, w := range []int{1, 3, 5, 7} {
		out, err := e.AddMovingAverage(seriesOf(t, closes...), w)
		require.NoError(t, err)
		ma := column(t, out, model.ColMovingAverage)

		for i := range closes {
			if i < w-1 {
				assert.False(t, model.IsDefined(ma[i]), "window %d row %d should be undefined", w, i)
				continue
			}
			want := Mean(closes[i-w+1 : i+1])
			assert.InDelta(t, want, ma[i], tol, "window %d row %d", w, i)
		}
	}
}

func TestMovingAverage_HandCalculated(t *testing.T) {
	// (100+102+104)/3 = 102, (102+104+103)/3 = 103, (104+103+105)/3 = 104
	e, _ := newTestEngine()
	out, err := e.AddMovingAverage(seriesOf(t, 100, 102, 104, 103, 105), 3)
	require.NoError(t, err)
	ma := column(t, out, model.ColMovingAverage)
	assert.InDelta(t, 102.0, ma[2], tol)
	assert.InDelta(t, 103.0, ma[3], tol)
	assert.InDelta(t, 104.0, ma[4], tol)
}

func TestMovingAverage_WindowLongerThanSeries(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.AddMovingAverage(seriesOf(t, 1, 2, 3), 5)
	require.NoError(t, err)
	for _, v := range column(t, out, model.ColMovingAverage) {
		assert.False(t, model.IsDefined(v))
	}
}

func TestMovingAverage_Idempotent(t *testing.T) {
	e, _ := newTestEngine()
	once, err := e.AddMovingAverage(seriesOf(t, 5, 7, 9, 4, 6, 8, 3), 3)
	require.NoError(t, err)
	twice, err := e.AddMovingAverage(once, 3)
	require.NoError(t, err)

	a := column(t, once, model.ColMovingAverage)
	b := column(t, twice, model.ColMovingAverage)
	for i := range a {
		if !model.IsDefined(a[i]) {
			assert.False(t, model.IsDefined(b[i]))
			continue
		}
		assert.Equal(t, a[i], b[i])
	}
	assert.Equal(t, []string{model.ColMovingAverage}, twice.Columns())
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	e, _ := newTestEngine()
	for _, w := range []int{0, -3} {
		_, err := e.AddMovingAverage(seriesOf(t, 1, 2), w)
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	}
}

func TestMovingAverage_KeepsBars(t *testing.T) {
	e, _ := newTestEngine()
	in := seriesOf(t, 3, 1, 2)
	out, err := e.AddMovingAverage(in, 2)
	require.NoError(t, err)
	assert.Equal(t, in.Bars(), out.Bars())
}

// ────────────────────────────────────────────────────────────
// Average close / fluctuations
// ────────────────────────────────────────────────────────────

func TestAverageClose(t *testing.T) {
	e, logs := newTestEngine()
	assert.InDelta(t, 20.0, e.AverageClose(seriesOf(t, 10, 20, 30)), tol)
	assert.Contains(t, logs.String(), `"average_close":20`)
	assert.Contains(t, logs.String(), `"level":"info"`)
}

func TestAverageClose_Empty(t *testing.T) {
	e, _ := newTestEngine()
	assert.True(t, math.IsNaN(e.AverageClose(seriesOf(t))))
	assert.True(t, math.IsNaN(e.AverageClose(nil)))
}

func TestCheckFluctuations(t *testing.T) {
	tests := []struct {
		name      string
		closes    []float64
		threshold float64
		want      string
	}{
		{"range 20% meets threshold", []float64{90, 100, 110}, 20, FluctuationAdvisory},
		{"range 10% below threshold", []float64{95, 100, 105}, 20, ""},
		{"lower threshold", []float64{95, 100, 105}, 10, FluctuationAdvisory},
		{"flat series", []float64{50, 50, 50}, 20, ""},
		{"empty series", nil, 20, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, logs := newTestEngine()
			got, err := e.CheckFluctuations(seriesOf(t, tt.closes...), tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.want != "" {
				assert.Contains(t, logs.String(), `"level":"warn"`)
				assert.Contains(t, logs.String(), "high price fluctuation")
			} else {
				assert.NotContains(t, logs.String(), `"level":"warn"`)
			}
		})
	}
}

func TestCheckFluctuations_ZeroMean(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.CheckFluctuations(seriesOf(t, -5, 5), 20)
	assert.ErrorIs(t, err, model.ErrDivisionByZero)

	_, err = e.CheckFluctuations(seriesOf(t, 0, 0), 20)
	assert.ErrorIs(t, err, model.ErrDivisionByZero)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_HandCalculated(t *testing.T) {
	// deltas: -, +1, +1, -1, +1 ; window 2
	// row 2: gain 1, loss 0      -> 100
	// row 3: gain .5, loss .5    -> 50
	// row 4: gain .5, loss .5    -> 50
	e, _ := newTestEngine()
	out, err := e.AddRSI(seriesOf(t, 1, 2, 3, 2, 3), 2)
	require.NoError(t, err)
	rsi := column(t, out, model.ColRSI)

	assert.False(t, model.IsDefined(rsi[0]))
	assert.False(t, model.IsDefined(rsi[1]))
	assert.InDelta(t, 100.0, rsi[2], tol)
	assert.InDelta(t, 50.0, rsi[3], tol)
	assert.InDelta(t, 50.0, rsi[4], tol)
}

func TestRSI_OneThirdLosses(t *testing.T) {
	// window 3 over deltas +2, +2, -2: gain 4/3, loss 2/3, rs 2 -> 66.666...
	e, _ := newTestEngine()
	out, err := e.AddRSI(seriesOf(t, 10, 12, 14, 12), 3)
	require.NoError(t, err)
	rsi := column(t, out, model.ColRSI)
	assert.InDelta(t, 100.0-100.0/3.0, rsi[3], tol)
}

func TestRSI_Bounded(t *testing.T) {
	e, _ := newTestEngine()
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + 15*math.Sin(float64(i)/4) + float64(i%5)
	}
	out, err := e.AddRSI(seriesOf(t, closes...), DefaultRSIWindow)
	require.NoError(t, err)
	for i, v := range column(t, out, model.ColRSI) {
		if i < DefaultRSIWindow {
			assert.False(t, model.IsDefined(v))
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestRSI_Saturation(t *testing.T) {
	e, _ := newTestEngine()

	rising, err := e.AddRSI(seriesOf(t, 1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	v, ok := rising.Value(model.ColRSI, 4)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)

	falling, err := e.AddRSI(seriesOf(t, 5, 4, 3, 2, 1), 3)
	require.NoError(t, err)
	v, ok = falling.Value(model.ColRSI, 4)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	flat, err := e.AddRSI(seriesOf(t, 7, 7, 7, 7), 2)
	require.NoError(t, err)
	v, ok = flat.Value(model.ColRSI, 3)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestRSI_InvalidWindow(t *testing.T) {
	e, _ := newTestEngine()
	_, err := e.AddRSI(seriesOf(t, 1, 2, 3), 0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestEMA_HandCalculated(t *testing.T) {
	// span 3 -> alpha 0.5
	// 10, 0.5*12+0.5*10 = 11, 0.5*14+0.5*11 = 12.5
	got := EMA([]float64{10, 12, 14}, 3)
	assert.InDeltaSlice(t, []float64{10, 11, 12.5}, got, tol)
	assert.Empty(t, EMA(nil, 3))
}

func TestMACD_DefinedFromFirstRow(t *testing.T) {
	e, _ := newTestEngine()
	closes := []float64{100, 101, 99, 102, 104, 103, 105, 107, 106, 108}
	out, err := e.AddMACD(seriesOf(t, closes...), DefaultMACDShort, DefaultMACDLong, DefaultMACDSignal)
	require.NoError(t, err)

	short := column(t, out, model.ColEMAShort)
	long := column(t, out, model.ColEMALong)
	macd := column(t, out, model.ColMACD)
	signal := column(t, out, model.ColSignal)

	assert.Equal(t, closes[0], short[0])
	assert.Equal(t, closes[0], long[0])
	assert.Equal(t, 0.0, macd[0])
	assert.Equal(t, 0.0, signal[0])

	for i := range closes {
		for _, col := range [][]float64{short, long, macd, signal} {
			assert.True(t, model.IsDefined(col[i]), "row %d", i)
		}
		assert.InDelta(t, short[i]-long[i], macd[i], tol)
	}
	assert.InDeltaSlice(t, EMA(macd, DefaultMACDSignal), signal, tol)
}

func TestMACD_HandCalculated(t *testing.T) {
	// short span 1 (alpha 1) tracks close; long span 3 (alpha .5): 10, 11, 12.5
	// macd: 0, 1, 1.5 ; signal span 3: 0, .5, 1
	e, _ := newTestEngine()
	out, err := e.AddMACD(seriesOf(t, 10, 12, 14), 1, 3, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 1.5}, column(t, out, model.ColMACD), tol)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, column(t, out, model.ColSignal), tol)
}

func TestMACD_InvalidWindows(t *testing.T) {
	e, _ := newTestEngine()
	for _, w := range [][3]int{{0, 26, 9}, {12, 0, 9}, {12, 26, -1}} {
		_, err := e.AddMACD(seriesOf(t, 1, 2, 3), w[0], w[1], w[2])
		assert.ErrorIs(t, err, model.ErrInvalidArgument, "windows %v", w)
	}
}

// ────────────────────────────────────────────────────────────
// Standard deviation
// ────────────────────────────────────────────────────────────

func TestStdDev_SampleBroadcast(t *testing.T) {
	// mean 5, sum of squares 32, n-1 = 7
	e, logs := newTestEngine()
	out, err := e.AddStdDev(seriesOf(t, 2, 4, 4, 4, 5, 5, 7, 9))
	require.NoError(t, err)

	want := math.Sqrt(32.0 / 7.0)
	std := column(t, out, model.ColStdDev)
	for i := range std {
		assert.Equal(t, std[0], std[i])
	}
	assert.InDelta(t, want, std[0], tol)
	assert.Contains(t, logs.String(), "close price standard deviation")
}

func TestStdDev_SingleRow(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.AddStdDev(seriesOf(t, 42))
	require.NoError(t, err)
	_, ok := out.Value(model.ColStdDev, 0)
	assert.False(t, ok)
}

func TestTransforms_LogNothingUnexpected(t *testing.T) {
	e, logs := newTestEngine()
	s := seriesOf(t, 1, 2, 3, 4, 5, 6)
	_, err := e.AddMovingAverage(s, 2)
	require.NoError(t, err)
	_, err = e.AddRSI(s, 2)
	require.NoError(t, err)
	_, err = e.AddMACD(s, 2, 4, 2)
	require.NoError(t, err)
	assert.Zero(t, bytes.Count(logs.Bytes(), []byte("\n")))
}
