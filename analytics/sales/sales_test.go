package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

func salesDataset(values ...float64) *dataset.Dataset {
	rows := make([]dataset.Row, len(values))
	for i, v := range values {
		rows[i] = dataset.Row{SalesColumn: v}
	}
	return &dataset.Dataset{Columns: []string{SalesColumn}, Rows: rows}
}

func TestForecastLinearSeries(t *testing.T) {
	// sales = 10*(index+1), so the trend extrapolates exactly
	analyzer := NewAnalyzer()
	forecast, err := analyzer.Forecast(salesDataset(10, 20, 30, 40, 50))
	require.NoError(t, err)
	require.Len(t, forecast, ForecastSteps)

	for i, want := range []float64{60, 70, 80, 90, 100, 110, 120, 130, 140, 150} {
		assert.InDelta(t, want, forecast[i], 1e-9)
	}
}

func TestForecastFlatSeries(t *testing.T) {
	analyzer := NewAnalyzer()
	forecast, err := analyzer.Forecast(salesDataset(42, 42, 42, 42))
	require.NoError(t, err)

	for _, v := range forecast {
		assert.InDelta(t, 42.0, v, 1e-9)
	}
}

func TestForecastMissingColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"revenue"}}
	_, err := NewAnalyzer().Forecast(ds)
	assert.ErrorIs(t, err, ErrMissingSalesColumn)
}

func TestForecastInsufficientData(t *testing.T) {
	_, err := NewAnalyzer().Forecast(salesDataset(10, 20))
	assert.ErrorContains(t, err, "insufficient data points")
}

func TestDetectAnomalies(t *testing.T) {
	// Eight identical values plus one far outlier: the outlier sits
	// 2.67 sample standard deviations from the mean
	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 100}
	flags, err := NewAnalyzer().DetectAnomalies(salesDataset(values...))
	require.NoError(t, err)
	require.Len(t, flags, len(values))

	for i := 0; i < 8; i++ {
		assert.Equal(t, 1, flags[i])
	}
	assert.Equal(t, -1, flags[8])
}

func TestDetectAnomaliesUniformSeries(t *testing.T) {
	flags, err := NewAnalyzer().DetectAnomalies(salesDataset(5, 5, 5, 5))
	require.NoError(t, err)

	for _, flag := range flags {
		assert.Equal(t, 1, flag)
	}
}

func TestDetectAnomaliesMissingColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"amount"}}
	_, err := NewAnalyzer().DetectAnomalies(ds)
	assert.ErrorIs(t, err, ErrMissingSalesColumn)
}
