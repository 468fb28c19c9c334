// Package sales analyzes the sales column of an uploaded dataset:
// short-horizon forecasting and per-row anomaly flags.
package sales

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// SalesColumn is the column the sales analyses read
const SalesColumn = "sales"

// ForecastSteps is the forecast horizon
const ForecastSteps = 10

// anomalySigmaThreshold is the z-score beyond which a value is flagged
const anomalySigmaThreshold = 2.5

// ErrMissingSalesColumn indicates the dataset has no sales column
var ErrMissingSalesColumn = fmt.Errorf("dataset must contain a '%s' column", SalesColumn)

// Analyzer performs sales time-series analysis
type Analyzer struct {
	minDataPoints int
}

// NewAnalyzer creates an analyzer with default settings
func NewAnalyzer() *Analyzer {
	return &Analyzer{minDataPoints: 3}
}

// salesValues extracts the sales series in row order
func salesValues(ds *dataset.Dataset) ([]float64, error) {
	found := false
	for _, col := range ds.Columns {
		if col == SalesColumn {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrMissingSalesColumn
	}

	values := make([]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		if f, ok := row[SalesColumn].(float64); ok {
			values[i] = f
		}
	}
	return values, nil
}

// Forecast extrapolates the sales series ten steps ahead by fitting a
// linear trend over the observation index
func (a *Analyzer) Forecast(ds *dataset.Dataset) ([]float64, error) {
	values, err := salesValues(ds)
	if err != nil {
		return nil, err
	}
	if len(values) < a.minDataPoints {
		return nil, fmt.Errorf("insufficient data points: need %d, got %d", a.minDataPoints, len(values))
	}

	x := make([]float64, len(values))
	for i := range x {
		x[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(x, values, nil, false)

	forecast := make([]float64, ForecastSteps)
	for i := 0; i < ForecastSteps; i++ {
		step := float64(len(values) + i)
		forecast[i] = intercept + slope*step
	}
	return forecast, nil
}

// DetectAnomalies flags each sales value: -1 for values beyond the
// sigma threshold from the mean, 1 for normal values
func (a *Analyzer) DetectAnomalies(ds *dataset.Dataset) ([]int, error) {
	values, err := salesValues(ds)
	if err != nil {
		return nil, err
	}
	if len(values) < a.minDataPoints {
		return nil, fmt.Errorf("insufficient data points: need %d, got %d", a.minDataPoints, len(values))
	}

	mean, std := stat.MeanStdDev(values, nil)

	flags := make([]int, len(values))
	for i, v := range values {
		flags[i] = 1
		if std > 0 && math.Abs(v-mean)/std > anomalySigmaThreshold {
			flags[i] = -1
		}
	}
	return flags, nil
}
