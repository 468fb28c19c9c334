// Package charts builds declarative chart specifications from dataset
// rows: per-column distribution charts and the filtered aggregation
// behind the dashboard's category filter.
package charts

import (
	"fmt"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// Trace is a single data series within a chart
type Trace struct {
	Type  string    `json:"type"`
	X     []string  `json:"x,omitempty"`
	Y     []float64 `json:"y,omitempty"`
	Vals  []float64 `json:"vals,omitempty"`
	NBins int       `json:"nbinsx,omitempty"`
}

// Layout describes chart presentation
type Layout struct {
	Title  string `json:"title"`
	XTitle string `json:"xaxis_title,omitempty"`
	YTitle string `json:"yaxis_title,omitempty"`
}

// Spec is a renderer-ready chart: data traces plus layout
type Spec struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// defaultHistogramBins matches the per-column distribution charts
const defaultHistogramBins = 30

// Filter is a set of string-encoded category values. An empty filter
// retains every row.
type Filter map[string]bool

// NewFilter builds a filter from selected values
func NewFilter(values ...string) Filter {
	f := make(Filter, len(values))
	for _, v := range values {
		f[v] = true
	}
	return f
}

// columnIsNumeric classifies a column from the first row where it is
// defined and non-null. This is deliberately a single-sample check: a
// column whose first populated row is text is treated as categorical
// for its whole chart even if later rows hold numbers.
func columnIsNumeric(column string, rows []dataset.Row) bool {
	for _, row := range rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		_, isFloat := v.(float64)
		return isFloat
	}
	return false
}

// DistinctValues enumerates the distinct non-null string encodings of a
// column across all rows, in first-seen order. These are the filter
// options offered for a categorical column.
func DistinctValues(column string, rows []dataset.Row) []string {
	seen := make(map[string]bool)
	var distinct []string
	for _, row := range rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		encoded := dataset.EncodeValue(v)
		if !seen[encoded] {
			seen[encoded] = true
			distinct = append(distinct, encoded)
		}
	}
	return distinct
}

// Render aggregates a column into a chart spec, honoring the selected
// category filter. Categorical columns become a bar chart of value
// counts in first-counted order; numeric columns become a histogram
// over the raw filtered values with binning left to the renderer.
// Empty rows yield an empty chart. Pure function of its inputs.
func Render(column string, rows []dataset.Row, selected Filter) Spec {
	numeric := columnIsNumeric(column, rows)

	var filtered []dataset.Row
	if len(selected) == 0 {
		filtered = rows
	} else {
		for _, row := range rows {
			v, ok := row[column]
			if !ok || v == nil {
				continue
			}
			if selected[dataset.EncodeValue(v)] {
				filtered = append(filtered, row)
			}
		}
	}

	if numeric {
		var values []float64
		for _, row := range filtered {
			if f, ok := row[column].(float64); ok {
				values = append(values, f)
			}
		}
		return Spec{
			Data: []Trace{{Type: "histogram", Vals: values}},
			Layout: Layout{
				Title:  fmt.Sprintf("Distribution of %s", column),
				XTitle: column,
				YTitle: "count",
			},
		}
	}

	counts := make(map[string]float64)
	var order []string
	for _, row := range filtered {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		encoded := dataset.EncodeValue(v)
		if _, exists := counts[encoded]; !exists {
			order = append(order, encoded)
		}
		counts[encoded]++
	}

	y := make([]float64, len(order))
	for i, v := range order {
		y[i] = counts[v]
	}

	return Spec{
		Data: []Trace{{Type: "bar", X: order, Y: y}},
		Layout: Layout{
			Title:  fmt.Sprintf("Frequency of %s", column),
			XTitle: column,
			YTitle: "count",
		},
	}
}

// ByColumn renders one unfiltered chart per dataset column: a 30-bin
// histogram for numeric columns and a value-count bar chart otherwise
func ByColumn(ds *dataset.Dataset) map[string]Spec {
	specs := make(map[string]Spec, len(ds.Columns))
	for _, col := range ds.Columns {
		if ds.IsNumeric(col) {
			specs[col] = Spec{
				Data: []Trace{{Type: "histogram", Vals: ds.NumericValues(col), NBins: defaultHistogramBins}},
				Layout: Layout{
					Title:  fmt.Sprintf("Distribution of %s", col),
					XTitle: col,
					YTitle: "count",
				},
			}
			continue
		}

		counts := make(map[string]float64)
		var order []string
		for _, v := range ds.StringValues(col) {
			if _, exists := counts[v]; !exists {
				order = append(order, v)
			}
			counts[v]++
		}
		y := make([]float64, len(order))
		for i, v := range order {
			y[i] = counts[v]
		}
		specs[col] = Spec{
			Data: []Trace{{Type: "bar", X: order, Y: y}},
			Layout: Layout{
				Title:  fmt.Sprintf("Frequency of %s", col),
				XTitle: col,
				YTitle: "count",
			},
		}
	}
	return specs
}
