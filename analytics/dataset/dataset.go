// Package dataset parses uploaded CSV files into a column-oriented
// frame and provides the preprocessing used by downstream analysis.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Row is a single record. Values are float64 for numeric cells,
// string for text cells, and nil for missing cells.
type Row map[string]any

// Dataset is a parsed upload: column order plus row records
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ParseCSV reads a CSV stream into a Dataset. The first record is the
// header. Cells that parse as numbers become float64; empty cells
// become nil.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	ds := &Dataset{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = coerceValue(record[i])
		}
		ds.Rows = append(ds.Rows, row)
	}

	return ds, nil
}

// coerceValue converts a raw CSV cell into nil, float64 or string
func coerceValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

// NumRows returns the number of rows
func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

// NumColumns returns the number of columns
func (d *Dataset) NumColumns() int {
	return len(d.Columns)
}

// IsNumeric reports whether every non-missing value of a column is
// numeric. A column with no values at all is not numeric.
func (d *Dataset) IsNumeric(column string) bool {
	seen := false
	for _, row := range d.Rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		if _, isFloat := v.(float64); !isFloat {
			return false
		}
		seen = true
	}
	return seen
}

// IdentifyFeatures splits the columns into numeric and categorical
// feature lists, preserving column order
func (d *Dataset) IdentifyFeatures() (numeric, categorical []string) {
	for _, col := range d.Columns {
		if d.IsNumeric(col) {
			numeric = append(numeric, col)
		} else {
			categorical = append(categorical, col)
		}
	}
	return numeric, categorical
}

// NumericValues returns the non-missing numeric values of a column in
// row order
func (d *Dataset) NumericValues(column string) []float64 {
	var values []float64
	for _, row := range d.Rows {
		if f, ok := row[column].(float64); ok {
			values = append(values, f)
		}
	}
	return values
}

// StringValues returns the non-missing values of a column string-encoded,
// in row order
func (d *Dataset) StringValues(column string) []string {
	var values []string
	for _, row := range d.Rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		values = append(values, EncodeValue(v))
	}
	return values
}

// EncodeValue renders a cell value as its canonical string form
func EncodeValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Frame is a fully numeric view of a dataset produced by Preprocess:
// medians imputed, categories label-encoded and numeric columns
// standardized
type Frame struct {
	Columns []string
	Data    map[string][]float64
	// Encoders maps each categorical column to its label table
	Encoders map[string]map[string]float64
}

// Preprocess converts the dataset into a numeric frame: numeric columns
// have missing values filled with the column median and are then
// standardized to zero mean and unit variance; categorical columns have
// missing values filled with "Unknown" and are label-encoded by sorted
// value order.
func (d *Dataset) Preprocess() *Frame {
	numeric, categorical := d.IdentifyFeatures()

	frame := &Frame{
		Columns:  append(append([]string{}, numeric...), categorical...),
		Data:     make(map[string][]float64),
		Encoders: make(map[string]map[string]float64),
	}

	for _, col := range numeric {
		median := columnMedian(d.NumericValues(col))
		values := make([]float64, len(d.Rows))
		for i, row := range d.Rows {
			if f, ok := row[col].(float64); ok {
				values[i] = f
			} else {
				values[i] = median
			}
		}
		frame.Data[col] = standardize(values)
	}

	for _, col := range categorical {
		labels := make(map[string]float64)
		raw := make([]string, len(d.Rows))
		for i, row := range d.Rows {
			v := row[col]
			if v == nil {
				raw[i] = "Unknown"
			} else {
				raw[i] = EncodeValue(v)
			}
			labels[raw[i]] = 0
		}

		// Assign labels in sorted order so encoding is deterministic
		distinct := make([]string, 0, len(labels))
		for v := range labels {
			distinct = append(distinct, v)
		}
		sort.Strings(distinct)
		for i, v := range distinct {
			labels[v] = float64(i)
		}

		values := make([]float64, len(raw))
		for i, v := range raw {
			values[i] = labels[v]
		}
		frame.Data[col] = values
		frame.Encoders[col] = labels
	}

	return frame
}

// columnMedian returns the median of values, or 0 for an empty column
func columnMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// standardize scales values to zero mean and unit variance. A constant
// column is returned as all zeros.
func standardize(values []float64) []float64 {
	if len(values) == 0 {
		return values
	}

	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || len(values) == 1 {
		return make([]float64, len(values))
	}

	scaled := make([]float64, len(values))
	for i, v := range values {
		scaled[i] = (v - mean) / std
	}
	return scaled
}

// Overview summarizes the dataset shape and contents
type Overview struct {
	NumRows          int                           `json:"num_rows"`
	NumColumns       int                           `json:"num_columns"`
	Columns          []string                      `json:"columns"`
	MissingValues    map[string]int                `json:"missing_values"`
	DataTypes        map[string]string             `json:"data_types"`
	DescriptiveStats map[string]map[string]float64 `json:"descriptive_stats,omitempty"`
	UniqueValues     map[string][]string           `json:"unique_values,omitempty"`
}

// Describe builds the overview blob: shape, missing-value counts,
// per-column types, descriptive statistics for numeric columns and the
// distinct values of categorical columns
func (d *Dataset) Describe() *Overview {
	overview := &Overview{
		NumRows:       d.NumRows(),
		NumColumns:    d.NumColumns(),
		Columns:       d.Columns,
		MissingValues: make(map[string]int),
		DataTypes:     make(map[string]string),
	}

	numeric, categorical := d.IdentifyFeatures()

	for _, col := range d.Columns {
		missing := 0
		for _, row := range d.Rows {
			if v, ok := row[col]; !ok || v == nil {
				missing++
			}
		}
		overview.MissingValues[col] = missing
	}
	for _, col := range numeric {
		overview.DataTypes[col] = "float64"
	}
	for _, col := range categorical {
		overview.DataTypes[col] = "object"
	}

	if len(numeric) > 0 {
		overview.DescriptiveStats = make(map[string]map[string]float64)
		for _, col := range numeric {
			values := d.NumericValues(col)
			if len(values) == 0 {
				continue
			}
			sorted := make([]float64, len(values))
			copy(sorted, values)
			sort.Float64s(sorted)

			mean, std := stat.MeanStdDev(values, nil)
			if len(values) < 2 {
				// Sample stddev of one value is NaN, which JSON cannot carry
				std = 0
			}
			overview.DescriptiveStats[col] = map[string]float64{
				"count": float64(len(values)),
				"mean":  mean,
				"std":   std,
				"min":   sorted[0],
				"25%":   stat.Quantile(0.25, stat.Empirical, sorted, nil),
				"50%":   stat.Quantile(0.5, stat.Empirical, sorted, nil),
				"75%":   stat.Quantile(0.75, stat.Empirical, sorted, nil),
				"max":   sorted[len(sorted)-1],
			}
		}
	}

	if len(categorical) > 0 {
		overview.UniqueValues = make(map[string][]string)
		for _, col := range categorical {
			seen := make(map[string]bool)
			var distinct []string
			for _, v := range d.StringValues(col) {
				if !seen[v] {
					seen[v] = true
					distinct = append(distinct, v)
				}
			}
			overview.UniqueValues[col] = distinct
		}
	}

	return overview
}
