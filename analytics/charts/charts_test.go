package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

func regionRows() []dataset.Row {
	return []dataset.Row{
		{"region": "EU", "amount": float64(10)},
		{"region": "US", "amount": float64(20)},
		{"region": "EU", "amount": float64(5)},
	}
}

// TestRenderCategoricalNoFilter tests the end-to-end scenario: region
// column, no filter
func TestRenderCategoricalNoFilter(t *testing.T) {
	spec := Render("region", regionRows(), nil)

	require.Len(t, spec.Data, 1)
	assert.Equal(t, "bar", spec.Data[0].Type)
	assert.Equal(t, []string{"EU", "US"}, spec.Data[0].X)
	assert.Equal(t, []float64{2, 1}, spec.Data[0].Y)
	assert.Equal(t, "Frequency of region", spec.Layout.Title)
}

// TestRenderCategoricalWithFilter tests filtering down to {"EU"}
func TestRenderCategoricalWithFilter(t *testing.T) {
	spec := Render("region", regionRows(), NewFilter("EU"))

	require.Len(t, spec.Data, 1)
	assert.Equal(t, []string{"EU"}, spec.Data[0].X)
	assert.Equal(t, []float64{2}, spec.Data[0].Y)
}

// TestRenderFilterCountSum verifies that for a non-empty filter the
// category counts sum to the number of rows whose value is in the
// filter set
func TestRenderFilterCountSum(t *testing.T) {
	rows := []dataset.Row{
		{"segment": "a"}, {"segment": "b"}, {"segment": "a"},
		{"segment": "c"}, {"segment": "b"}, {"segment": "a"},
		{"segment": nil},
	}
	filter := NewFilter("a", "c")

	spec := Render("segment", rows, filter)

	var sum float64
	for _, count := range spec.Data[0].Y {
		sum += count
	}

	inFilter := 0
	for _, row := range rows {
		if v := row["segment"]; v != nil && filter[dataset.EncodeValue(v)] {
			inFilter++
		}
	}
	assert.Equal(t, float64(inFilter), sum)
}

// TestRenderNumericPassthrough verifies numeric aggregation with an
// empty filter passes through exactly the rows with a defined value
func TestRenderNumericPassthrough(t *testing.T) {
	rows := []dataset.Row{
		{"amount": float64(10)},
		{"amount": nil},
		{"amount": float64(20)},
		{"amount": float64(5)},
	}

	spec := Render("amount", rows, nil)

	require.Len(t, spec.Data, 1)
	assert.Equal(t, "histogram", spec.Data[0].Type)
	assert.Equal(t, []float64{10, 20, 5}, spec.Data[0].Vals)
	assert.Equal(t, "Distribution of amount", spec.Layout.Title)
}

// TestTypeClassificationFirstNonNull verifies classification is driven
// solely by the first non-null value in row order
func TestTypeClassificationFirstNonNull(t *testing.T) {
	mixed := []dataset.Row{
		{"value": nil},
		{"value": "n/a"},
		{"value": float64(1)},
		{"value": float64(2)},
	}

	// First non-null value is text, so the whole column charts as
	// categorical
	spec := Render("value", mixed, nil)
	assert.Equal(t, "bar", spec.Data[0].Type)

	// Reordered so a number leads, the same data charts as numeric
	reordered := []dataset.Row{mixed[2], mixed[1], mixed[0], mixed[3]}
	spec = Render("value", reordered, nil)
	assert.Equal(t, "histogram", spec.Data[0].Type)

	// Deterministic for a given ordering
	again := Render("value", reordered, nil)
	assert.Equal(t, spec, again)
}

// TestRenderEmptyRows verifies an empty dataset yields an empty chart,
// not an error state
func TestRenderEmptyRows(t *testing.T) {
	spec := Render("region", nil, nil)

	require.Len(t, spec.Data, 1)
	assert.Empty(t, spec.Data[0].X)
	assert.Empty(t, spec.Data[0].Y)
}

// TestRenderIsPure verifies Render does not mutate its inputs
func TestRenderIsPure(t *testing.T) {
	rows := regionRows()
	filter := NewFilter("EU")

	_ = Render("region", rows, filter)

	assert.Equal(t, regionRows(), rows)
	assert.Equal(t, NewFilter("EU"), filter)
}

func TestDistinctValuesFirstSeenOrder(t *testing.T) {
	rows := []dataset.Row{
		{"region": "US"},
		{"region": nil},
		{"region": "EU"},
		{"region": "US"},
		{"region": "APAC"},
	}

	assert.Equal(t, []string{"US", "EU", "APAC"}, DistinctValues("region", rows))
}

func TestByColumn(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"region", "amount"},
		Rows:    regionRows(),
	}

	specs := ByColumn(ds)
	require.Len(t, specs, 2)

	assert.Equal(t, "bar", specs["region"].Data[0].Type)
	assert.Equal(t, []string{"EU", "US"}, specs["region"].Data[0].X)

	assert.Equal(t, "histogram", specs["amount"].Data[0].Type)
	assert.Equal(t, 30, specs["amount"].Data[0].NBins)
	assert.Equal(t, []float64{10, 20, 5}, specs["amount"].Data[0].Vals)
}
