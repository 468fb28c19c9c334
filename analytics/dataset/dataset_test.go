package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `region,amount,notes
EU,10,steady
US,20,
EU,,new market
APAC,5,steady
`

func TestParseCSV(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "amount", "notes"}, ds.Columns)
	require.Equal(t, 4, ds.NumRows())

	assert.Equal(t, "EU", ds.Rows[0]["region"])
	assert.Equal(t, float64(10), ds.Rows[0]["amount"])
	assert.Nil(t, ds.Rows[1]["notes"])
	assert.Nil(t, ds.Rows[2]["amount"])
}

func TestParseCSVEmptyBody(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumRows())
	assert.Equal(t, 2, ds.NumColumns())
}

func TestParseCSVNoHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestIdentifyFeatures(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	numeric, categorical := ds.IdentifyFeatures()
	assert.Equal(t, []string{"amount"}, numeric)
	assert.Equal(t, []string{"region", "notes"}, categorical)
}

// TestIsNumericMixedColumn verifies a column with any text value is not
// numeric even when most values are numbers
func TestIsNumericMixedColumn(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("value\n1\nn/a\n3\n"))
	require.NoError(t, err)
	assert.False(t, ds.IsNumeric("value"))
}

func TestPreprocess(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	frame := ds.Preprocess()

	// Numeric columns are standardized: zero mean
	amounts := frame.Data["amount"]
	require.Len(t, amounts, 4)
	var sum float64
	for _, v := range amounts {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)

	// Missing categorical values become the "Unknown" label
	labels := frame.Encoders["notes"]
	_, hasUnknown := labels["Unknown"]
	assert.True(t, hasUnknown)

	// Label encoding is deterministic over sorted distinct values
	regions := frame.Encoders["region"]
	assert.Equal(t, float64(0), regions["APAC"])
	assert.Equal(t, float64(1), regions["EU"])
	assert.Equal(t, float64(2), regions["US"])
}

func TestPreprocessMedianFill(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("amount,region\n10,EU\n,US\n20,EU\n30,US\n"))
	require.NoError(t, err)

	frame := ds.Preprocess()
	values := frame.Data["amount"]
	require.Len(t, values, 4)

	// The missing value is filled with the median (20) before scaling,
	// so it equals the scaled value of the real 20
	assert.InDelta(t, values[2], values[1], 1e-9)
}

func TestDescribe(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	overview := ds.Describe()

	assert.Equal(t, 4, overview.NumRows)
	assert.Equal(t, 3, overview.NumColumns)
	assert.Equal(t, 1, overview.MissingValues["amount"])
	assert.Equal(t, 1, overview.MissingValues["notes"])
	assert.Equal(t, "float64", overview.DataTypes["amount"])
	assert.Equal(t, "object", overview.DataTypes["region"])

	stats := overview.DescriptiveStats["amount"]
	require.NotNil(t, stats)
	assert.Equal(t, float64(3), stats["count"])
	assert.InDelta(t, 11.6667, stats["mean"], 0.001)
	assert.Equal(t, float64(5), stats["min"])
	assert.Equal(t, float64(20), stats["max"])

	assert.Equal(t, []string{"EU", "US", "APAC"}, overview.UniqueValues["region"])
}

func TestEncodeValue(t *testing.T) {
	assert.Equal(t, "EU", EncodeValue("EU"))
	assert.Equal(t, "10", EncodeValue(float64(10)))
	assert.Equal(t, "10.5", EncodeValue(float64(10.5)))
	assert.Equal(t, "", EncodeValue(nil))
}

func TestStoreSingleFlight(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.BeginUpload("user-1"))

	// A second overlapping upload for the same user is rejected
	err := store.BeginUpload("user-1")
	assert.ErrorIs(t, err, ErrUploadInFlight)

	// Other users are unaffected
	assert.NoError(t, store.BeginUpload("user-2"))

	store.CompleteUpload("user-1", &Dataset{Columns: []string{"a"}})

	// Slot is free again after completion
	assert.NoError(t, store.BeginUpload("user-1"))
	store.AbortUpload("user-1")

	// Abort keeps the previously stored dataset
	ds, err := store.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ds.Columns)
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	_, err := store.Get("nobody")
	assert.ErrorIs(t, err, ErrNoDataset)
}
