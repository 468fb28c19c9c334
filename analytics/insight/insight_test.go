package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

func clusterDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Columns: []string{"purchase_frequency", "total_spent"},
		Rows: []dataset.Row{
			{"purchase_frequency": float64(1), "total_spent": float64(10)},
			{"purchase_frequency": float64(2), "total_spent": float64(12)},
			{"purchase_frequency": float64(50), "total_spent": float64(500)},
			{"purchase_frequency": float64(52), "total_spent": float64(510)},
			{"purchase_frequency": float64(100), "total_spent": float64(1000)},
			{"purchase_frequency": float64(98), "total_spent": float64(990)},
		},
	}
}

func TestClusterUsers(t *testing.T) {
	records, err := ClusterUsers(clusterDataset())
	require.NoError(t, err)
	require.Len(t, records, 6)

	// Rows keep their original fields plus the cluster label
	assert.Equal(t, float64(1), records[0]["purchase_frequency"])
	assert.Contains(t, records[0], "cluster")

	// Nearby points land in the same cluster, distant points in
	// different ones
	assert.Equal(t, records[0]["cluster"], records[1]["cluster"])
	assert.Equal(t, records[2]["cluster"], records[3]["cluster"])
	assert.Equal(t, records[4]["cluster"], records[5]["cluster"])
	assert.NotEqual(t, records[0]["cluster"], records[2]["cluster"])
	assert.NotEqual(t, records[2]["cluster"], records[4]["cluster"])
}

func TestClusterUsersDeterministic(t *testing.T) {
	first, err := ClusterUsers(clusterDataset())
	require.NoError(t, err)
	second, err := ClusterUsers(clusterDataset())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClusterUsersMissingColumns(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"total_spent"}}
	_, err := ClusterUsers(ds)

	var missing *ErrMissingColumns
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ClusterColumns, missing.Required)
}

func TestPredictConversion(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"time_spent", "pages_visited", "converted"},
		Rows: []dataset.Row{
			{"time_spent": float64(1), "pages_visited": float64(1), "converted": float64(0)},
			{"time_spent": float64(2), "pages_visited": float64(1), "converted": float64(0)},
			{"time_spent": float64(30), "pages_visited": float64(10), "converted": float64(1)},
			{"time_spent": float64(45), "pages_visited": float64(12), "converted": float64(1)},
			{"time_spent": float64(3), "pages_visited": float64(2), "converted": float64(0)},
			{"time_spent": float64(60), "pages_visited": float64(20), "converted": float64(1)},
		},
	}

	predictions, err := PredictConversion(ds)
	require.NoError(t, err)

	// Separable training data is memorized exactly
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 1}, predictions)
}

func TestPredictConversionMissingColumns(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"time_spent", "pages_visited"}}
	_, err := PredictConversion(ds)
	assert.Error(t, err)
}

func TestRecommendProducts(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"product_interests"},
		Rows: []dataset.Row{
			{"product_interests": "laptops keyboards monitors"},
			{"product_interests": "laptops keyboards mice"},
			{"product_interests": "garden tools seeds"},
			{"product_interests": "garden hoses seeds"},
		},
	}

	recommendations, err := RecommendProducts(ds)
	require.NoError(t, err)
	require.Len(t, recommendations, 4)

	for i, recs := range recommendations {
		require.Len(t, recs, 3)
		// A row is always most similar to itself
		assert.Equal(t, i, recs[0])
	}

	// Tech rows prefer each other over garden rows and vice versa
	assert.Equal(t, 1, recommendations[0][1])
	assert.Equal(t, 0, recommendations[1][1])
	assert.Equal(t, 3, recommendations[2][1])
	assert.Equal(t, 2, recommendations[3][1])
}

func TestRecommendProductsMissingColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"notes"}}
	_, err := RecommendProducts(ds)
	assert.Error(t, err)
}

func TestKmeansFewerPointsThanClusters(t *testing.T) {
	labels := kmeans([][]float64{{1, 1}, {2, 2}}, 3)
	assert.Len(t, labels, 2)
}
