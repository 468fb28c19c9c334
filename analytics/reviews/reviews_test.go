package reviews

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

func TestPolarity(t *testing.T) {
	assert.Greater(t, Polarity("Great product, I love it!"), 0.0)
	assert.Less(t, Polarity("Terrible quality, completely broken."), 0.0)
	assert.Equal(t, 0.0, Polarity("It arrived on Tuesday."))
	assert.Equal(t, 0.0, Polarity(""))

	// Negation flips the sentiment word that follows
	assert.Less(t, Polarity("not good at all"), 0.0)
}

func TestPolarityRange(t *testing.T) {
	texts := []string{
		"good good good",
		"bad bad bad",
		"good bad",
		"excellent but slow and broken",
	}
	for _, text := range texts {
		p := Polarity(text)
		assert.GreaterOrEqual(t, p, -1.0, text)
		assert.LessOrEqual(t, p, 1.0, text)
	}

	assert.Equal(t, 1.0, Polarity("good good good"))
	assert.Equal(t, -1.0, Polarity("bad bad bad"))
	assert.Equal(t, 0.0, Polarity("good bad"))
}

func TestAnalyzeSentiment(t *testing.T) {
	ds := &dataset.Dataset{
		Columns: []string{"review_content"},
		Rows: []dataset.Row{
			{"review_content": "Excellent product, highly recommended"},
			{"review_content": "Awful, total waste of money"},
			{"review_content": "It is a chair"},
		},
	}

	sentiments, err := AnalyzeSentiment(ds)
	require.NoError(t, err)
	require.Len(t, sentiments, 3)

	assert.Greater(t, sentiments[0], 0.0)
	assert.Less(t, sentiments[1], 0.0)
	assert.Equal(t, 0.0, sentiments[2])
}

func TestAnalyzeSentimentMissingColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"notes"}}
	_, err := AnalyzeSentiment(ds)

	var missing *ErrMissingColumn
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ReviewColumn, missing.Column)
}

// TestPredictRatingExactFit verifies the OLS model reproduces ratings
// that are an exact linear function of the features
func TestPredictRatingExactFit(t *testing.T) {
	// rating = 1 + 0.1*price + 0.01*review_length
	rows := []dataset.Row{
		{"price": float64(10), "review_length": float64(100), "rating": float64(3)},
		{"price": float64(20), "review_length": float64(50), "rating": float64(3.5)},
		{"price": float64(5), "review_length": float64(200), "rating": float64(3.5)},
		{"price": float64(40), "review_length": float64(10), "rating": float64(5.1)},
	}
	ds := &dataset.Dataset{
		Columns: []string{"price", "review_length", "rating"},
		Rows:    rows,
	}

	predictions, err := PredictRating(ds)
	require.NoError(t, err)
	require.Len(t, predictions, 4)

	for i, row := range rows {
		assert.InDelta(t, row["rating"].(float64), predictions[i], 1e-6)
	}
}

func TestPredictRatingMissingColumn(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"price", "rating"}}
	_, err := PredictRating(ds)
	assert.Error(t, err)
}

func TestPredictRatingEmptyDataset(t *testing.T) {
	ds := &dataset.Dataset{Columns: []string{"price", "review_length", "rating"}}
	_, err := PredictRating(ds)
	assert.Error(t, err)
}
