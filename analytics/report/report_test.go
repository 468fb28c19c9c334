package report

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

func makeDataset(columns []string, rows []dataset.Row) *dataset.Dataset {
	return &dataset.Dataset{Columns: columns, Rows: rows}
}

func TestColumnRecommendationsRevenueUnder(t *testing.T) {
	ds := makeDataset([]string{"purchase_amount"}, []dataset.Row{
		{"purchase_amount": float64(10)},
		{"purchase_amount": float64(30)},
	})

	recs := ColumnRecommendations(ds)
	require.Contains(t, recs, "purchase_amount")

	// Mean 20 is below the revenue threshold of 50
	assert.Contains(t, recs["purchase_amount"], "'purchase_amount'")
	assert.Contains(t, recs["purchase_amount"], "20.00")
}

func TestColumnRecommendationsRevenueOver(t *testing.T) {
	ds := makeDataset([]string{"revenue"}, []dataset.Row{
		{"revenue": float64(80)},
		{"revenue": float64(120)},
	})

	recs := ColumnRecommendations(ds)
	require.Contains(t, recs, "revenue")
	assert.Contains(t, recs["revenue"], "100.00")

	// Over-threshold revenue gets a strength-framed variant
	for _, variant := range revenueUnder {
		rendered := fmt.Sprintf(variant, "revenue", 100.0)
		assert.NotEqual(t, rendered, recs["revenue"])
	}
}

func TestColumnRecommendationsRatingThreshold(t *testing.T) {
	low := makeDataset([]string{"rating"}, []dataset.Row{
		{"rating": float64(2)},
		{"rating": float64(3)},
	})
	high := makeDataset([]string{"rating"}, []dataset.Row{
		{"rating": float64(4)},
		{"rating": float64(5)},
	})

	lowRecs := ColumnRecommendations(low)
	highRecs := ColumnRecommendations(high)
	require.Contains(t, lowRecs, "rating")
	require.Contains(t, highRecs, "rating")

	// Same column name picks the same variant index, so the texts
	// differ only because thresholds chose different families
	assert.NotEqual(t, lowRecs["rating"], highRecs["rating"])
}

func TestColumnRecommendationsSkipsIrrelevantColumns(t *testing.T) {
	ds := makeDataset([]string{"latitude", "notes"}, []dataset.Row{
		{"latitude": float64(52.5), "notes": "ok"},
	})

	recs := ColumnRecommendations(ds)
	assert.Empty(t, recs)
}

func TestColumnRecommendationsCategoricalDiversity(t *testing.T) {
	rows := make([]dataset.Row, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, dataset.Row{"region": fmt.Sprintf("r%d", i)})
	}
	diverse := makeDataset([]string{"region"}, rows)

	concentrated := makeDataset([]string{"region"}, []dataset.Row{
		{"region": "EU"}, {"region": "EU"}, {"region": "US"},
	})

	diverseRecs := ColumnRecommendations(diverse)
	concentratedRecs := ColumnRecommendations(concentrated)
	require.Contains(t, diverseRecs, "region")
	require.Contains(t, concentratedRecs, "region")
	assert.NotEqual(t, diverseRecs["region"], concentratedRecs["region"])
}

func TestPickVariantDeterministic(t *testing.T) {
	first := pickVariant(revenueUnder, "amount", 10.0)
	second := pickVariant(revenueUnder, "amount", 10.0)
	assert.Equal(t, first, second)
}

func TestGenerateSummary(t *testing.T) {
	gen := NewGenerator(nil)
	ds := makeDataset([]string{"region", "amount"}, []dataset.Row{
		{"region": "EU", "amount": float64(10)},
		{"region": "US", "amount": float64(20)},
		{"region": "EU", "amount": float64(5)},
	})

	report := gen.Generate(ds)

	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, 2, report.TotalColumns)
	assert.Contains(t, report.GeneralSummary, "This dataset contains 3 records across 2 variables.")
	assert.Contains(t, report.GeneralSummary, "11.67")
	assert.Contains(t, report.GeneralSummary, "1 categorical variables")
	assert.Equal(t, noPredictionMessage, report.Prediction)
	assert.Equal(t, "ConsumerReport", report.CompanyName)
}

func TestGenerateCompanyName(t *testing.T) {
	gen := NewGenerator(nil)
	ds := makeDataset([]string{"companyName", "amount"}, []dataset.Row{
		{"companyName": "Acme", "amount": float64(10)},
	})

	report := gen.Generate(ds)
	assert.Equal(t, "Acme", report.CompanyName)
}

func TestGenerateExtendedContextTruncation(t *testing.T) {
	gen := NewGenerator(nil)

	long := strings.Repeat("x", 600)
	ds := makeDataset([]string{"notes", "details"}, []dataset.Row{
		{"notes": long, "details": long},
	})

	report := gen.Generate(ds)
	assert.True(t, strings.HasSuffix(report.ExtendedContext, "..."))
	assert.LessOrEqual(t, len(report.ExtendedContext), maxContextLength+3)
	assert.True(t, strings.HasPrefix(report.ExtendedContext, "Columns: notes, details"))
}

func TestGenerateExtendedContextTruncatesOnRuneBoundary(t *testing.T) {
	gen := NewGenerator(nil)

	// Every byte past the header is part of a two-byte rune, so a
	// naive byte cut would leave invalid UTF-8
	long := strings.Repeat("é", 600)
	ds := makeDataset([]string{"notes"}, []dataset.Row{
		{"notes": long},
	})

	report := gen.Generate(ds)
	assert.True(t, strings.HasSuffix(report.ExtendedContext, "..."))
	assert.True(t, utf8.ValidString(report.ExtendedContext))
}

func TestBusinessRecommendationsFlattened(t *testing.T) {
	gen := NewGenerator(nil)
	ds := makeDataset([]string{"amount", "rating"}, []dataset.Row{
		{"amount": float64(10), "rating": float64(2)},
	})

	report := gen.Generate(ds)
	require.Len(t, report.BusinessRecommendations, 2)
	assert.True(t, strings.HasPrefix(report.BusinessRecommendations[0], "amount: "))
	assert.True(t, strings.HasPrefix(report.BusinessRecommendations[1], "rating: "))
}

func TestPredictionModel(t *testing.T) {
	model := &PredictionModel{
		Weights: map[string]float64{
			"Purchase_Amount":        2,
			"Frequency_of_Purchase":  1,
			"Price_per_Hour":         0,
			"Research_Effectiveness": 0,
		},
		Intercept: 1,
	}

	frame := &dataset.Frame{
		Columns: []string{"Purchase_Amount", "Frequency_of_Purchase"},
		Data: map[string][]float64{
			"Purchase_Amount":       {1, -1},
			"Frequency_of_Purchase": {0.5, 0},
		},
	}

	predictions := model.Predict(frame)
	require.Len(t, predictions, 2)
	assert.InDelta(t, 3.5, predictions[0], 1e-9)
	assert.InDelta(t, -1, predictions[1], 1e-9)
}

// TestPredictionModelNoSharedFeatures verifies datasets without any
// model feature are not scored
func TestPredictionModelNoSharedFeatures(t *testing.T) {
	model := &PredictionModel{Weights: map[string]float64{"Purchase_Amount": 1}}
	frame := &dataset.Frame{
		Columns: []string{"region"},
		Data:    map[string][]float64{"region": {0, 1}},
	}

	assert.Nil(t, model.Predict(frame))
}
