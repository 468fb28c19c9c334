package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// maxContextLength truncates the extended context passed to the chatbot
const maxContextLength = 1000

// ConsumerReport is the backend-generated summary of an uploaded
// dataset: counts, prose summaries, per-column recommendations and the
// trained-model prediction
type ConsumerReport struct {
	TotalEntries            int               `json:"total_entries"`
	TotalColumns            int               `json:"total_columns"`
	GeneralSummary          string            `json:"general_summary"`
	ExtendedContext         string            `json:"extended_context"`
	ColumnRecommendations   map[string]string `json:"column_specific_recommendations"`
	BusinessRecommendations []string          `json:"business_recommendations"`
	Prediction              any               `json:"prediction"`
	CompanyName             string            `json:"company_name"`
}

// noPredictionMessage is returned when the model cannot score the dataset
const noPredictionMessage = "No prediction available"

// Generator builds consumer reports, optionally scoring uploads with a
// trained prediction model
type Generator struct {
	model *PredictionModel
}

// NewGenerator creates a report generator. model may be nil, in which
// case reports carry the no-prediction message.
func NewGenerator(model *PredictionModel) *Generator {
	return &Generator{model: model}
}

// Generate builds the full consumer report for a dataset
func (g *Generator) Generate(ds *dataset.Dataset) *ConsumerReport {
	report := &ConsumerReport{
		TotalEntries: ds.NumRows(),
		TotalColumns: ds.NumColumns(),
	}

	numeric, categorical := ds.IdentifyFeatures()

	parts := []string{
		fmt.Sprintf("This dataset contains %d records across %d variables.", ds.NumRows(), ds.NumColumns()),
	}
	if len(numeric) > 0 {
		// Mean of per-column means, matching how the summary reads
		columnMeans := make([]float64, 0, len(numeric))
		for _, col := range numeric {
			if values := ds.NumericValues(col); len(values) > 0 {
				columnMeans = append(columnMeans, stat.Mean(values, nil))
			}
		}
		if len(columnMeans) > 0 {
			parts = append(parts, fmt.Sprintf("The overall average value across numeric variables is %.2f.", stat.Mean(columnMeans, nil)))
		}
	}
	if len(categorical) > 0 {
		parts = append(parts, fmt.Sprintf("There are %d categorical variables which may indicate key customer segments.", len(categorical)))
	}
	report.GeneralSummary = strings.Join(parts, " ")
	report.ExtendedContext = buildExtendedContext(ds, report.GeneralSummary)

	report.ColumnRecommendations = ColumnRecommendations(ds)
	report.BusinessRecommendations = flattenRecommendations(report.ColumnRecommendations)

	if prediction := g.predict(ds); prediction != nil {
		report.Prediction = prediction
	} else {
		report.Prediction = noPredictionMessage
	}

	report.CompanyName = companyName(ds)
	return report
}

// buildExtendedContext assembles the chatbot context: column list, a
// one-row sample and the general summary, truncated to keep prompts
// small
func buildExtendedContext(ds *dataset.Dataset, summary string) string {
	var b strings.Builder
	b.WriteString("Columns: ")
	b.WriteString(strings.Join(ds.Columns, ", "))
	b.WriteString("\nSample Data (first row):\n")
	if len(ds.Rows) > 0 {
		sample := make([]string, 0, len(ds.Columns))
		for _, col := range ds.Columns {
			sample = append(sample, fmt.Sprintf("%s=%s", col, dataset.EncodeValue(ds.Rows[0][col])))
		}
		b.WriteString(strings.Join(sample, " "))
	}
	b.WriteString("\n")
	b.WriteString(summary)

	context := b.String()
	if len(context) > maxContextLength {
		// Back up to a rune boundary so the cut never leaves invalid UTF-8
		cut := maxContextLength
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		context = context[:cut] + "..."
	}
	return context
}

// flattenRecommendations renders the per-column map as "col: text"
// lines in stable column order
func flattenRecommendations(recs map[string]string) []string {
	columns := make([]string, 0, len(recs))
	for col := range recs {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	combined := make([]string, 0, len(columns))
	for _, col := range columns {
		combined = append(combined, fmt.Sprintf("%s: %s", col, recs[col]))
	}
	return combined
}

// predict preprocesses the dataset and scores it with the trained
// model, or returns nil when no prediction is possible
func (g *Generator) predict(ds *dataset.Dataset) []float64 {
	if g.model == nil {
		return nil
	}
	return g.model.Predict(ds.Preprocess())
}

// companyName reads the report title from the dataset when present
func companyName(ds *dataset.Dataset) string {
	for _, col := range ds.Columns {
		if col == "companyName" && len(ds.Rows) > 0 {
			if name := dataset.EncodeValue(ds.Rows[0][col]); name != "" {
				return name
			}
		}
	}
	return "ConsumerReport"
}
