package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF renders a consumer report as a downloadable PDF document
func RenderPDF(report *ConsumerReport, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(0, 6, report.GeneralSummary, "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Column-Specific Business Recommendations")
	pdf.Ln(10)

	columns := make([]string, 0, len(report.ColumnRecommendations))
	for col := range report.ColumnRecommendations {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, col)
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, report.ColumnRecommendations[col], "", "L", false)
		pdf.Ln(3)
	}
	if len(columns) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No recommendations available for this dataset.")
		pdf.Ln(8)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Prediction")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, formatPrediction(report.Prediction), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// formatPrediction renders the prediction field for print
func formatPrediction(prediction any) string {
	switch p := prediction.(type) {
	case string:
		return p
	case []float64:
		if len(p) == 0 {
			return noPredictionMessage
		}
		out := ""
		for i, v := range p {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%.4f", v)
			if i >= 19 {
				out += fmt.Sprintf(" (and %d more)", len(p)-20)
				break
			}
		}
		return out
	default:
		return fmt.Sprintf("%v", prediction)
	}
}
