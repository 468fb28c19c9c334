// Package report generates the consumer shopping behaviour report:
// natural-language summaries, per-column business recommendations, the
// trained-model prediction and the downloadable PDF rendering.
package report

import (
	"fmt"
	"hash/fnv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// Thresholds separating under- and over-performing columns
const (
	ThresholdAmount    = 50.0
	ThresholdFrequency = 2.0
	RatingThreshold    = 3.5
)

// diversityThreshold is the distinct-value count above which a
// categorical column counts as highly diverse
const diversityThreshold = 10

// Keyword groups mapping column names to recommendation families
var (
	revenueKeywords     = []string{"amount", "price", "cost", "revenue"}
	frequencyKeywords   = []string{"frequency", "count", "number"}
	ratingKeywords      = []string{"rating", "score"}
	categoricalKeywords = []string{"category", "segment", "region", "type"}
)

var revenueUnder = []string{
	"The '%[1]s' metric averages at %.2[2]f, which is below the ideal range. Focus on boosting revenue by introducing targeted promotions, revising pricing strategies, and offering bundled deals to attract higher spending.",
	"With '%[1]s' averaging only %.2[2]f, there's significant opportunity for growth. Concentrate on adjusting your pricing and launching special discounts to drive up sales in this area.",
	"The low average of '%[1]s' (%.2[2]f) indicates underperformance. Invest in market research and innovate your pricing models to stimulate higher customer expenditure.",
}

var revenueOver = []string{
	"The '%[1]s' metric is strong at an average of %.2[2]f. Leverage this success by scaling operations, enhancing customer experience, and exploring premium offerings to further fuel growth.",
	"A healthy '%[1]s' average of %.2[2]f provides a solid foundation. Focus on expanding market reach and reinvesting profits into innovative growth strategies.",
	"With '%[1]s' performing well at %.2[2]f, continue to build on this strength by optimizing customer acquisition and upselling complementary products.",
}

var frequencyUnder = []string{
	"The average '%[1]s' is only %.2[2]f, suggesting customers are not engaging frequently. Prioritize developing loyalty programs and personalized marketing to increase repeat business.",
	"An average of %.2[2]f in '%[1]s' indicates low customer engagement. Focus on creating incentives and reminders that encourage more regular interactions.",
	"The low frequency shown by '%[1]s' (%.2[2]f) reveals an opportunity to boost repeat transactions. Consider subscription models or reward systems to drive retention.",
}

var frequencyOver = []string{
	"The '%[1]s' metric is strong with an average of %.2[2]f. Capitalize on this momentum by expanding your engagement initiatives and introducing cross-selling strategies.",
	"A robust average of %.2[2]f in '%[1]s' highlights healthy customer activity. Maintain this trend and explore further segmentation to unlock additional revenue streams.",
	"With '%[1]s' at %.2[2]f on average, your customer engagement is commendable. Focus on fine-tuning your upselling and cross-promotional tactics to maximize growth.",
}

var ratingUnder = []string{
	"The average '%[1]s' of %.2[2]f is a clear signal to improve customer satisfaction. Focus on quality enhancements and customer support improvements to drive a better brand perception and growth.",
	"With '%[1]s' averaging only %.2[2]f, customer dissatisfaction might be hindering growth. Invest in product improvements and responsive service to turn these ratings around.",
	"An average rating of %.2[2]f in '%[1]s' suggests urgent need for quality upgrades. Prioritize customer feedback and continuous improvement strategies to enhance overall performance.",
}

var ratingOver = []string{
	"A solid '%[1]s' average of %.2[2]f indicates strong customer approval. Leverage this positive feedback in your marketing campaigns and scale your operations to capture a larger market share.",
	"With '%[1]s' performing at %.2[2]f on average, your quality is a competitive advantage. Focus on maintaining this standard while exploring new market segments for expansion.",
	"The excellent performance of '%[1]s' at %.2[2]f offers a strong foundation for growth. Capitalize on this by enhancing brand messaging and targeting new customer demographics.",
}

var categoricalHigh = []string{
	"The '%[1]s' column shows a high diversity of categories. Focus on segmenting these groups to design tailored marketing strategies that can capture niche opportunities for growth.",
	"With '%[1]s' featuring many unique values, there is a chance to identify and target specific customer segments. Analyze these groups to develop personalized offerings.",
}

var categoricalLow = []string{
	"The '%[1]s' column is dominated by a few categories. Concentrate on these key segments to optimize product offerings and invest in targeted marketing initiatives for further expansion.",
	"A concentrated distribution in '%[1]s' reveals a clear customer preference. Focus on refining your offerings for this dominant group to drive more consistent growth.",
}

// pickVariant selects a variant deterministically from the column name,
// so repeated reports over the same dataset read the same
func pickVariant(variants []string, col string, args ...any) string {
	h := fnv.New32a()
	h.Write([]byte(col))
	index := int(h.Sum32()) % len(variants)
	return fmt.Sprintf(variants[index], append([]any{col}, args...)...)
}

// containsAny reports whether name contains any of the keywords
func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// ColumnRecommendations inspects each column and generates a growth
// recommendation for the relevant ones: revenue, frequency and rating
// metrics among numeric columns, segmentation columns among
// categorical ones. Columns matching no keyword group are skipped.
func ColumnRecommendations(ds *dataset.Dataset) map[string]string {
	recommendations := make(map[string]string)
	numeric, categorical := ds.IdentifyFeatures()

	for _, col := range numeric {
		values := ds.NumericValues(col)
		if len(values) == 0 {
			continue
		}
		mean := stat.Mean(values, nil)
		name := strings.ToLower(col)

		var rec string
		switch {
		case containsAny(name, revenueKeywords):
			if mean < ThresholdAmount {
				rec = pickVariant(revenueUnder, col, mean)
			} else {
				rec = pickVariant(revenueOver, col, mean)
			}
		case containsAny(name, frequencyKeywords):
			if mean < ThresholdFrequency {
				rec = pickVariant(frequencyUnder, col, mean)
			} else {
				rec = pickVariant(frequencyOver, col, mean)
			}
		case containsAny(name, ratingKeywords):
			if mean < RatingThreshold {
				rec = pickVariant(ratingUnder, col, mean)
			} else {
				rec = pickVariant(ratingOver, col, mean)
			}
		}

		if rec != "" {
			recommendations[col] = rec
		}
	}

	for _, col := range categorical {
		if !containsAny(strings.ToLower(col), categoricalKeywords) {
			continue
		}

		seen := make(map[string]bool)
		for _, v := range ds.StringValues(col) {
			seen[v] = true
		}
		if len(seen) > diversityThreshold {
			recommendations[col] = pickVariant(categoricalHigh, col)
		} else {
			recommendations[col] = pickVariant(categoricalLow, col)
		}
	}

	return recommendations
}
