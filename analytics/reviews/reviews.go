// Package reviews analyzes product-review datasets: sentiment polarity
// over review text and least-squares rating prediction.
package reviews

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// Column names the review analyses depend on
const (
	ReviewColumn = "review_content"
	RatingColumn = "rating"
	PriceColumn  = "price"
	LengthColumn = "review_length"
)

// ErrMissingColumn reports a column the dataset lacks
type ErrMissingColumn struct {
	Column string
}

func (e *ErrMissingColumn) Error() string {
	return fmt.Sprintf("dataset must contain a '%s' column", e.Column)
}

// positiveWords and negativeWords form the sentiment lexicon. Scoring
// is the normalized difference of matches, clamped to [-1, 1].
var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true,
	"love": true, "loved": true, "best": true, "perfect": true,
	"wonderful": true, "fantastic": true, "awesome": true, "happy": true,
	"nice": true, "recommend": true, "recommended": true, "quality": true,
	"fast": true, "easy": true, "helpful": true, "satisfied": true,
	"beautiful": true, "comfortable": true, "reliable": true, "worth": true,
}

var negativeWords = map[string]bool{
	"bad": true, "poor": true, "terrible": true, "awful": true,
	"hate": true, "hated": true, "worst": true, "broken": true,
	"disappointed": true, "disappointing": true, "slow": true, "cheap": true,
	"useless": true, "waste": true, "refund": true, "defective": true,
	"horrible": true, "wrong": true, "never": true, "unhappy": true,
	"uncomfortable": true, "unreliable": true, "faulty": true, "damaged": true,
}

// negations flip the polarity of the following sentiment word
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "hardly": true, "barely": true,
}

// AnalyzeSentiment scores the polarity of each review in row order.
// Scores fall in [-1, 1]: positive reviews above zero, negative below,
// neutral or empty text at zero.
func AnalyzeSentiment(ds *dataset.Dataset) ([]float64, error) {
	if !hasColumn(ds, ReviewColumn) {
		return nil, &ErrMissingColumn{Column: ReviewColumn}
	}

	sentiments := make([]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		sentiments[i] = Polarity(dataset.EncodeValue(row[ReviewColumn]))
	}
	return sentiments, nil
}

// Polarity scores a single piece of text in [-1, 1]
func Polarity(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var positive, negative float64
	negated := false
	for _, token := range tokens {
		if negations[token] && !negativeWords[token] {
			negated = true
			continue
		}

		switch {
		case positiveWords[token]:
			if negated {
				negative++
			} else {
				positive++
			}
		case negativeWords[token]:
			if negated {
				positive++
			} else {
				negative++
			}
		}
		negated = false
	}

	matched := positive + negative
	if matched == 0 {
		return 0
	}
	return (positive - negative) / matched
}

// tokenize lowercases and strips punctuation from review text
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Fields(cleaned)
}

// PredictRating fits an ordinary-least-squares model of rating against
// price and review length, then scores every row with the fitted model
func PredictRating(ds *dataset.Dataset) ([]float64, error) {
	for _, col := range []string{PriceColumn, LengthColumn, RatingColumn} {
		if !hasColumn(ds, col) {
			return nil, &ErrMissingColumn{Column: col}
		}
	}
	if len(ds.Rows) == 0 {
		return nil, fmt.Errorf("dataset has no rows")
	}

	n := len(ds.Rows)
	x := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range ds.Rows {
		x.Set(i, 0, 1) // intercept
		x.Set(i, 1, toFloat(row[PriceColumn]))
		x.Set(i, 2, toFloat(row[LengthColumn]))
		y.SetVec(i, toFloat(row[RatingColumn]))
	}

	var coefficients mat.VecDense
	if err := coefficients.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("failed to fit rating model: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &coefficients)

	predictions := make([]float64, n)
	for i := range predictions {
		predictions[i] = fitted.AtVec(i)
	}
	return predictions, nil
}

func hasColumn(ds *dataset.Dataset, column string) bool {
	for _, col := range ds.Columns {
		if col == column {
			return true
		}
	}
	return false
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
