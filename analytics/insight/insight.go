// Package insight computes consumer-behaviour insights over an
// uploaded dataset: user clustering, conversion prediction and
// interest-based product recommendations.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// Column sets each insight requires
var (
	ClusterColumns    = []string{"purchase_frequency", "total_spent"}
	ConversionColumns = []string{"time_spent", "pages_visited", "converted"}
	InterestsColumn   = "product_interests"
)

// clusterCount is the number of customer segments produced
const clusterCount = 3

// ErrMissingColumns reports the columns an insight needs but the
// dataset lacks
type ErrMissingColumns struct {
	Required []string
}

func (e *ErrMissingColumns) Error() string {
	return fmt.Sprintf("dataset must contain the following columns: %v", e.Required)
}

// requireColumns verifies the dataset has every named column
func requireColumns(ds *dataset.Dataset, required []string) error {
	have := make(map[string]bool, len(ds.Columns))
	for _, col := range ds.Columns {
		have[col] = true
	}
	for _, col := range required {
		if !have[col] {
			return &ErrMissingColumns{Required: required}
		}
	}
	return nil
}

// ClusterUsers segments users into three groups by purchase frequency
// and total spend using k-means, and returns the dataset rows with a
// "cluster" label appended
func ClusterUsers(ds *dataset.Dataset) ([]map[string]any, error) {
	if err := requireColumns(ds, ClusterColumns); err != nil {
		return nil, err
	}

	points := make([][]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		point := make([]float64, len(ClusterColumns))
		for j, col := range ClusterColumns {
			if f, ok := row[col].(float64); ok {
				point[j] = f
			}
		}
		points[i] = point
	}

	labels := kmeans(points, clusterCount)

	records := make([]map[string]any, len(ds.Rows))
	for i, row := range ds.Rows {
		record := make(map[string]any, len(row)+1)
		for k, v := range row {
			record[k] = v
		}
		record["cluster"] = labels[i]
		records[i] = record
	}
	return records, nil
}

// kmeans runs Lloyd's algorithm with deterministic farthest-point
// initialization, so repeated runs over the same dataset assign the
// same labels
func kmeans(points [][]float64, k int) []int {
	labels := make([]int, len(points))
	if len(points) == 0 {
		return labels
	}

	centroids := initialCentroids(points, k)
	k = len(centroids)

	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := math.Inf(1)
			for c, centroid := range centroids {
				if d := floats.Distance(p, centroid, 2); d < bestDist {
					bestDist = d
					best = c
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// Recompute centroids
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centroids {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), sums[c])
				centroids[c] = sums[c]
			}
		}
	}

	return labels
}

// initialCentroids seeds k-means with the first point, then repeatedly
// the point farthest from the chosen set. Duplicate points never seed
// two centroids.
func initialCentroids(points [][]float64, k int) [][]float64 {
	centroids := [][]float64{clonePoint(points[0])}

	for len(centroids) < k {
		bestDist := 0.0
		bestIndex := -1
		for i, p := range points {
			minDist := math.Inf(1)
			for _, c := range centroids {
				if d := floats.Distance(p, c, 2); d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				bestIndex = i
			}
		}
		if bestIndex < 0 {
			break
		}
		centroids = append(centroids, clonePoint(points[bestIndex]))
	}

	return centroids
}

func clonePoint(p []float64) []float64 {
	c := make([]float64, len(p))
	copy(c, p)
	return c
}

// PredictConversion trains a decision tree on time-spent and
// pages-visited against the converted label, then scores every row.
// The model memorizes the training set, so predictions mirror the
// labels wherever the feature pairs are separable.
func PredictConversion(ds *dataset.Dataset) ([]float64, error) {
	if err := requireColumns(ds, ConversionColumns); err != nil {
		return nil, err
	}

	features := make([][]float64, len(ds.Rows))
	labels := make([]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		features[i] = []float64{toFloat(row["time_spent"]), toFloat(row["pages_visited"])}
		labels[i] = toFloat(row["converted"])
	}

	tree := buildConversionTree(features, labels, 0)

	predictions := make([]float64, len(features))
	for i, f := range features {
		predictions[i] = tree.predict(f)
	}
	return predictions, nil
}

// toFloat reads a cell as float64, treating non-numeric cells as 0
func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

// conversionNode is a binary decision tree node over the two
// conversion features
type conversionNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *conversionNode
	right     *conversionNode
}

const maxConversionDepth = 12

// buildConversionTree grows the tree by gini-impurity splits until the
// node is pure or the depth limit is reached
func buildConversionTree(features [][]float64, labels []float64, depth int) *conversionNode {
	if len(labels) == 0 {
		return &conversionNode{leaf: true}
	}

	if depth >= maxConversionDepth || isPure(labels) {
		return &conversionNode{leaf: true, value: majorityLabel(labels)}
	}

	feature, threshold, found := bestSplit(features, labels)
	if !found {
		return &conversionNode{leaf: true, value: majorityLabel(labels)}
	}

	var leftFeatures, rightFeatures [][]float64
	var leftLabels, rightLabels []float64
	for i, f := range features {
		if f[feature] <= threshold {
			leftFeatures = append(leftFeatures, f)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, f)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return &conversionNode{leaf: true, value: majorityLabel(labels)}
	}

	return &conversionNode{
		feature:   feature,
		threshold: threshold,
		left:      buildConversionTree(leftFeatures, leftLabels, depth+1),
		right:     buildConversionTree(rightFeatures, rightLabels, depth+1),
	}
}

func (n *conversionNode) predict(features []float64) float64 {
	if n.leaf {
		return n.value
	}
	if features[n.feature] <= n.threshold {
		return n.left.predict(features)
	}
	return n.right.predict(features)
}

func isPure(labels []float64) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}
	return true
}

func majorityLabel(labels []float64) float64 {
	counts := make(map[float64]int)
	for _, l := range labels {
		counts[l]++
	}
	best, bestCount := labels[0], 0
	for l, c := range counts {
		if c > bestCount || (c == bestCount && l < best) {
			best, bestCount = l, c
		}
	}
	return best
}

// bestSplit scans midpoints between adjacent sorted feature values and
// returns the split with the lowest weighted gini impurity
func bestSplit(features [][]float64, labels []float64) (int, float64, bool) {
	bestGini := math.Inf(1)
	bestFeature, bestThreshold := 0, 0.0
	found := false

	for feature := 0; feature < len(features[0]); feature++ {
		values := make([]float64, len(features))
		for i, f := range features {
			values[i] = f[feature]
		}
		sorted := make([]float64, len(values))
		copy(sorted, values)
		sort.Float64s(sorted)

		for i := 1; i < len(sorted); i++ {
			if sorted[i] == sorted[i-1] {
				continue
			}
			threshold := (sorted[i] + sorted[i-1]) / 2

			var leftLabels, rightLabels []float64
			for j, v := range values {
				if v <= threshold {
					leftLabels = append(leftLabels, labels[j])
				} else {
					rightLabels = append(rightLabels, labels[j])
				}
			}

			gini := weightedGini(leftLabels, rightLabels)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

func weightedGini(left, right []float64) float64 {
	total := float64(len(left) + len(right))
	return float64(len(left))/total*gini(left) + float64(len(right))/total*gini(right)
}

func gini(labels []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := make(map[float64]int)
	for _, l := range labels {
		counts[l]++
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(len(labels))
		impurity -= p * p
	}
	return impurity
}

// RecommendProducts vectorizes the product-interests column with
// TF-IDF, computes pairwise cosine similarity and returns the indices
// of the three most similar rows for each row, most similar first. A
// row is always most similar to itself, so index i leads row i's list.
func RecommendProducts(ds *dataset.Dataset) ([][]int, error) {
	if err := requireColumns(ds, []string{InterestsColumn}); err != nil {
		return nil, &ErrMissingColumns{Required: []string{InterestsColumn}}
	}

	documents := make([]string, len(ds.Rows))
	for i, row := range ds.Rows {
		documents[i] = dataset.EncodeValue(row[InterestsColumn])
	}

	vectors := tfidfVectors(documents)

	recommendations := make([][]int, len(vectors))
	for i := range vectors {
		type scored struct {
			index int
			score float64
		}
		scores := make([]scored, len(vectors))
		for j := range vectors {
			scores[j] = scored{index: j, score: cosineSimilarity(vectors[i], vectors[j])}
		}
		sort.SliceStable(scores, func(a, b int) bool {
			return scores[a].score > scores[b].score
		})

		top := 3
		if top > len(scores) {
			top = len(scores)
		}
		recommendations[i] = make([]int, top)
		for j := 0; j < top; j++ {
			recommendations[i][j] = scores[j].index
		}
	}

	return recommendations, nil
}

// tfidfVectors builds TF-IDF term-weight vectors for each document,
// tokenizing on whitespace and lowercasing
func tfidfVectors(documents []string) []map[string]float64 {
	docTerms := make([]map[string]float64, len(documents))
	docFreq := make(map[string]int)

	for i, doc := range documents {
		terms := make(map[string]float64)
		for _, token := range strings.Fields(strings.ToLower(doc)) {
			terms[token]++
		}
		for term := range terms {
			docFreq[term]++
		}
		docTerms[i] = terms
	}

	n := float64(len(documents))
	vectors := make([]map[string]float64, len(documents))
	for i, terms := range docTerms {
		vector := make(map[string]float64, len(terms))
		for term, tf := range terms {
			idf := math.Log(n/float64(docFreq[term])) + 1
			vector[term] = tf * idf
		}
		vectors[i] = vector
	}
	return vectors
}

// cosineSimilarity computes the cosine of two sparse term vectors
func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, wa := range a {
		normA += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
