package report

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/moneypulse/moneypulse-go/analytics/dataset"
)

// ModelFeatures are the columns the trained spending model scores on.
// Datasets missing some of them are padded with zeros; datasets sharing
// none of them are not scored.
var ModelFeatures = []string{
	"Purchase_Amount",
	"Frequency_of_Purchase",
	"Price_per_Hour",
	"Research_Effectiveness",
}

// PredictionModel is a linear model over the fixed feature set,
// trained offline and loaded from a JSON weights file
type PredictionModel struct {
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
}

// LoadPredictionModel reads model weights from disk. A missing file is
// not an error at startup; callers get a nil model and reports carry
// the no-prediction message.
func LoadPredictionModel(path string) (*PredictionModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var model PredictionModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	for _, feature := range ModelFeatures {
		if _, ok := model.Weights[feature]; !ok {
			return nil, fmt.Errorf("model file missing weight for feature %q", feature)
		}
	}

	return &model, nil
}

// Predict scores every row of a preprocessed frame. Returns nil when
// the frame shares no columns with the model's feature set.
func (m *PredictionModel) Predict(frame *dataset.Frame) []float64 {
	present := false
	for _, feature := range ModelFeatures {
		if _, ok := frame.Data[feature]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil
	}

	rows := 0
	for _, values := range frame.Data {
		rows = len(values)
		break
	}
	if rows == 0 {
		return nil
	}

	weights := make([]float64, len(ModelFeatures))
	for i, feature := range ModelFeatures {
		weights[i] = m.Weights[feature]
	}

	predictions := make([]float64, rows)
	features := make([]float64, len(ModelFeatures))
	for i := 0; i < rows; i++ {
		for j, feature := range ModelFeatures {
			if values, ok := frame.Data[feature]; ok {
				features[j] = values[i]
			} else {
				features[j] = 0
			}
		}
		predictions[i] = floats.Dot(weights, features) + m.Intercept
	}

	return predictions
}
