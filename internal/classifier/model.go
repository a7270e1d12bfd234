// Package classifier trains and applies the over/under model.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// FeatureNames are the model inputs, in order
var FeatureNames = []string{"AVG_PTS_LAST_5", "WINS_LAST_5"}

// ErrEmptyModel is returned by Load when the artifact has no coefficients
var ErrEmptyModel = errors.New("model has no coefficients")

// Model is a standardized logistic regression over FeatureNames
type Model struct {
	Features  []string  `json:"features"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`

	Threshold float64   `json:"threshold"`
	TrainedAt time.Time `json:"trained_at"`
	Report    Report    `json:"report"`
}

// Probability returns P(total > threshold) for the given inputs
func (m *Model) Probability(avgPts, wins float64) float64 {
	return sigmoid(m.decision([]float64{avgPts, wins}))
}

// Predict returns 1 (over) or 0 (under)
func (m *Model) Predict(avgPts, wins float64) int {
	if m.decision([]float64{avgPts, wins}) > 0 {
		return 1
	}
	return 0
}

func (m *Model) decision(x []float64) float64 {
	z := m.Intercept
	for j, v := range x {
		z += m.Weights[j] * (v - m.Mean[j]) / m.Scale[j]
	}
	return z
}

// Save writes the model as JSON, creating the directory if needed
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model %s: %w", path, err)
	}

	return nil
}

// Load reads a model written by Save
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model %s: %w", path, err)
	}

	n := len(FeatureNames)
	if len(m.Weights) != n || len(m.Mean) != n || len(m.Scale) != n {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModel, path)
	}

	return &m, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
