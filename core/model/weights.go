package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// WeightsVersion is the current ModelWeights format.
const WeightsVersion = "1"

// ModelWeights is the serialisable form of a fitted model.
type ModelWeights struct {
	// ModelType names the model, e.g. "SparseGPR".
	ModelType string `json:"model_type"`
	Version   string `json:"version"`
	// RunID identifies the run that produced the weights.
	RunID string `json:"run_id,omitempty"`

	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`

	// Projection is the M×Mcut RKHS map, row major.
	Projection [][]float64 `json:"projection,omitempty"`
	// References are the reference descriptors, one per row.
	References [][]float64 `json:"references,omitempty"`
	// Baseline holds per-species stoichiometric weights, if one was fitted.
	Baseline map[string]float64 `json:"baseline,omitempty"`

	Hyperparameters map[string]interface{} `json:"hyperparameters"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// ToJSON encodes the weights as indented JSON.
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON decodes weights produced by ToJSON.
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "decode model weights")
	}
	return nil
}

// Validate checks that the weights describe a usable model.
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return errors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
	}
	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return errors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	}
	if len(mw.Projection) > 0 {
		for _, row := range mw.Projection {
			if len(row) != len(mw.Coefficients) {
				return errors.NewDimensionError("ModelWeights.Projection", len(mw.Coefficients), len(row), 1)
			}
		}
		if len(mw.References) > 0 && len(mw.References) != len(mw.Projection) {
			return errors.NewDimensionError("ModelWeights.References", len(mw.Projection), len(mw.References), 0)
		}
	}
	return nil
}
