package gpr

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/core/model"
	"github.com/YuminosukeSato/saltgo/linear"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// Regressor solves (ΦᵀΦ + Regul·I) w = Φᵀy in the projected feature space.
type Regressor struct {
	model.BaseEstimator

	Regul   float64
	Weights *mat.VecDense
	Mcut    int
}

var (
	_ model.Regressor       = (*Regressor)(nil)
	_ model.ParameterGetter = (*Regressor)(nil)
)

// NewRegressor returns a Regressor with ridge penalty regul.
func NewRegressor(regul float64) *Regressor {
	return &Regressor{Regul: regul}
}

// Fit trains on the feature rows phi against the column vector y.
func (r *Regressor) Fit(phi, y mat.Matrix) error {
	if !(r.Regul > 0) {
		return errors.NewValidationError("gpr.regul", "ridge regularisation must be positive", r.Regul)
	}

	ridge := linear.NewRidge(linear.WithAlpha(r.Regul))
	if err := ridge.Fit(phi, y); err != nil {
		return err
	}
	r.Weights = ridge.Weights
	r.Mcut = ridge.NFeatures
	r.SetFitted()
	return nil
}

// Predict returns Φ·w.
func (r *Regressor) Predict(phi mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("gpr.Regressor", "Predict")
	}
	n, c := phi.Dims()
	if c != r.Mcut {
		return nil, errors.NewDimensionError("Regressor.Predict", r.Mcut, c, 1)
	}
	out := mat.NewVecDense(n, nil)
	out.MulVec(phi, r.Weights)
	return out, nil
}

// GetParams returns the hyperparameters.
func (r *Regressor) GetParams() map[string]interface{} {
	return map[string]interface{}{"regul": r.Regul}
}

func itoa(i int) string { return strconv.Itoa(i) }
