// Package linear solves regularised linear least-squares problems through
// their normal equations.
package linear

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/core/model"
	"github.com/YuminosukeSato/saltgo/core/parallel"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

const defaultParallelThreshold = 1000

// Ridge minimises ‖Xw + b − y‖² + Alpha‖w‖².
type Ridge struct {
	model.BaseEstimator

	Alpha        float64
	FitIntercept bool

	Weights   *mat.VecDense
	Intercept float64
	NFeatures int

	parallelThreshold int
}

var (
	_ model.Regressor       = (*Ridge)(nil)
	_ model.ParameterGetter = (*Ridge)(nil)
)

// NewRidge returns a Ridge without penalty or intercept unless options say
// otherwise.
func NewRidge(opts ...Option) *Ridge {
	r := &Ridge{parallelThreshold: defaultParallelThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit solves (XᵀX + Alpha·I) w = Xᵀy. With FitIntercept the columns of X
// and y are centred first and the intercept is not penalised.
func (r *Ridge) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	ny, cy := y.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("Ridge.Fit", "empty data", errors.ErrEmptyData)
	}
	if ny != n {
		return errors.NewDimensionError("Ridge.Fit", n, ny, 0)
	}
	if cy != 1 {
		return errors.NewValueError("Ridge.Fit", "y must be a column vector")
	}
	if r.Alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", r.Alpha)
	}
	if n < p && r.Alpha > 0 {
		errors.Warn(errors.NewUnderdeterminedWarning(n, p, r.Alpha))
	}

	xs := mat.DenseCopyOf(X)
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = y.At(i, 0)
	}

	xMean := make([]float64, p)
	yMean := 0.0
	if r.FitIntercept {
		for j := 0; j < p; j++ {
			col := mat.Col(nil, j, xs)
			xMean[j] = floats.Sum(col) / float64(n)
		}
		yMean = floats.Sum(ys) / float64(n)
		parallel.ParallelizeWithThreshold(n, r.threshold(), func(start, end int) {
			for i := start; i < end; i++ {
				row := xs.RawRowView(i)
				floats.Sub(row, xMean)
			}
		})
		for i := range ys {
			ys[i] -= yMean
		}
	}

	var xtx mat.Dense
	xtx.Mul(xs.T(), xs)
	ata := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		ata.SetSym(i, i, xtx.At(i, i)+r.Alpha)
		for j := i + 1; j < p; j++ {
			ata.SetSym(i, j, xtx.At(i, j))
		}
	}
	atb := mat.NewVecDense(p, nil)
	atb.MulVec(xs.T(), mat.NewVecDense(n, ys))

	w, err := SolveSymmetric(ata, atb)
	if err != nil {
		return err
	}

	r.Weights = w
	r.NFeatures = p
	r.Intercept = 0
	if r.FitIntercept {
		r.Intercept = yMean - floats.Dot(xMean, w.RawVector().Data)
	}
	r.SetFitted()
	return nil
}

func (r *Ridge) threshold() int {
	if r.parallelThreshold <= 0 {
		return defaultParallelThreshold
	}
	return r.parallelThreshold
}

// SolveSymmetric solves A x = b for a symmetric A, first by Cholesky and,
// when A is not numerically positive definite, by LU. A positive definite A
// with a large condition number is still solved; the condition number is
// reported through errors.Warn. A system neither can solve is a
// DegeneracyError.
func SolveSymmetric(a *mat.SymDense, b *mat.VecDense) (*mat.VecDense, error) {
	var x *mat.VecDense
	err := errors.SafeExecute("linear.SolveSymmetric", func() error {
		n := a.SymmetricDim()
		if b.Len() != n {
			return errors.NewDimensionError("linear.SolveSymmetric", n, b.Len(), 0)
		}
		x = mat.NewVecDense(n, nil)

		var chol mat.Cholesky
		if chol.Factorize(a) {
			err := chol.SolveVecTo(x, b)
			if err == nil {
				return nil
			}
			var cond mat.Condition
			if errors.As(err, &cond) {
				errors.Warn(errors.NewIllConditionedWarning("linear.SolveSymmetric", float64(cond)))
				return nil
			}
			return errors.NewDegeneracyError("linear.SolveSymmetric", "cholesky solve failed", err)
		}

		var lu mat.LU
		lu.Factorize(a)
		if err := lu.SolveVecTo(x, false, b); err != nil {
			return errors.NewDegeneracyError("linear.SolveSymmetric", "normal equations are singular", errors.Join(errors.ErrSingularMatrix, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("linear.SolveSymmetric", x.RawVector().Data, 0); err != nil {
		return nil, err
	}
	return x, nil
}

// Predict returns Xw + b as a column vector.
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError("Ridge", "Predict")
	}
	n, p := X.Dims()
	if p != r.NFeatures {
		return nil, errors.NewDimensionError("Ridge.Predict", r.NFeatures, p, 1)
	}

	pred := mat.NewVecDense(n, nil)
	pred.MulVec(X, r.Weights)
	if r.Intercept != 0 {
		for i := 0; i < n; i++ {
			pred.SetVec(i, pred.AtVec(i)+r.Intercept)
		}
	}
	return pred, nil
}

// GetWeights returns a copy of the fitted coefficients.
func (r *Ridge) GetWeights() []float64 {
	if r.Weights == nil {
		return nil
	}
	return append([]float64(nil), r.Weights.RawVector().Data...)
}

// GetIntercept returns the fitted intercept.
func (r *Ridge) GetIntercept() float64 {
	if !r.IsFitted() {
		return 0
	}
	return r.Intercept
}

// GetParams returns the hyperparameters.
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":         r.Alpha,
		"fit_intercept": r.FitIntercept,
	}
}
