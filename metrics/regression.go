// Package metrics scores predictions of a scalar property.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE is the mean squared error.
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score is the coefficient of determination. It fails when yTrue is constant.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}
	pred := mat.Col(nil, 0, yPred)
	data := mat.Col(nil, 0, yTrue)

	mean := stat.Mean(data, nil)
	var tss float64
	for _, v := range data {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(pred, data, nil), nil
}

// ExplainedVarianceScore is 1 - Var(yTrue - yPred) / Var(yTrue).
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	truth := mat.Col(nil, 0, yTrue)
	diff := make([]float64, n)
	floats.SubTo(diff, truth, mat.Col(nil, 0, yPred))

	varTrue := PopulationStd(truth)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	varDiff := PopulationStd(diff)
	return 1 - (varDiff*varDiff)/(varTrue*varTrue), nil
}

// PopulationStd is the standard deviation with denominator n.
func PopulationStd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	mean := stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(x)))
}

// Scores groups the error measures reported for one prediction.
type Scores struct {
	RMSE float64
	MAE  float64
	// R2 and ExplainedVariance are NaN when the truth has no variance.
	R2                float64
	ExplainedVariance float64
}

// Evaluate computes every score at once.
func Evaluate(yTrue, yPred []float64) (Scores, error) {
	if len(yTrue) == 0 {
		return Scores{}, errors.NewValueError("Evaluate", "empty vector")
	}
	if len(yPred) != len(yTrue) {
		return Scores{}, errors.NewDimensionError("Evaluate", len(yTrue), len(yPred), 0)
	}
	t := mat.NewVecDense(len(yTrue), yTrue)
	p := mat.NewVecDense(len(yPred), yPred)

	rmse, err := RMSE(t, p)
	if err != nil {
		return Scores{}, err
	}
	mae, err := MAE(t, p)
	if err != nil {
		return Scores{}, err
	}
	r2, err := R2Score(t, p)
	if err != nil {
		r2 = math.NaN()
	}
	ev, err := ExplainedVarianceScore(t, p)
	if err != nil {
		ev = math.NaN()
	}
	return Scores{RMSE: rmse, MAE: mae, R2: r2, ExplainedVariance: ev}, nil
}
