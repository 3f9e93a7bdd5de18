package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains on the rows of X against the column vector y.
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that can predict.
type Predictor interface {
	// Predict returns one prediction per row of X as a column vector.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a model with a fitted state.
type Estimator interface {
	IsFitted() bool
	Reset()
}
