package model

// Regressor combines the interfaces of a regression model.
type Regressor interface {
	Estimator
	Fitter
	Predictor
}

// ParameterGetter exposes hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
