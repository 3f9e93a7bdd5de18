package linear

// Option configures a Ridge.
type Option func(*Ridge)

// WithAlpha sets the L2 penalty added to the diagonal of XᵀX. Zero gives
// ordinary least squares.
func WithAlpha(alpha float64) Option {
	return func(r *Ridge) {
		r.Alpha = alpha
	}
}

// WithFitIntercept sets whether to fit an unpenalised intercept.
func WithFitIntercept(fit bool) Option {
	return func(r *Ridge) {
		r.FitIntercept = fit
	}
}

// WithParallelThreshold sets the row count above which the columns of X
// are centred in parallel when an intercept is fitted.
func WithParallelThreshold(rows int) Option {
	return func(r *Ridge) {
		r.parallelThreshold = rows
	}
}
