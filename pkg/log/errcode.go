package log

import "github.com/YuminosukeSato/saltgo/pkg/errors"

// ErrorCode classifies err by the first typed error in its chain. Untyped
// errors have no code.
func ErrorCode(err error) string {
	var (
		cfgErr   *errors.ConfigurationError
		parseErr *errors.ParseError
		valErr   *errors.ValidationError
		dimErr   *errors.DimensionError
		nfErr    *errors.NotFittedError
		numErr   *errors.NumericalInstabilityError
		degErr   *errors.DegeneracyError
		owErr    *errors.OverwriteConflictError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ErrorConfiguration
	case errors.As(err, &parseErr):
		return ErrorParse
	case errors.As(err, &degErr):
		return ErrorDegenerate
	case errors.As(err, &owErr):
		return ErrorOverwrite
	case errors.As(err, &valErr):
		return ErrorValidation
	case errors.As(err, &dimErr):
		return ErrorDimension
	case errors.As(err, &nfErr):
		return ErrorNotFitted
	case errors.As(err, &numErr):
		return ErrorNumerical
	}
	return ""
}
