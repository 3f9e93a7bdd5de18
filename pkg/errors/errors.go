// Package errors provides the error taxonomy and warning system used across saltgo.
// Every constructor attaches a stack trace through cockroachdb/errors so that
// fatal failures in a batch run can be traced back to their origin.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("saltgo-Warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the handler used by Warn.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // ignore warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a structured warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. The zerolog sink wins over the plain handler when set.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

// EigenvalueCutoffWarning reports that the RKHS projection dropped part of the
// reference spectrum.
type EigenvalueCutoffWarning struct {
	Menv      int
	Mcut      int
	Cutoff    float64
	Negatives int
}

func (w *EigenvalueCutoffWarning) Error() string {
	return fmt.Sprintf("eigenvalue cutoff %g retained %d of %d reference environments (%d negative eigenvalues discarded)",
		w.Cutoff, w.Mcut, w.Menv, w.Negatives)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *EigenvalueCutoffWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("menv", w.Menv).
		Int("mcut", w.Mcut).
		Float64("eigcut", w.Cutoff).
		Int("negatives", w.Negatives).
		Str("type", "EigenvalueCutoffWarning")
}

// NewEigenvalueCutoffWarning creates an EigenvalueCutoffWarning.
func NewEigenvalueCutoffWarning(menv, mcut, negatives int, cutoff float64) *EigenvalueCutoffWarning {
	return &EigenvalueCutoffWarning{Menv: menv, Mcut: mcut, Cutoff: cutoff, Negatives: negatives}
}

// UnderdeterminedWarning reports a ridge solve with fewer samples than features.
// The regularisation keeps the system solvable, but results depend on it heavily.
type UnderdeterminedWarning struct {
	Samples  int
	Features int
	Regul    float64
}

func (w *UnderdeterminedWarning) Error() string {
	return fmt.Sprintf("ridge system is underdetermined: %d samples for %d features (regul=%g)", w.Samples, w.Features, w.Regul)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *UnderdeterminedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("samples", w.Samples).
		Int("features", w.Features).
		Float64("regul", w.Regul).
		Str("type", "UnderdeterminedWarning")
}

// NewUnderdeterminedWarning creates an UnderdeterminedWarning.
func NewUnderdeterminedWarning(samples, features int, regul float64) *UnderdeterminedWarning {
	return &UnderdeterminedWarning{Samples: samples, Features: features, Regul: regul}
}

// IllConditionedWarning reports a positive definite system solved despite
// a condition number above the mat.ConditionTolerance.
type IllConditionedWarning struct {
	Operation string
	Condition float64
}

func (w *IllConditionedWarning) Error() string {
	return fmt.Sprintf("%s: system is ill-conditioned (condition number %g), solution may be inaccurate", w.Operation, w.Condition)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *IllConditionedWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Operation).
		Float64("condition", w.Condition).
		Str("type", "IllConditionedWarning")
}

// NewIllConditionedWarning creates an IllConditionedWarning.
func NewIllConditionedWarning(operation string, condition float64) *IllConditionedWarning {
	return &IllConditionedWarning{Operation: operation, Condition: condition}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when Predict is called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("saltgo: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a shape mismatch between two operands.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("saltgo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError reports an invalid parameter or input value.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("saltgo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError reports an argument whose value makes the operation meaningless.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("saltgo: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a generic failure inside a model operation.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saltgo: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("saltgo: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ConfigurationError is fatal and aborts a run before any computation:
// wrong quantum-chemistry code, missing species, missing basis file.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saltgo: configuration error for '%s': %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("saltgo: configuration error for '%s': %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("key", e.Key).
		Str("reason", e.Reason).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(key, reason string, err error) error {
	return errors.WithStack(&ConfigurationError{Key: key, Reason: reason, Err: err})
}

// ParseError reports malformed input text, including the basis l-channel
// cross-check. No partial output is written when it is returned.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("saltgo: parse error in %s at line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("saltgo: parse error in %s: %s", e.Source, e.Reason)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("line", e.Line).
		Str("reason", e.Reason).
		Str("type", "ParseError")
}

// NewParseError creates a ParseError with a stack trace.
func NewParseError(source string, line int, reason string) error {
	return errors.WithStack(&ParseError{Source: source, Line: line, Reason: reason})
}

// DegeneracyError reports a numerically degenerate problem: an empty RKHS
// (Mcut == 0), a singular stoichiometry covariance or a ridge system that
// is not positive definite.
type DegeneracyError struct {
	Op     string
	Reason string
	Err    error
}

func (e *DegeneracyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("saltgo: %s: numerical degeneracy: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("saltgo: %s: numerical degeneracy: %s", e.Op, e.Reason)
}

func (e *DegeneracyError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DegeneracyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "DegeneracyError")
}

// NewDegeneracyError creates a DegeneracyError with a stack trace.
func NewDegeneracyError(op, reason string, err error) error {
	return errors.WithStack(&DegeneracyError{Op: op, Reason: reason, Err: err})
}

// OverwriteConflictError is returned when a persisted record already exists
// and overwriting was not requested. The existing record is left untouched.
type OverwriteConflictError struct {
	Store string
	Key   string
}

func (e *OverwriteConflictError) Error() string {
	return fmt.Sprintf("saltgo: %s already has an entry for '%s'; use force overwrite to replace it", e.Store, e.Key)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *OverwriteConflictError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("store", e.Store).
		Str("key", e.Key).
		Str("type", "OverwriteConflictError")
}

// NewOverwriteConflictError creates an OverwriteConflictError with a stack trace.
func NewOverwriteConflictError(store, key string) error {
	return errors.WithStack(&OverwriteConflictError{Store: store, Key: key})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// Join combines several errors into one; nil entries are skipped.
func Join(errs ...error) error {
	var out error
	for _, err := range errs {
		if err == nil {
			continue
		}
		out = errors.CombineErrors(out, err)
	}
	return out
}

// ===========================================================================
//
//	Numerical instability
//
// ===========================================================================

// NumericalInstabilityError reports NaN or Inf values in a computed quantity.
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Context   map[string]interface{}
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("saltgo: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
		Context:   make(map[string]interface{}),
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinels
//
// ===========================================================================

var (
	// ErrEmptyData is returned for empty inputs.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear system has no unique solution.
	ErrSingularMatrix = New("singular matrix")
)
