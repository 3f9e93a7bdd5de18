package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "saltgo: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "saltgo: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			assert.Equal(t, tt.wantMsg, err.Error())

			// stack trace is attached by cockroachdb/errors
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(error) bool
	}{
		{
			name:    "configuration",
			err:     NewConfigurationError("qmcode", "expected 'cp2k'", nil),
			wantMsg: "saltgo: configuration error for 'qmcode': expected 'cp2k'",
			check: func(err error) bool {
				var target *ConfigurationError
				return As(err, &target)
			},
		},
		{
			name:    "parse",
			err:     NewParseError("H-RI", 3, "bad header"),
			wantMsg: "saltgo: parse error in H-RI at line 3: bad header",
			check: func(err error) bool {
				var target *ParseError
				return As(err, &target)
			},
		},
		{
			name:    "degeneracy wraps singular matrix",
			err:     NewDegeneracyError("FitBaseline", "singular covariance", ErrSingularMatrix),
			wantMsg: "saltgo: FitBaseline: numerical degeneracy: singular covariance: singular matrix",
			check: func(err error) bool {
				var target *DegeneracyError
				return As(err, &target) && Is(err, ErrSingularMatrix)
			},
		},
		{
			name:    "overwrite conflict",
			err:     NewOverwriteConflictError("basis database", "RI-AUTO-OPT"),
			wantMsg: "saltgo: basis database already has an entry for 'RI-AUTO-OPT'; use force overwrite to replace it",
			check: func(err error) bool {
				var target *OverwriteConflictError
				return As(err, &target)
			},
		},
		{
			name:    "dimension",
			err:     NewDimensionError("Predict", 10, 3, 1),
			wantMsg: "saltgo: Predict: dimension mismatch on axis 1 (features). Expected 10, got 3",
			check: func(err error) bool {
				var target *DimensionError
				return As(err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestWarn(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewEigenvalueCutoffWarning(10, 7, 2, 1e-10))
	require.Len(t, got, 1)
	assert.True(t, strings.Contains(got[0].Error(), "retained 7 of 10"))
}

func TestJoin(t *testing.T) {
	assert.Nil(t, Join(nil, nil))

	a := New("first")
	b := New("second")
	joined := Join(a, nil, b)
	require.Error(t, joined)
	assert.True(t, Is(joined, a))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in Predict: expected 10, got 5")
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.NoError(t, CheckMatrix("kernel", ok, 0))

	bad := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, math.Inf(1)})
	err := CheckMatrix("kernel", bad, 0)
	require.Error(t, err)

	var instability *NumericalInstabilityError
	require.True(t, As(err, &instability))
	assert.Len(t, instability.Values, 2)
}

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, CheckScalar("rmse", 0.5, 1))
	assert.Error(t, CheckScalar("rmse", math.NaN(), 1))
	assert.Error(t, CheckNumericalStability("pred", []float64{1, math.Inf(-1)}, 2))
}
