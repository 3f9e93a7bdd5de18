// Package report prints the textual diagnostics of a regression run and
// renders its learning curve.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Baseline messages.
const (
	UniformMessage    = "Dataset has uniform distribution of species: no stochiometric baseline is applied."
	NonUniformMessage = "Dataset has non-uniform distribution of species: a stochiometric baseline is applied."
)

// CurvePoint is one learning-curve sample.
type CurvePoint struct {
	NTrain int
	RMSE   float64
}

// Writer prints the run report line by line.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer printing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Baseline prints whether a stoichiometric baseline is applied.
func (w *Writer) Baseline(active bool) error {
	msg := UniformMessage
	if active {
		msg = NonUniformMessage
	}
	_, err := fmt.Fprintln(w.w, msg)
	return err
}

// Std prints the standard deviation of the target.
func (w *Writer) Std(std float64) error {
	_, err := fmt.Fprintf(w.w, "STD = %s [energy units]\n", FormatFloat(std))
	return err
}

// Point prints one learning-curve sample.
func (w *Writer) Point(p CurvePoint) error {
	_, err := fmt.Fprintf(w.w, "N = %d RMSE = %s [energy units]\n", p.NTrain, FormatFloat(p.RMSE))
	return err
}

// Curve prints every sample in order.
func (w *Writer) Curve(points []CurvePoint) error {
	for _, p := range points {
		if err := w.Point(p); err != nil {
			return err
		}
	}
	return nil
}

// FormatFloat renders v as the shortest decimal that round-trips, in fixed
// notation for exponents in [-4, 16) and scientific notation otherwise.
// Integral values keep a trailing ".0".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
