package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{0.1, "0.1"},
		{-76.4, "-76.4"},
		{0.00012, "0.00012"},
		{0.000012, "1.2e-05"},
		{1e16, "1e+16"},
		{123456789012345.6, "123456789012345.6"},
		{0, "0.0"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Baseline(false))
	require.NoError(t, w.Std(1.5))
	require.NoError(t, w.Curve([]CurvePoint{{NTrain: 2, RMSE: 0.25}, {NTrain: 80, RMSE: 0.01}}))

	assert.Equal(t, UniformMessage+"\n"+
		"STD = 1.5 [energy units]\n"+
		"N = 2 RMSE = 0.25 [energy units]\n"+
		"N = 80 RMSE = 0.01 [energy units]\n", buf.String())

	buf.Reset()
	require.NoError(t, w.Baseline(true))
	assert.Equal(t, NonUniformMessage+"\n", buf.String())
}

func TestPlotLearningCurve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curve.png")
	points := []CurvePoint{{2, 0.5}, {4, 0.3}, {8, 0.1}, {16, 0}}
	require.NoError(t, PlotLearningCurve(points, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	assert.Error(t, PlotLearningCurve([]CurvePoint{{1, 0}}, path))
}
