package report

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// PlotLearningCurve saves a log-log plot of RMSE against training-set size
// to path. The image format follows the file extension (png, svg, pdf...).
// Samples that cannot be drawn on a log axis are skipped.
func PlotLearningCurve(points []CurvePoint, path string) error {
	xys := make(plotter.XYs, 0, len(points))
	for _, p := range points {
		if p.NTrain <= 0 || !(p.RMSE > 0) || math.IsInf(p.RMSE, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(p.NTrain), Y: p.RMSE})
	}
	if len(xys) == 0 {
		return errors.NewValueError("PlotLearningCurve", "no positive samples to plot")
	}

	p := plot.New()
	p.Title.Text = "Learning curve"
	p.X.Label.Text = "training structures"
	p.Y.Label.Text = "RMSE [energy units]"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, scatter, err := plotter.NewLinePoints(xys)
	if err != nil {
		return errors.Wrap(err, "build learning-curve series")
	}
	p.Add(line, scatter)
	p.Legend.Add("test RMSE", line, scatter)

	if err := p.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
