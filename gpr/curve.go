package gpr

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/saltgo/metrics"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
)

// CurveInput is everything a learning curve needs. It is only read.
type CurveInput struct {
	KNM        *mat.Dense
	Projection *Projection
	Energies   []float64
	NAtoms     []int
	// Train is the full ordered training list; fractions take prefixes.
	Train []int
	Test  []int
	// Baseline may be nil or inactive, in which case per-atom targets are
	// centred on their training mean instead.
	Baseline *Baseline
}

// Point is the outcome of one training fraction.
type Point struct {
	Fraction float64
	NTrain   int
	RMSE     float64
	MAE      float64
	R2       float64
	// ExplainedVariance is NaN when the test targets are constant.
	ExplainedVariance float64
	Weights           []float64
	// Offset is the per-atom mean added back when no baseline is active.
	Offset float64
	// Predictions are the denormalised test-set predictions.
	Predictions []float64
}

// LearningCurve fits one regression per training fraction.
type LearningCurve struct {
	Fractions []float64
	Regul     float64
	// Parallel solves the fractions concurrently; results keep fraction order.
	Parallel bool
	Logger   log.Logger
}

// TrainIndices returns the first floor(f·len(train)) indices of train.
func TrainIndices(train []int, f float64) []int {
	n := int(math.Floor(f * float64(len(train))))
	if n < 0 {
		n = 0
	}
	if n > len(train) {
		n = len(train)
	}
	return train[:n]
}

func (lc *LearningCurve) logger() log.Logger {
	if lc.Logger != nil {
		return lc.Logger
	}
	return log.GetLogger()
}

func (in *CurveInput) validate() error {
	if in.KNM == nil || in.Projection == nil {
		return errors.NewValidationError("curve", "kernel and projection are required", nil)
	}
	ndata, _ := in.KNM.Dims()
	if len(in.Energies) != ndata {
		return errors.NewDimensionError("LearningCurve.Run", ndata, len(in.Energies), 0)
	}
	if len(in.NAtoms) != ndata {
		return errors.NewDimensionError("LearningCurve.Run", ndata, len(in.NAtoms), 0)
	}
	if len(in.Test) == 0 {
		return errors.NewValidationError("test", "test set is empty; the training list covers the whole dataset", 0)
	}
	inTrain := make(map[int]bool, len(in.Train))
	for _, i := range in.Train {
		if i < 0 || i >= ndata {
			return errors.NewValidationError("train", "training index "+itoa(i)+" out of range", i)
		}
		inTrain[i] = true
	}
	for _, i := range in.Test {
		if i < 0 || i >= ndata {
			return errors.NewValidationError("test", "test index "+itoa(i)+" out of range", i)
		}
		if inTrain[i] {
			return errors.NewValidationError("test", "structure "+itoa(i)+" is in both training and test set", i)
		}
	}
	for i, n := range in.NAtoms {
		if n <= 0 {
			return errors.NewValidationError("natoms", "structure "+itoa(i)+" has no atoms", n)
		}
	}
	if in.Baseline != nil && in.Baseline.Active && len(in.Baseline.Values) != ndata {
		return errors.NewDimensionError("LearningCurve.Run", ndata, len(in.Baseline.Values), 0)
	}
	return nil
}

// Run evaluates every fraction and returns the points in fraction order.
func (lc *LearningCurve) Run(ctx context.Context, in CurveInput) ([]Point, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(lc.Fractions) == 0 {
		return nil, errors.NewValidationError("gpr.fractions", "no training fractions", lc.Fractions)
	}
	for _, f := range lc.Fractions {
		if len(TrainIndices(in.Train, f)) == 0 {
			return nil, errors.NewValidationError("gpr.fractions",
				"fraction selects no training structure from "+itoa(len(in.Train)), f)
		}
	}

	phiAll, err := in.Projection.Features(in.KNM)
	if err != nil {
		return nil, err
	}
	phiTest := Rows(phiAll, in.Test)

	points := make([]Point, len(lc.Fractions))
	if !lc.Parallel {
		for i, f := range lc.Fractions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := lc.fit(&in, phiAll, phiTest, f)
			if err != nil {
				return nil, err
			}
			points[i] = p
		}
		return points, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range lc.Fractions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := lc.fit(&in, phiAll, phiTest, f)
			if err != nil {
				return err
			}
			points[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (lc *LearningCurve) fit(in *CurveInput, phiAll, phiTest *mat.Dense, f float64) (Point, error) {
	started := time.Now()
	train := TrainIndices(in.Train, f)
	ntrain := len(train)
	active := in.Baseline != nil && in.Baseline.Active

	target := make([]float64, ntrain)
	offset := 0.0
	if active {
		for i, k := range train {
			target[i] = (in.Energies[k] - in.Baseline.Values[k]) / float64(in.NAtoms[k])
		}
	} else {
		for i, k := range train {
			target[i] = in.Energies[k] / float64(in.NAtoms[k])
			offset += target[i]
		}
		offset /= float64(ntrain)
		for i := range target {
			target[i] -= offset
		}
	}

	reg := NewRegressor(lc.Regul)
	if err := reg.Fit(Rows(phiAll, train), mat.NewVecDense(ntrain, target)); err != nil {
		return Point{}, errors.Wrapf(err, "fraction %g", f)
	}
	lc.logger().Debug("fraction fitted",
		log.PhaseKey, log.PhaseTraining,
		log.FractionKey, f,
		log.NTrainKey, ntrain,
		log.RegularizationKey, lc.Regul,
	)
	raw, err := reg.Predict(phiTest)
	if err != nil {
		return Point{}, err
	}

	pred := make([]float64, len(in.Test))
	truth := make([]float64, len(in.Test))
	for i, k := range in.Test {
		natoms := float64(in.NAtoms[k])
		if active {
			pred[i] = raw.At(i, 0)*natoms + in.Baseline.Values[k]
		} else {
			pred[i] = (raw.At(i, 0) + offset) * natoms
		}
		truth[i] = in.Energies[k]
	}
	if err := errors.CheckNumericalStability("gpr.predict", pred, ntrain); err != nil {
		return Point{}, err
	}

	scores, err := metrics.Evaluate(truth, pred)
	if err != nil {
		return Point{}, err
	}
	if err := errors.CheckScalar("gpr.rmse", scores.RMSE, ntrain); err != nil {
		return Point{}, err
	}

	lc.logger().Info("fraction evaluated",
		log.PhaseKey, log.PhaseValidation,
		log.FractionKey, f,
		log.NTrainKey, ntrain,
		log.McutKey, in.Projection.Mcut,
		log.RMSEKey, scores.RMSE,
		log.ExplainedVarianceKey, scores.ExplainedVariance,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)

	return Point{
		Fraction:          f,
		NTrain:            ntrain,
		RMSE:              scores.RMSE,
		MAE:               scores.MAE,
		R2:                scores.R2,
		ExplainedVariance: scores.ExplainedVariance,
		Weights:           append([]float64(nil), reg.Weights.RawVector().Data...),
		Offset:            offset,
		Predictions:       pred,
	}, nil
}
