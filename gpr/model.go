package gpr

import (
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/core/model"
	"github.com/YuminosukeSato/saltgo/descriptor"
	"github.com/YuminosukeSato/saltgo/kernel"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// ModelType tags saved sparse GPR weights.
const ModelType = "SparseGPR"

// Weights describes the model of the last learning-curve fraction.
func (r *Result) Weights() (*model.ModelWeights, error) {
	if len(r.Points) == 0 {
		return nil, errors.NewNotFittedError(ModelType, "Weights")
	}
	last := r.Points[len(r.Points)-1]
	cfg := r.Config

	mw := &model.ModelWeights{
		ModelType:    ModelType,
		Version:      model.WeightsVersion,
		RunID:        r.RunID,
		Coefficients: append([]float64(nil), last.Weights...),
		Intercept:    last.Offset,
		Projection:   denseRows(r.Projection.V),
		References:   denseRows(r.References),
		Hyperparameters: map[string]interface{}{
			"zeta":   cfg.GPR.Z,
			"regul":  cfg.GPR.Regul,
			"eigcut": cfg.GPR.Eigcut,
			"Menv":   cfg.GPR.Menv,
		},
		Metadata: map[string]interface{}{
			"mcut":     r.Projection.Mcut,
			"ntrain":   last.NTrain,
			"fraction": last.Fraction,
			"rmse":     last.RMSE,
			"dfbasis":  cfg.QM.DFBasis,
		},
		IsFitted: true,
	}
	if r.Baseline != nil && r.Baseline.Active {
		mw.Baseline = make(map[string]float64, len(r.Baseline.Species))
		for i, spe := range r.Baseline.Species {
			mw.Baseline[spe] = r.Baseline.Weights[i]
		}
	}
	return mw, nil
}

// SaveModel writes the weights to path: gob for a .gob extension, JSON
// otherwise.
func (r *Result) SaveModel(path string) error {
	mw, err := r.Weights()
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".gob") {
		if err := mw.Validate(); err != nil {
			return err
		}
		return model.SaveModel(mw, path)
	}
	return model.SaveWeights(mw, path)
}

// Model is a fitted sparse GPR that predicts the property of new structures.
type Model struct {
	model.BaseEstimator

	RunID      string
	Kernel     kernel.Power
	V          *mat.Dense
	References *mat.Dense
	Weights    *mat.VecDense
	// Offset is the per-atom mean added back when Baseline is nil.
	Offset   float64
	Baseline map[string]float64
}

var _ model.Estimator = (*Model)(nil)

// LoadModel reads weights written by Result.SaveModel.
func LoadModel(path string) (*Model, error) {
	var mw *model.ModelWeights
	if strings.EqualFold(filepath.Ext(path), ".gob") {
		mw = &model.ModelWeights{}
		if err := model.LoadModel(mw, path); err != nil {
			return nil, err
		}
		if err := mw.Validate(); err != nil {
			return nil, err
		}
	} else {
		var err error
		if mw, err = model.LoadWeights(path); err != nil {
			return nil, err
		}
	}
	return ModelFromWeights(mw)
}

// ModelFromWeights rebuilds a Model.
func ModelFromWeights(mw *model.ModelWeights) (*Model, error) {
	if mw.ModelType != ModelType {
		return nil, errors.NewValidationError("model_type", "expected "+ModelType, mw.ModelType)
	}
	if len(mw.Projection) == 0 || len(mw.References) == 0 {
		return nil, errors.NewValidationError("projection", "saved model has no projection or references", nil)
	}
	zeta, ok := mw.Hyperparameters["zeta"].(float64)
	if !ok {
		return nil, errors.NewValidationError("zeta", "missing kernel exponent", mw.Hyperparameters["zeta"])
	}

	m := &Model{
		RunID:      mw.RunID,
		Kernel:     kernel.Power{Zeta: zeta},
		V:          rowsDense(mw.Projection),
		References: rowsDense(mw.References),
		Weights:    mat.NewVecDense(len(mw.Coefficients), append([]float64(nil), mw.Coefficients...)),
		Offset:     mw.Intercept,
		Baseline:   mw.Baseline,
	}
	m.SetFitted()
	return m, nil
}

// Predict returns the property of every structure in store. natoms and
// symbols describe the structures as in system.System.
func (m *Model) Predict(store descriptor.Store, natoms []int, symbols [][]string) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError(ModelType, "Predict")
	}
	if len(symbols) != len(natoms) {
		return nil, errors.NewDimensionError("Model.Predict", len(natoms), len(symbols), 0)
	}

	builder := &kernel.Builder{Kernel: m.Kernel}
	kNM, err := builder.NM(store, natoms, m.References)
	if err != nil {
		return nil, err
	}
	proj := &Projection{V: m.V}
	phi, err := proj.Features(kNM)
	if err != nil {
		return nil, err
	}
	if _, c := phi.Dims(); c != m.Weights.Len() {
		return nil, errors.NewDimensionError("Model.Predict", m.Weights.Len(), c, 1)
	}

	raw := mat.NewVecDense(len(natoms), nil)
	raw.MulVec(phi, m.Weights)

	out := make([]float64, len(natoms))
	for i := range out {
		n := float64(natoms[i])
		if m.Baseline == nil {
			out[i] = (raw.AtVec(i) + m.Offset) * n
			continue
		}
		base := 0.0
		for _, spe := range symbols[i] {
			w, ok := m.Baseline[spe]
			if !ok {
				return nil, errors.NewValidationError("species", "species "+spe+" has no baseline weight", spe)
			}
			base += w
		}
		out[i] = raw.AtVec(i)*n + base
	}
	return out, nil
}

func denseRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out
}

func rowsDense(rows [][]float64) *mat.Dense {
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}
