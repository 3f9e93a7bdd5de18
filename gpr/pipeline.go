package gpr

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/basis"
	"github.com/YuminosukeSato/saltgo/config"
	"github.com/YuminosukeSato/saltgo/descriptor"
	"github.com/YuminosukeSato/saltgo/kernel"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
	"github.com/YuminosukeSato/saltgo/report"
	"github.com/YuminosukeSato/saltgo/system"
)

// Pipeline runs a complete sparse GPR learning curve for one property.
type Pipeline struct {
	Config *config.Config
	// Dir resolves every relative path of Config.
	Dir    string
	Out    io.Writer
	Logger log.Logger

	// Database overrides Config.Salted.BasisDB.
	Database *basis.Database
	// Store overrides the descriptor file of Config.
	Store descriptor.Store
}

// Result holds the artefacts of a run.
type Result struct {
	RunID      string
	Config     *config.Config
	System     *system.System
	Baseline   *Baseline
	References *mat.Dense
	Projection *Projection
	Train      []int
	Test       []int
	Points     []Point
}

func (p *Pipeline) path(name string) string {
	if p.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.Dir, name)
}

// Run reads the inputs, prints the baseline and learning-curve report to
// Out and returns the run artefacts.
func (p *Pipeline) Run(ctx context.Context, propname string) (res *Result, err error) {
	cfg := p.Config
	runID := uuid.New().String()
	logger := p.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.RunIDKey, runID, log.OperationKey, log.OperationRegress)
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	rep := report.NewWriter(out)
	started := time.Now()

	db := p.Database
	if db == nil {
		db, err = basis.OpenDatabase(p.path(cfg.Salted.BasisDB))
		if err != nil {
			return nil, err
		}
		defer db.Close()
	}
	data, ok, err := db.Read(cfg.QM.DFBasis)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewConfigurationError("qm.dfbasis",
			"no basis record for "+cfg.QM.DFBasis+"; run basis-info first", nil)
	}

	sys, err := system.ReadSystem(cfg, p.Dir, data)
	if err != nil {
		return nil, err
	}
	if len(sys.Excluded) > 0 {
		logger.Warn("atoms of unconfigured species ignored",
			log.OperationKey, log.OperationReadSystem,
			log.SpeciesKey, sys.Excluded,
		)
	}
	logger.Info("system read",
		log.OperationKey, log.OperationReadSystem,
		log.PhaseKey, log.PhaseSetup,
		log.SamplesKey, sys.NData,
		log.AtomsKey, sys.NAtMax,
		log.SpeciesKey, sys.Species,
	)

	energies, err := sys.Property(propname)
	if err != nil {
		return nil, err
	}

	baseline, err := FitBaseline(energies, sys.Symbols, sys.Species)
	if err != nil {
		return nil, err
	}
	if err := rep.Baseline(baseline.Active); err != nil {
		return nil, err
	}
	if err := rep.Std(baseline.Std); err != nil {
		return nil, err
	}
	logger.Info("baseline fitted",
		log.OperationKey, log.OperationBaseline,
		log.BaselineKey, baseline.Active,
		log.StdKey, baseline.Std,
	)

	sparse, err := system.LoadIndexFile(p.path(cfg.SparseSetFile()))
	if err != nil {
		return nil, err
	}
	if len(sparse) < cfg.GPR.Menv {
		return nil, errors.NewValidationError("gpr.Menv",
			"sparse set lists "+itoa(len(sparse))+" references, fewer than Menv", cfg.GPR.Menv)
	}
	sparse = sparse[:cfg.GPR.Menv]

	train, err := system.LoadIndexFile(p.path(cfg.TrainingSetFile()))
	if err != nil {
		return nil, err
	}
	if err := system.CheckIndices("training_set", train, sys.NData); err != nil {
		return nil, err
	}
	test := system.TestRange(sys.NData, train)

	store := p.Store
	if store == nil {
		store, err = descriptor.OpenMapped(p.path(cfg.FeatureFile()))
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}
	if store.NumStructures() != sys.NData {
		return nil, errors.NewDimensionError("descriptor", sys.NData, store.NumStructures(), 0)
	}
	if store.MaxAtoms() < sys.NAtMax {
		return nil, errors.NewDimensionError("descriptor", sys.NAtMax, store.MaxAtoms(), 1)
	}

	refs, err := descriptor.References(store, sparse)
	if err != nil {
		return nil, err
	}

	builder := &kernel.Builder{
		Kernel:   kernel.Power{Zeta: cfg.GPR.Z},
		Parallel: cfg.GPR.Parallel,
		Logger:   logger,
	}
	kNM, err := builder.NM(store, sys.NAtoms, refs)
	if err != nil {
		return nil, err
	}
	kMM, err := builder.MM(refs)
	if err != nil {
		return nil, err
	}

	proj, err := Project(kMM, cfg.GPR.Eigcut)
	if err != nil {
		return nil, err
	}
	logger.Info("reference kernel projected",
		log.OperationKey, log.OperationProject,
		log.ReferencesKey, cfg.GPR.Menv,
		log.EigcutKey, cfg.GPR.Eigcut,
		log.McutKey, proj.Mcut,
	)

	curve := &LearningCurve{
		Fractions: cfg.GPR.Fractions,
		Regul:     cfg.GPR.Regul,
		Parallel:  cfg.GPR.Parallel,
		Logger:    logger,
	}
	points, err := curve.Run(ctx, CurveInput{
		KNM:        kNM,
		Projection: proj,
		Energies:   energies,
		NAtoms:     sys.NAtoms,
		Train:      train,
		Test:       test,
		Baseline:   baseline,
	})
	if err != nil {
		return nil, err
	}
	if err := rep.Curve(CurvePoints(points)); err != nil {
		return nil, err
	}

	logger.Info("learning curve complete",
		log.RegularizationKey, cfg.GPR.Regul,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return &Result{
		RunID:      runID,
		Config:     cfg,
		System:     sys,
		Baseline:   baseline,
		References: refs,
		Projection: proj,
		Train:      train,
		Test:       test,
		Points:     points,
	}, nil
}

// CurvePoints converts points for the report package.
func CurvePoints(points []Point) []report.CurvePoint {
	out := make([]report.CurvePoint, len(points))
	for i, p := range points {
		out[i] = report.CurvePoint{NTrain: p.NTrain, RMSE: p.RMSE}
	}
	return out
}
