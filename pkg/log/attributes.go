// Package log defines standard attribute keys for regression runs.
//
// Keys follow a hierarchical naming convention ("data.samples",
// "rkhs.mcut") so log lines from different components can be filtered
// consistently.

package log

// Run and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "SparseRidge", "StoichiometryBaseline"
	ModelNameKey = "model.name"

	// RunIDKey identifies one invocation of the pipeline.
	RunIDKey = "run.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package doing the work.
	// Examples: "basis", "kernel", "gpr"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of a run.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of structures involved.
	SamplesKey = "data.samples"

	// FeaturesKey is the descriptor length or projected feature count.
	FeaturesKey = "data.features"

	// AtomsKey is the maximum number of atoms per structure.
	AtomsKey = "data.atoms"

	// SpeciesKey lists the configured chemical species.
	SpeciesKey = "data.species"

	// ReferencesKey is the size of the sparse reference set (Menv).
	ReferencesKey = "data.references"

	// PathKey is a file or directory being read or written.
	PathKey = "data.path"
)

// Model and numerics.
const (
	// ZetaKey is the power-kernel exponent.
	ZetaKey = "kernel.zeta"

	// EigcutKey is the eigenvalue cutoff of the RKHS projection.
	EigcutKey = "rkhs.eigcut"

	// McutKey is the number of retained eigenvalues.
	McutKey = "rkhs.mcut"

	// RegularizationKey is the ridge regularisation.
	RegularizationKey = "hyperparams.regularization"

	// FractionKey is the training-set fraction of a learning-curve point.
	FractionKey = "gpr.fraction"

	// NTrainKey is the number of training structures of a learning-curve point.
	NTrainKey = "gpr.ntrain"

	// BaselineKey reports whether the stoichiometric baseline is active.
	BaselineKey = "gpr.baseline"

	// RMSEKey records a root-mean-square error.
	RMSEKey = "metrics.rmse"

	// ExplainedVarianceKey records the explained-variance score.
	ExplainedVarianceKey = "metrics.explained_variance"

	// StdKey records the standard deviation of the target.
	StdKey = "metrics.std"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// WorkerIDKey identifies a worker in a partitioned run.
	WorkerIDKey = "infra.worker_id"
)

// Error context.
const (
	// ErrorCodeKey provides a structured error code.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationParseBasis = "parse_basis"
	OperationReadSystem = "read_system"
	OperationKernel     = "kernel"
	OperationProject    = "project"
	OperationBaseline   = "baseline"
	OperationRegress    = "regress"

	PhaseSetup      = "setup"
	PhaseTraining   = "training"
	PhaseValidation = "validation"

	ErrorConfiguration = "CONFIGURATION"
	ErrorParse         = "PARSE"
	ErrorValidation    = "VALIDATION"
	ErrorDimension     = "DIMENSION"
	ErrorNotFitted     = "NOT_FITTED"
	ErrorNumerical     = "NUMERICAL"
	ErrorDegenerate    = "DEGENERATE"
	ErrorOverwrite     = "OVERWRITE_CONFLICT"
)
