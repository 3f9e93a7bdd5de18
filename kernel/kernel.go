// Package kernel assembles the structure-reference and reference-reference
// kernel matrices of a sparse regression from per-atom descriptors.
package kernel

import (
	"math"
	"runtime"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/core/parallel"
	"github.com/YuminosukeSato/saltgo/descriptor"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
)

// Power is the polynomial kernel k(a, b) = (a·b)^Zeta.
type Power struct {
	Zeta float64
}

// Eval returns (a·b)^Zeta. Integer exponents are applied by repeated
// multiplication so negative dot products stay finite.
func (p Power) Eval(a, b []float64) float64 {
	return p.apply(floats.Dot(a, b))
}

func (p Power) apply(dot float64) float64 {
	if n := int(p.Zeta); float64(n) == p.Zeta && n >= 0 && n <= 16 {
		out := 1.0
		for i := 0; i < n; i++ {
			out *= dot
		}
		return out
	}
	return math.Pow(dot, p.Zeta)
}

// Builder computes kernel matrices.
type Builder struct {
	Kernel Power
	// Parallel spreads rows over Workers goroutines (NumCPU when zero).
	Parallel bool
	Workers  int
	Logger   log.Logger
}

// NewBuilder returns a sequential Builder for exponent zeta.
func NewBuilder(zeta float64) *Builder {
	return &Builder{Kernel: Power{Zeta: zeta}}
}

func (b *Builder) logger() log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.GetLogger()
}

func (b *Builder) forRows(n int, fn func(start, end int) error) error {
	if !b.Parallel {
		return fn(0, n)
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return parallel.ParallelizeErr(n, workers, fn)
}

// NM returns the ndata×M matrix
//
//	k_NM[i, r] = (1/natoms[i]) Σ_{iat < natoms[i]} (x_{i,iat}·ref_r)^ζ
//
// where refs holds one reference descriptor per row.
func (b *Builder) NM(store descriptor.Store, natoms []int, refs *mat.Dense) (*mat.Dense, error) {
	ndata := store.NumStructures()
	if len(natoms) != ndata {
		return nil, errors.NewDimensionError("kernel.NM", ndata, len(natoms), 0)
	}
	menv, nfeat := refs.Dims()
	if nfeat != store.NumFeatures() {
		return nil, errors.NewDimensionError("kernel.NM", store.NumFeatures(), nfeat, 1)
	}
	for i, n := range natoms {
		if n <= 0 || n > store.MaxAtoms() {
			return nil, errors.NewValidationError("natoms", "atom count of structure "+itoa(i)+" outside [1, natmax]", n)
		}
	}

	started := time.Now()
	k := mat.NewDense(ndata, menv, nil)

	err := b.forRows(ndata, func(start, end int) error {
		row := make([]float64, menv)
		for iconf := start; iconf < end; iconf++ {
			for r := range row {
				row[r] = 0
			}
			for iat := 0; iat < natoms[iconf]; iat++ {
				x, err := store.Atom(iconf, iat)
				if err != nil {
					return err
				}
				for r := 0; r < menv; r++ {
					row[r] += b.Kernel.Eval(x, refs.RawRowView(r))
				}
			}
			floats.Scale(1/float64(natoms[iconf]), row)
			k.SetRow(iconf, row)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "kernel.NM")
	}
	if err := errors.CheckMatrix("kernel.NM", k, 0); err != nil {
		return nil, err
	}

	b.logger().Debug("structure kernel assembled",
		log.OperationKey, log.OperationKernel,
		log.SamplesKey, ndata,
		log.ReferencesKey, menv,
		log.FeaturesKey, nfeat,
		log.ZetaKey, b.Kernel.Zeta,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return k, nil
}

// MM returns the symmetric M×M matrix k_MM[r, s] = (ref_r·ref_s)^ζ.
func (b *Builder) MM(refs *mat.Dense) (*mat.SymDense, error) {
	menv, _ := refs.Dims()
	k := mat.NewSymDense(menv, nil)

	// each worker owns whole rows of the upper triangle
	_ = b.forRows(menv, func(start, end int) error {
		for r := start; r < end; r++ {
			a := refs.RawRowView(r)
			for s := r; s < menv; s++ {
				k.SetSym(r, s, b.Kernel.Eval(a, refs.RawRowView(s)))
			}
		}
		return nil
	})
	if err := errors.CheckMatrix("kernel.MM", k, 0); err != nil {
		return nil, err
	}

	b.logger().Debug("reference kernel assembled",
		log.OperationKey, log.OperationKernel,
		log.ReferencesKey, menv,
		log.ZetaKey, b.Kernel.Zeta,
	)
	return k, nil
}

func itoa(i int) string { return strconv.Itoa(i) }
