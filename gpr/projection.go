// Package gpr implements sparse Gaussian-process regression of a global
// property in the Nyström approximation: the structure kernel k_NM is
// projected onto the truncated eigenbasis of the reference kernel k_MM and a
// ridge problem is solved in that feature space.
package gpr

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// Projection maps kernel rows into the RKHS spanned by the retained
// eigenvectors of k_MM.
type Projection struct {
	// V is M×Mcut with columns u_k/sqrt(λ_k).
	V *mat.Dense
	// Eigenvalues are the retained eigenvalues, descending.
	Eigenvalues []float64
	Mcut        int
}

// Project eigendecomposes kMM and keeps the eigenpairs with λ > eigcut.
// Non-positive eigenvalues are dropped whatever the cutoff. An empty result
// is a DegeneracyError.
func Project(kMM mat.Symmetric, eigcut float64) (*Projection, error) {
	m := kMM.SymmetricDim()
	if m == 0 {
		return nil, errors.NewDegeneracyError("gpr.Project", "reference kernel is empty", errors.ErrEmptyData)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(kMM, true); !ok {
		return nil, errors.NewDegeneracyError("gpr.Project", "eigendecomposition of the reference kernel failed", nil)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	cutoff := math.Max(eigcut, 0)
	var kept []int
	negatives := 0
	for _, k := range order {
		if values[k] > cutoff {
			kept = append(kept, k)
		}
		if values[k] < 0 {
			negatives++
		}
	}
	mcut := len(kept)
	if mcut == 0 {
		return nil, errors.NewDegeneracyError("gpr.Project",
			"no eigenvalue of the reference kernel exceeds the cutoff; lower eigcut or check the references", nil)
	}
	if mcut < m {
		errors.Warn(errors.NewEigenvalueCutoffWarning(m, mcut, negatives, eigcut))
	}

	v := mat.NewDense(m, mcut, nil)
	eigenvalues := make([]float64, mcut)
	for c, k := range kept {
		eigenvalues[c] = values[k]
		scale := 1 / math.Sqrt(values[k])
		for r := 0; r < m; r++ {
			v.Set(r, c, vectors.At(r, k)*scale)
		}
	}
	return &Projection{V: v, Eigenvalues: eigenvalues, Mcut: mcut}, nil
}

// Features returns Phi = kNM·V.
func (p *Projection) Features(kNM mat.Matrix) (*mat.Dense, error) {
	_, c := kNM.Dims()
	if m, _ := p.V.Dims(); c != m {
		return nil, errors.NewDimensionError("Projection.Features", m, c, 1)
	}
	var phi mat.Dense
	phi.Mul(kNM, p.V)
	return &phi, nil
}

// Rows copies the rows idx of m into a new matrix.
func Rows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
