package gpr

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/linear"
	"github.com/YuminosukeSato/saltgo/metrics"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/system"
)

// Baseline is a per-species additive fit E ≈ Σ_s n_s·w_s of the target.
type Baseline struct {
	// Stechio holds the species counts, ndata × nspecies.
	Stechio *mat.Dense
	Species []string
	// Rank is the numerical rank of StechioᵀStechio.
	Rank int
	// Active is false when the composition cannot separate species
	// contributions: a single species or a rank-deficient count matrix.
	Active  bool
	Weights []float64
	// Values is Stechio·Weights per structure; nil when inactive.
	Values []float64
	// Std is the population standard deviation of the target.
	Std float64
}

// Stoichiometry counts the atoms of every species in every structure.
// A symbol outside species is a ValidationError.
func Stoichiometry(symbols [][]string, species []string) (*mat.Dense, error) {
	if len(symbols) == 0 || len(species) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "stoichiometry")
	}
	known := make(map[string]bool, len(species))
	for _, spe := range species {
		known[spe] = true
	}
	for iconf, syms := range symbols {
		for _, spe := range syms {
			if !known[spe] {
				return nil, errors.NewValidationError("system.species",
					"structure "+itoa(iconf)+" contains species "+spe+" which is not configured", spe)
			}
		}
	}

	_, count := system.AtomIndex(symbols, species)
	st := mat.NewDense(len(symbols), len(species), nil)
	for iconf := range symbols {
		for j, spe := range species {
			st.Set(iconf, j, float64(count[system.ConfSpecies{Conf: iconf, Species: spe}]))
		}
	}
	return st, nil
}

// FitBaseline fits the stoichiometric baseline of energies when the
// dataset composition allows it.
func FitBaseline(energies []float64, symbols [][]string, species []string) (*Baseline, error) {
	if len(energies) != len(symbols) {
		return nil, errors.NewDimensionError("gpr.FitBaseline", len(symbols), len(energies), 0)
	}
	st, err := Stoichiometry(symbols, species)
	if err != nil {
		return nil, err
	}

	var cov mat.Dense
	cov.Mul(st.T(), st)

	b := &Baseline{
		Stechio: st,
		Species: append([]string(nil), species...),
		Rank:    matrixRank(&cov),
		Std:     metrics.PopulationStd(energies),
	}
	if len(species) == 1 || b.Rank < len(species) {
		return b, nil
	}

	r := linear.NewRidge()
	if err := r.Fit(st, mat.NewVecDense(len(energies), append([]float64(nil), energies...))); err != nil {
		return nil, errors.NewDegeneracyError("gpr.FitBaseline", "stoichiometry normal equations could not be solved", err)
	}
	b.Active = true
	b.Weights = r.GetWeights()

	values := mat.NewVecDense(len(energies), nil)
	values.MulVec(st, r.Weights)
	b.Values = values.RawVector().Data
	return b, nil
}

// Weight returns the fitted weight of species, zero when inactive.
func (b *Baseline) Weight(species string) float64 {
	if !b.Active {
		return 0
	}
	for i, s := range b.Species {
		if s == species {
			return b.Weights[i]
		}
	}
	return 0
}

// matrixRank counts singular values above max(r, c)·σ_max·ε.
func matrixRank(a mat.Matrix) int {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return 0
	}
	s := svd.Values(nil)
	if len(s) == 0 {
		return 0
	}
	r, c := a.Dims()
	tol := s[0] * float64(max(r, c)) * epsilon
	rank := 0
	for _, v := range s {
		if v > tol {
			rank++
		}
	}
	return rank
}

var epsilon = math.Nextafter(1, 2) - 1
