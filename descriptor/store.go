// Package descriptor gives access to per-atom descriptor vectors laid out
// as a [structure][atom][feature] tensor. Structures with fewer atoms than
// the maximum are zero padded.
package descriptor

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// Store is read-only access to a descriptor tensor.
type Store interface {
	NumStructures() int
	MaxAtoms() int
	NumFeatures() int
	// Atom returns the descriptor of atom iat of structure iconf. The slice
	// is owned by the caller.
	Atom(iconf, iat int) ([]float64, error)
	Close() error
}

// MemoryStore keeps the whole tensor in memory.
type MemoryStore struct {
	data   [][][]float64
	natmax int
	nfeat  int
}

// NewMemoryStore wraps a tensor. Every atom vector must have the same
// length; structures may have different atom counts.
func NewMemoryStore(data [][][]float64) (*MemoryStore, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "descriptor tensor")
	}
	s := &MemoryStore{data: data, nfeat: -1}
	for iconf, conf := range data {
		if len(conf) > s.natmax {
			s.natmax = len(conf)
		}
		for _, v := range conf {
			if s.nfeat < 0 {
				s.nfeat = len(v)
			}
			if len(v) != s.nfeat {
				return nil, errors.NewDimensionError("NewMemoryStore", s.nfeat, len(v), 1)
			}
		}
		if len(conf) == 0 {
			return nil, errors.NewValidationError("descriptor", "structure "+itoa(iconf)+" has no atoms", iconf)
		}
	}
	if s.nfeat <= 0 {
		return nil, errors.NewValidationError("descriptor", "descriptor vectors are empty", s.nfeat)
	}
	return s, nil
}

func (s *MemoryStore) NumStructures() int { return len(s.data) }
func (s *MemoryStore) MaxAtoms() int      { return s.natmax }
func (s *MemoryStore) NumFeatures() int   { return s.nfeat }
func (s *MemoryStore) Close() error       { return nil }

func (s *MemoryStore) Atom(iconf, iat int) ([]float64, error) {
	if err := checkAtom(s, iconf, iat); err != nil {
		return nil, err
	}
	out := make([]float64, s.nfeat)
	if iat < len(s.data[iconf]) {
		copy(out, s.data[iconf][iat])
	}
	return out, nil
}

func checkAtom(s Store, iconf, iat int) error {
	if iconf < 0 || iconf >= s.NumStructures() {
		return errors.NewValidationError("iconf", "structure index out of range", iconf)
	}
	if iat < 0 || iat >= s.MaxAtoms() {
		return errors.NewValidationError("iat", "atom index out of range", iat)
	}
	return nil
}

// References gathers reference environments into a len(indices)×nfeat
// matrix. Index i addresses atom i%natmax of structure i/natmax.
func References(s Store, indices []int) (*mat.Dense, error) {
	if len(indices) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "reference indices")
	}
	natmax := s.MaxAtoms()
	refs := mat.NewDense(len(indices), s.NumFeatures(), nil)
	for r, idx := range indices {
		if idx < 0 || idx >= s.NumStructures()*natmax {
			return nil, errors.NewValidationError("sparse_set", "reference index "+itoa(idx)+" outside the descriptor tensor", idx)
		}
		v, err := s.Atom(idx/natmax, idx%natmax)
		if err != nil {
			return nil, err
		}
		refs.SetRow(r, v)
	}
	return refs, nil
}
