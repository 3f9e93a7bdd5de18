// Package system reads the structures of a dataset and derives the
// dimensions used by the regression: atom counts, species bookkeeping and
// the basis maxima across species.
package system

import (
	"path/filepath"
	"sort"

	"github.com/YuminosukeSato/saltgo/basis"
	"github.com/YuminosukeSato/saltgo/config"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// System describes a dataset together with the basis of its species.
type System struct {
	Species []string
	Lmax    map[string]int
	Nmax    map[basis.ChannelKey]int
	// Llmax and Nnmax are the maxima of Lmax and Nmax over all species.
	Llmax int
	Nnmax int

	NData int
	// Symbols and NAtoms cover the configured species only.
	Symbols [][]string
	NAtoms  []int
	NAtMax  int
	// Excluded lists, sorted, the species present in the structures but not
	// configured.
	Excluded []string

	Structures []Structure
}

// ReadSystem reads cfg.System.Filename, relative to dir unless absolute,
// and combines it with the basis record of every configured species.
func ReadSystem(cfg *config.Config, dir string, data map[string]basis.SpeciesBasis) (*System, error) {
	path := cfg.System.Filename
	if dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	structs, err := ReadXYZFile(path)
	if err != nil {
		return nil, err
	}
	return NewSystem(structs, cfg.System.Species, data)
}

// NewSystem builds a System from already parsed structures. Atoms of
// species outside species are dropped; a structure left without atoms is a
// ValidationError.
func NewSystem(structs []Structure, species []string, data map[string]basis.SpeciesBasis) (*System, error) {
	if len(structs) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "no structures")
	}
	if len(species) == 0 {
		return nil, errors.NewConfigurationError("system.species", "no species configured", nil)
	}

	sys := &System{
		Species:    append([]string(nil), species...),
		Lmax:       make(map[string]int, len(species)),
		Nmax:       make(map[basis.ChannelKey]int),
		NData:      len(structs),
		Structures: structs,
	}

	for i, spe := range species {
		rec, ok := data[spe]
		if !ok {
			return nil, errors.NewConfigurationError("system.species", "species "+spe+" has no basis record", nil)
		}
		if len(rec.Nmax) != rec.Lmax+1 {
			return nil, errors.NewConfigurationError("system.species", "basis record of "+spe+" is inconsistent", nil)
		}
		sys.Lmax[spe] = rec.Lmax
		if i == 0 || rec.Lmax > sys.Llmax {
			sys.Llmax = rec.Lmax
		}
		for l, n := range rec.Nmax {
			sys.Nmax[basis.ChannelKey{Species: spe, L: l}] = n
			if n > sys.Nnmax {
				sys.Nnmax = n
			}
		}
	}

	raw := make([][]string, len(structs))
	for i, s := range structs {
		raw[i] = s.Symbols
	}
	sys.Symbols, sys.NAtoms, sys.Excluded = FilterSpecies(raw, species)
	for i, n := range sys.NAtoms {
		if n == 0 {
			return nil, errors.NewValidationError("system.species", "structure "+itoa(i)+" has no atom of a configured species", i)
		}
		if n > sys.NAtMax {
			sys.NAtMax = n
		}
	}
	return sys, nil
}

// Property returns the value of key name for every structure.
func (s *System) Property(name string) ([]float64, error) {
	out := make([]float64, s.NData)
	for i, st := range s.Structures {
		v, ok := st.Info[name]
		if !ok {
			return nil, errors.NewValidationError("propname", "structure "+itoa(i)+" has no numeric property "+name, name)
		}
		out[i] = v
	}
	return out, nil
}

// ConfSpecies keys per-structure, per-species bookkeeping.
type ConfSpecies struct {
	Conf    int
	Species string
}

// AtomIndex lists, for every structure and species, the positions of the
// atoms of that species. Atoms of species outside the list are skipped.
func AtomIndex(symbols [][]string, species []string) (map[ConfSpecies][]int, map[ConfSpecies]int) {
	idx := make(map[ConfSpecies][]int, len(symbols)*len(species))
	count := make(map[ConfSpecies]int, len(symbols)*len(species))
	known := make(map[string]bool, len(species))
	for _, spe := range species {
		known[spe] = true
	}

	for iconf, syms := range symbols {
		for _, spe := range species {
			idx[ConfSpecies{iconf, spe}] = []int{}
			count[ConfSpecies{iconf, spe}] = 0
		}
		for iat, spe := range syms {
			if !known[spe] {
				continue
			}
			key := ConfSpecies{iconf, spe}
			idx[key] = append(idx[key], iat)
			count[key]++
		}
	}
	return idx, count
}

// FilterSpecies drops atoms whose species is not listed and returns the
// new symbol lists with their lengths. Excluded species, sorted, are
// returned for reporting.
func FilterSpecies(symbols [][]string, species []string) (filtered [][]string, natoms []int, excluded []string) {
	known := make(map[string]bool, len(species))
	for _, spe := range species {
		known[spe] = true
	}
	dropped := make(map[string]bool)

	filtered = make([][]string, len(symbols))
	natoms = make([]int, len(symbols))
	for i, syms := range symbols {
		kept := make([]string, 0, len(syms))
		for _, spe := range syms {
			if known[spe] {
				kept = append(kept, spe)
			} else {
				dropped[spe] = true
			}
		}
		filtered[i] = kept
		natoms[i] = len(kept)
	}

	for spe := range dropped {
		excluded = append(excluded, spe)
	}
	sort.Strings(excluded)
	return filtered, natoms, excluded
}
