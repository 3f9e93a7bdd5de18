// Package basis extracts per-species angular and radial channel counts from
// CP2K auxiliary basis-set files and persists them for later runs.
//
// A basis file is named <species>-<basis name> and holds, after one leading
// line, a block count followed by contracted-shell blocks:
//
//	<unused> <lmin> <lmax> <nprimitives> <n_lmin> ... <n_lmax>
//	<alpha> <coefficients of l=lmin> ... <coefficients of l=lmax>
//	...
//
// Only the first basis entry of a file is consumed; later entries are ignored.
package basis

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// ChannelKey identifies one angular-momentum channel of a species.
type ChannelKey struct {
	Species string
	L       int
}

// SpeciesBasis is the persisted record for one species.
// len(Nmax) == Lmax+1.
type SpeciesBasis struct {
	Lmax int   `msgpack:"lmax" json:"lmax"`
	Nmax []int `msgpack:"nmax" json:"nmax"`
}

// Info is the parsed content of the basis files of all species.
type Info struct {
	Species []string
	Lmax    map[string]int
	Nmax    map[ChannelKey]int
	// Alphas concatenates, per channel, the primitive exponents of every
	// block that contributes to it.
	Alphas map[ChannelKey][]float64
	// Contractions holds the coefficients (nmax × nprimitives) of the last
	// block seen for each channel.
	Contractions map[ChannelKey]*mat.Dense
}

// NewInfo returns an empty Info.
func NewInfo() *Info {
	return &Info{
		Lmax:         make(map[string]int),
		Nmax:         make(map[ChannelKey]int),
		Alphas:       make(map[ChannelKey][]float64),
		Contractions: make(map[ChannelKey]*mat.Dense),
	}
}

// FileName is the basis file name of a species.
func FileName(species, basisName string) string {
	return species + "-" + basisName
}

// ParseFiles parses <dir>/<species>-<basisName> for every species.
// A missing file is a configuration error.
func ParseFiles(dir string, species []string, basisName string) (*Info, error) {
	info := NewInfo()
	for _, spe := range species {
		path := filepath.Join(dir, FileName(spe, basisName))
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.NewConfigurationError("species "+spe, "basis file "+path+" is not readable", err)
		}
		err = Parse(f, path, spe, info)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return info, nil
}

type lineReader struct {
	scanner *bufio.Scanner
	source  string
	line    int
}

func (lr *lineReader) next() ([]string, error) {
	if !lr.scanner.Scan() {
		if err := lr.scanner.Err(); err != nil {
			return nil, errors.Wrapf(err, "read %s", lr.source)
		}
		return nil, errors.NewParseError(lr.source, lr.line+1, "unexpected end of file")
	}
	lr.line++
	return strings.Fields(lr.scanner.Text()), nil
}

func (lr *lineReader) int(field string) (int, error) {
	v, err := strconv.Atoi(field)
	if err != nil {
		return 0, errors.NewParseError(lr.source, lr.line, "expected integer, got "+strconv.Quote(field))
	}
	return v, nil
}

// Parse reads the first basis entry of one species file from r and merges
// it into info. source is only used in error messages.
func Parse(r io.Reader, source, species string, info *Info) error {
	lr := &lineReader{scanner: bufio.NewScanner(r), source: source}

	// leading name line
	if _, err := lr.next(); err != nil {
		return err
	}

	fields, err := lr.next()
	if err != nil {
		return err
	}
	if len(fields) < 1 {
		return errors.NewParseError(source, lr.line, "missing block count")
	}
	nsets, err := lr.int(fields[0])
	if err != nil {
		return err
	}

	alphalist := make(map[int][][]float64)
	observed := false
	lmax := 0

	for iset := 0; iset < nsets; iset++ {
		header, err := lr.next()
		if err != nil {
			return err
		}
		if len(header) < 4 {
			return errors.NewParseError(source, lr.line, "block header needs at least 4 fields")
		}
		llmin, err := lr.int(header[1])
		if err != nil {
			return err
		}
		llmax, err := lr.int(header[2])
		if err != nil {
			return err
		}
		npgf, err := lr.int(header[3])
		if err != nil {
			return err
		}
		if llmin < 0 || llmax < llmin || npgf < 0 {
			return errors.NewParseError(source, lr.line, "invalid angular range or primitive count")
		}
		if len(header) < 4+llmax-llmin+1 {
			return errors.NewParseError(source, lr.line, "missing contraction counts")
		}

		ncontr := make(map[int]int, llmax-llmin+1)
		total := 0
		for l := llmin; l <= llmax; l++ {
			n, err := lr.int(header[4+l-llmin])
			if err != nil {
				return err
			}
			if n < 0 {
				return errors.NewParseError(source, lr.line, "negative contraction count")
			}
			ncontr[l] = n
			total += n

			key := ChannelKey{Species: species, L: l}
			info.Nmax[key] += n
			alphalist[l] = append(alphalist[l], make([]float64, npgf))
			if n > 0 && npgf > 0 {
				info.Contractions[key] = mat.NewDense(n, npgf, nil)
			} else {
				delete(info.Contractions, key)
			}

			if !observed || l > lmax {
				lmax = l
			}
			observed = true
		}

		for ipgf := 0; ipgf < npgf; ipgf++ {
			prim, err := lr.next()
			if err != nil {
				return err
			}
			if len(prim) < 1+total {
				return errors.NewParseError(source, lr.line, "primitive line has too few coefficients")
			}
			alpha, err := strconv.ParseFloat(prim[0], 64)
			if err != nil {
				return errors.NewParseError(source, lr.line, "invalid exponent "+strconv.Quote(prim[0]))
			}
			icount := 0
			for l := llmin; l <= llmax; l++ {
				blocks := alphalist[l]
				blocks[len(blocks)-1][ipgf] = alpha
				contr := info.Contractions[ChannelKey{Species: species, L: l}]
				for n := 0; n < ncontr[l]; n++ {
					c, err := strconv.ParseFloat(prim[1+icount], 64)
					if err != nil {
						return errors.NewParseError(source, lr.line, "invalid contraction coefficient "+strconv.Quote(prim[1+icount]))
					}
					contr.Set(n, ipgf, c)
					icount++
				}
			}
		}
	}

	if !observed {
		return errors.NewParseError(source, lr.line, "no angular-momentum channel found")
	}

	info.Species = append(info.Species, species)
	info.Lmax[species] = lmax
	for l := 0; l <= lmax; l++ {
		var flat []float64
		for _, block := range alphalist[l] {
			flat = append(flat, block...)
		}
		info.Alphas[ChannelKey{Species: species, L: l}] = flat
	}
	return nil
}

// SpeciesData converts the parsed channel counts into per-species records.
// It fails when a species has l values missing below its lmax.
func (info *Info) SpeciesData() (map[string]SpeciesBasis, error) {
	counts := make(map[string]int)
	for key := range info.Nmax {
		counts[key.Species]++
	}

	data := make(map[string]SpeciesBasis, len(info.Lmax))
	for _, spe := range info.sortedSpecies() {
		lmax := info.Lmax[spe]
		if lmax+1 != counts[spe] {
			return nil, errors.NewParseError(FileName(spe, "*"), 0,
				"lmax+1 = "+strconv.Itoa(lmax+1)+" but "+strconv.Itoa(counts[spe])+" angular channels were recorded")
		}
		nmax := make([]int, lmax+1)
		for l := 0; l <= lmax; l++ {
			nmax[l] = info.Nmax[ChannelKey{Species: spe, L: l}]
		}
		data[spe] = SpeciesBasis{Lmax: lmax, Nmax: nmax}
	}
	return data, nil
}

func (info *Info) sortedSpecies() []string {
	out := make([]string, 0, len(info.Lmax))
	for spe := range info.Lmax {
		out = append(out, spe)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[ChannelKey]int) []ChannelKey {
	keys := make([]ChannelKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Species != keys[j].Species {
			return keys[i].Species < keys[j].Species
		}
		return keys[i].L < keys[j].L
	})
	return keys
}
