package basis

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// FormatInfo writes a sorted, human-readable dump of info to w.
func FormatInfo(w io.Writer, dfbasis string, info *Info) error {
	var b strings.Builder

	species := info.sortedSpecies()
	fmt.Fprintf(&b, "species = %v\n", species)
	fmt.Fprintf(&b, "dfbasis = %s\n", dfbasis)

	b.WriteString("lmax = {")
	for i, spe := range species {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %d", spe, info.Lmax[spe])
	}
	b.WriteString("}\n")

	b.WriteString("nmax = {")
	for i, key := range sortedKeys(info.Nmax) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%s, %d): %d", key.Species, key.L, info.Nmax[key])
	}
	b.WriteString("}\n")

	data, err := info.SpeciesData()
	if err != nil {
		return err
	}
	b.WriteString("basis data = {")
	for i, spe := range species {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: {lmax: %d, nmax: %v}", spe, data[spe].Lmax, data[spe].Nmax)
	}
	b.WriteString("}\n")

	b.WriteString("alphas:\n")
	for _, key := range sortedKeys(info.Nmax) {
		fmt.Fprintf(&b, "  (%s, %d): %s\n", key.Species, key.L, formatFloats(info.Alphas[key]))
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// WriteAlphas writes one exponent per line in %.18e notation.
func WriteAlphas(path string, alphas []float64) error {
	var b strings.Builder
	for _, a := range alphas {
		fmt.Fprintf(&b, "%.18e\n", a)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
