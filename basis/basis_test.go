package basis

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/saltgo/config"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
)

const hydrogenBasis = `H RI-TEST
2
1 0 1 2 1 1
 10.0  0.5  0.3
  1.0  0.7  0.4
1 0 0 1 2
  0.2  1.0  0.5
H SECOND-ENTRY
1
1 0 3 1 1 1 1 1
 9.0 1 1 1 1
`

const oxygenBasis = `O RI-TEST
1
1 0 2 1 1 1 1
 5.0 1.0 1.0 1.0
`

func writeBasisFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "H-RI-TEST"), []byte(hydrogenBasis), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "O-RI-TEST"), []byte(oxygenBasis), 0o644))
	return dir
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.QM.DFBasis = "RI-TEST"
	cfg.System.Species = []string{"H", "O"}
	cfg.GPR.Menv = 4
	return cfg
}

func TestParse(t *testing.T) {
	info := NewInfo()
	require.NoError(t, Parse(strings.NewReader(hydrogenBasis), "H-RI-TEST", "H", info))

	assert.Equal(t, 1, info.Lmax["H"])
	assert.Equal(t, 3, info.Nmax[ChannelKey{"H", 0}])
	assert.Equal(t, 1, info.Nmax[ChannelKey{"H", 1}])
	assert.Equal(t, []float64{10, 1, 0.2}, info.Alphas[ChannelKey{"H", 0}])
	assert.Equal(t, []float64{10, 1}, info.Alphas[ChannelKey{"H", 1}])

	// second entry of the file is not consumed
	_, ok := info.Nmax[ChannelKey{"H", 3}]
	assert.False(t, ok)

	c0 := info.Contractions[ChannelKey{"H", 0}]
	require.NotNil(t, c0)
	r, c := c0.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 1.0, c0.At(0, 0))
	assert.Equal(t, 0.5, c0.At(1, 0))

	c1 := info.Contractions[ChannelKey{"H", 1}]
	require.NotNil(t, c1)
	assert.Equal(t, 0.3, c1.At(0, 0))
	assert.Equal(t, 0.4, c1.At(0, 1))

	data, err := info.SpeciesData()
	require.NoError(t, err)
	assert.Equal(t, SpeciesBasis{Lmax: 1, Nmax: []int{3, 1}}, data["H"])
}

func TestParseInvariant(t *testing.T) {
	dir := writeBasisFiles(t)
	info, err := ParseFiles(dir, []string{"H", "O"}, "RI-TEST")
	require.NoError(t, err)

	data, err := info.SpeciesData()
	require.NoError(t, err)
	for spe, rec := range data {
		assert.Len(t, rec.Nmax, rec.Lmax+1, spe)
		for l := 0; l <= rec.Lmax; l++ {
			_, ok := info.Nmax[ChannelKey{spe, l}]
			assert.True(t, ok, "%s l=%d", spe, l)
		}
	}
	assert.Equal(t, SpeciesBasis{Lmax: 2, Nmax: []int{1, 1, 1}}, data["O"])
}

func TestSpeciesDataMissingChannel(t *testing.T) {
	info := NewInfo()
	src := "X RI\n1\n1 1 1 1 1\n 2.0 1.0\n"
	require.NoError(t, Parse(strings.NewReader(src), "X-RI", "X", info))

	_, err := info.SpeciesData()
	require.Error(t, err)
	var pErr *errors.ParseError
	assert.True(t, errors.As(err, &pErr))
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no block count", "H RI\n"},
		{"bad block count", "H RI\nabc\n"},
		{"short header", "H RI\n1\n1 0 0\n"},
		{"missing counts", "H RI\n1\n1 0 2 1 1\n"},
		{"truncated primitives", "H RI\n1\n1 0 0 2 1\n 1.0 1.0\n"},
		{"too few coefficients", "H RI\n1\n1 0 0 1 2\n 1.0 1.0\n"},
		{"bad exponent", "H RI\n1\n1 0 0 1 1\n x 1.0\n"},
		{"bad coefficient", "H RI\n1\n1 0 0 1 1\n 1.0 y\n"},
		{"inverted range", "H RI\n1\n1 2 0 1 1\n"},
		{"no channel", "H RI\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Parse(strings.NewReader(tt.src), "H-RI", "H", NewInfo())
			require.Error(t, err)
			var pErr *errors.ParseError
			assert.True(t, errors.As(err, &pErr), "got %v", err)
		})
	}
}

func TestParseFilesMissing(t *testing.T) {
	_, err := ParseFiles(t.TempDir(), []string{"H"}, "RI-TEST")
	require.Error(t, err)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func TestExtractorDryRun(t *testing.T) {
	dir := writeBasisFiles(t)
	before := listDir(t, dir)

	var dry bytes.Buffer
	ex := &Extractor{Config: testConfig(), Dir: dir, Out: &dry, Logger: log.NewNopLogger()}
	require.NoError(t, ex.Run(true, false))
	assert.Equal(t, before, listDir(t, dir))
	assert.True(t, strings.HasPrefix(dry.String(), "Dryrun mode, not writing to the database\n"))

	var real bytes.Buffer
	ex.Out = &real
	require.NoError(t, ex.Run(false, false))
	assert.Equal(t, strings.TrimPrefix(dry.String(), "Dryrun mode, not writing to the database\n"), real.String())

	after := listDir(t, dir)
	assert.Contains(t, after, "basis.db")
	assert.Contains(t, after, "H-RI-TEST-alphas-L0.dat")
	assert.Contains(t, after, "H-RI-TEST-alphas-L1.dat")
	assert.Contains(t, after, "O-RI-TEST-alphas-L2.dat")

	raw, err := os.ReadFile(filepath.Join(dir, "H-RI-TEST-alphas-L0.dat"))
	require.NoError(t, err)
	assert.Equal(t,
		"1.000000000000000000e+01\n1.000000000000000000e+00\n2.000000000000000111e-01\n",
		string(raw))
}

func TestExtractorOverwriteConflict(t *testing.T) {
	dir := writeBasisFiles(t)
	db, err := OpenDatabase(filepath.Join(dir, "basis.db"))
	require.NoError(t, err)
	defer db.Close()

	stale := map[string]SpeciesBasis{"H": {Lmax: 0, Nmax: []int{7}}}
	require.NoError(t, db.Write("RI-TEST", stale, false))

	ex := &Extractor{Config: testConfig(), Database: db, Dir: dir, Out: &bytes.Buffer{}, Logger: log.NewNopLogger()}
	err = ex.Run(false, false)
	require.Error(t, err)
	var owErr *errors.OverwriteConflictError
	assert.True(t, errors.As(err, &owErr))

	got, ok, err := db.Read("RI-TEST")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stale, got)

	require.NoError(t, ex.Run(false, true))
	got, ok, err = db.Read("RI-TEST")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{3, 1}, got["H"].Nmax)
	assert.Equal(t, 2, got["O"].Lmax)

	names, err := db.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"RI-TEST"}, names)
}

func TestExtractorRejectsOtherCodes(t *testing.T) {
	cfg := testConfig()
	cfg.QM.QMCode = "aims"
	ex := &Extractor{Config: cfg, Dir: writeBasisFiles(t), Out: &bytes.Buffer{}, Logger: log.NewNopLogger()}

	err := ex.Run(true, false)
	require.Error(t, err)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDatabaseReadMissing(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "basis.db"))
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.Read("nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}
