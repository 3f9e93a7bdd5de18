package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

func sampleTensor() [][][]float64 {
	return [][][]float64{
		{{1, 0}, {0, 1}, {1, 1}},
		{{2, 0.5}},
		{{-1, 3}, {0.25, 0.75}},
	}
}

func TestMemoryStore(t *testing.T) {
	s, err := NewMemoryStore(sampleTensor())
	require.NoError(t, err)

	assert.Equal(t, 3, s.NumStructures())
	assert.Equal(t, 3, s.MaxAtoms())
	assert.Equal(t, 2, s.NumFeatures())

	v, err := s.Atom(2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, v)

	// padding slot
	v, err = s.Atom(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, v)

	_, err = s.Atom(3, 0)
	assert.Error(t, err)
	_, err = s.Atom(0, -1)
	assert.Error(t, err)
}

func TestMemoryStoreInvalid(t *testing.T) {
	tests := []struct {
		name string
		data [][][]float64
	}{
		{"empty", nil},
		{"ragged features", [][][]float64{{{1, 2}, {1}}}},
		{"structure without atoms", [][][]float64{{{1}}, {}}},
		{"zero features", [][][]float64{{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMemoryStore(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestMappedRoundTrip(t *testing.T) {
	mem, err := NewMemoryStore(sampleTensor())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "FEAT-0.bin")
	require.NoError(t, WriteMapped(path, mem))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+3*3*2*8), info.Size())

	mapped, err := OpenMapped(path)
	require.NoError(t, err)
	defer mapped.Close()

	assert.Equal(t, mem.NumStructures(), mapped.NumStructures())
	assert.Equal(t, mem.MaxAtoms(), mapped.MaxAtoms())
	assert.Equal(t, mem.NumFeatures(), mapped.NumFeatures())
	for iconf := 0; iconf < mem.NumStructures(); iconf++ {
		for iat := 0; iat < mem.MaxAtoms(); iat++ {
			want, err := mem.Atom(iconf, iat)
			require.NoError(t, err)
			got, err := mapped.Atom(iconf, iat)
			require.NoError(t, err)
			assert.Equal(t, want, got, "conf %d atom %d", iconf, iat)
		}
	}

	require.NoError(t, mapped.Close())
	_, err = mapped.Atom(0, 0)
	assert.Error(t, err)
}

func TestOpenMappedInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenMapped(filepath.Join(dir, "missing.bin"))
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	short := filepath.Join(dir, "short.bin")
	require.NoError(t, os.WriteFile(short, []byte("SGDF"), 0o644))
	_, err = OpenMapped(short)
	var pErr *errors.ParseError
	assert.True(t, errors.As(err, &pErr))

	mem, err := NewMemoryStore(sampleTensor())
	require.NoError(t, err)
	good := filepath.Join(dir, "good.bin")
	require.NoError(t, WriteMapped(good, mem))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)

	truncated := filepath.Join(dir, "truncated.bin")
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)-8], 0o644))
	_, err = OpenMapped(truncated)
	assert.True(t, errors.As(err, &pErr))

	raw[0] = 'X'
	badMagic := filepath.Join(dir, "magic.bin")
	require.NoError(t, os.WriteFile(badMagic, raw, 0o644))
	_, err = OpenMapped(badMagic)
	assert.True(t, errors.As(err, &pErr))
}

func TestReferences(t *testing.T) {
	s, err := NewMemoryStore(sampleTensor())
	require.NoError(t, err)

	// natmax = 3: index 4 -> (1, 1) padding, 6 -> (2, 0), 2 -> (0, 2)
	refs, err := References(s, []int{2, 6, 4})
	require.NoError(t, err)
	r, c := refs.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 1}, refs.RawRowView(0))
	assert.Equal(t, []float64{-1, 3}, refs.RawRowView(1))
	assert.Equal(t, []float64{0, 0}, refs.RawRowView(2))

	_, err = References(s, []int{9})
	assert.Error(t, err)
	_, err = References(s, nil)
	assert.Error(t, err)
}
