package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/saltgo/descriptor"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
)

func TestPowerEval(t *testing.T) {
	tests := []struct {
		name string
		zeta float64
		a, b []float64
		want float64
	}{
		{"linear", 1, []float64{1, 2}, []float64{3, 4}, 11},
		{"square", 2, []float64{1, 2}, []float64{3, 4}, 121},
		{"negative dot, even power", 2, []float64{1, 0}, []float64{-2, 0}, 4},
		{"negative dot, odd power", 3, []float64{1, 0}, []float64{-2, 0}, -8},
		{"real exponent", 1.5, []float64{4}, []float64{1}, 8},
		{"zero exponent", 0, []float64{1}, []float64{0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Power{Zeta: tt.zeta}.Eval(tt.a, tt.b), 1e-12)
		})
	}
}

func fixture(t *testing.T) (*descriptor.MemoryStore, []int, *mat.Dense) {
	t.Helper()
	store, err := descriptor.NewMemoryStore([][][]float64{
		{{1, 0, 0.5}, {0, 1, 0.5}},
		{{0.3, 0.3, 0.3}},
		{{2, -1, 0}, {0.1, 0.2, 0.3}},
		{{1, 1, 1}, {0.5, 0.5, 0}},
	})
	require.NoError(t, err)
	refs, err := descriptor.References(store, []int{0, 3, 4, 7})
	require.NoError(t, err)
	return store, []int{2, 1, 2, 2}, refs
}

func TestNM(t *testing.T) {
	store, natoms, refs := fixture(t)

	for _, par := range []bool{false, true} {
		b := &Builder{Kernel: Power{Zeta: 2}, Parallel: par, Workers: 3, Logger: log.NewNopLogger()}
		k, err := b.NM(store, natoms, refs)
		require.NoError(t, err)

		r, c := k.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 4, c)

		for iconf := 0; iconf < 4; iconf++ {
			for ref := 0; ref < 4; ref++ {
				want := 0.0
				for iat := 0; iat < natoms[iconf]; iat++ {
					x, err := store.Atom(iconf, iat)
					require.NoError(t, err)
					want += math.Pow(mat.Dot(mat.NewVecDense(3, x), refs.RowView(ref)), 2)
				}
				want /= float64(natoms[iconf])
				assert.InDelta(t, want, k.At(iconf, ref), 1e-12)
			}
		}
	}
}

func TestNMDimensionChecks(t *testing.T) {
	store, natoms, refs := fixture(t)
	b := NewBuilder(2)
	b.Logger = log.NewNopLogger()

	_, err := b.NM(store, natoms[:2], refs)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = b.NM(store, natoms, mat.NewDense(2, 2, nil))
	assert.True(t, errors.As(err, &dimErr))

	_, err = b.NM(store, []int{2, 1, 0, 2}, refs)
	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

type failingStore struct {
	*descriptor.MemoryStore
	badConf int
}

func (s failingStore) Atom(iconf, iat int) ([]float64, error) {
	if iconf == s.badConf {
		return nil, errors.New("descriptor read failed")
	}
	return s.MemoryStore.Atom(iconf, iat)
}

func TestNMPropagatesStoreError(t *testing.T) {
	store, natoms, refs := fixture(t)

	for _, par := range []bool{false, true} {
		b := &Builder{Kernel: Power{Zeta: 2}, Parallel: par, Workers: 4, Logger: log.NewNopLogger()}
		k, err := b.NM(failingStore{MemoryStore: store, badConf: 2}, natoms, refs)
		require.Error(t, err)
		assert.Nil(t, k)
		assert.Contains(t, err.Error(), "descriptor read failed")
	}
}

func TestMMSymmetric(t *testing.T) {
	_, _, refs := fixture(t)

	for _, par := range []bool{false, true} {
		b := &Builder{Kernel: Power{Zeta: 2}, Parallel: par, Logger: log.NewNopLogger()}
		k, err := b.MM(refs)
		require.NoError(t, err)

		n := k.SymmetricDim()
		assert.Equal(t, 4, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.Equal(t, k.At(i, j), k.At(j, i))
				assert.InDelta(t, Power{Zeta: 2}.Eval(refs.RawRowView(i), refs.RawRowView(j)), k.At(i, j), 1e-12)
			}
		}
	}
}

func TestMMNonFinite(t *testing.T) {
	refs := mat.NewDense(2, 1, []float64{-1, 1})
	b := &Builder{Kernel: Power{Zeta: 1.5}, Logger: log.NewNopLogger()}

	_, err := b.MM(refs)
	require.Error(t, err)
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
}
