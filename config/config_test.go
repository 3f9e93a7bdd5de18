package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

const sampleYAML = `
qm:
  qmcode: cp2k
  dfbasis: RI-AUTO-OPT
system:
  filename: water.xyz
  species: [H, O]
salted:
  saltedname: water
  saltedpath: /data/run
gpr:
  z: 2
  Menv: 50
  regul: 1.0e-8
  eigcut: 1.0e-10
`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "inp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cp2k", cfg.QM.QMCode)
	assert.Equal(t, "RI-AUTO-OPT", cfg.QM.DFBasis)
	assert.Equal(t, []string{"H", "O"}, cfg.System.Species)
	assert.Equal(t, 2.0, cfg.GPR.Z)
	assert.Equal(t, 50, cfg.GPR.Menv)
	assert.Equal(t, 1e-8, cfg.GPR.Regul)
	assert.Equal(t, DefaultFractions, cfg.GPR.Fractions)
	assert.Equal(t, "basis.db", cfg.Salted.BasisDB)

	assert.Equal(t, "sparse_set_50.txt", cfg.SparseSetFile())
	assert.Equal(t, "training_set.txt", cfg.TrainingSetFile())
	assert.Equal(t, filepath.Join("/data/run", "equirepr_water", "FEAT-0.bin"), cfg.FeatureFile())
	assert.Equal(t, "O-RI-AUTO-OPT-alphas-L2.dat", cfg.AlphaFile("O", 2))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleYAML)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SALTGO_GPR_MENV=80\n"), 0o644))

	t.Setenv(EnvRegul, "0.001")
	t.Setenv(EnvSpecies, "Au, C ,")
	// godotenv does not override variables that are already set
	t.Setenv(EnvMenv, "")
	require.NoError(t, os.Unsetenv(EnvMenv))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.GPR.Menv)
	assert.Equal(t, 0.001, cfg.GPR.Regul)
	assert.Equal(t, []string{"Au", "C"}, cfg.System.Species)
}

func TestEnvOverrideBadNumber(t *testing.T) {
	cfg := Default()
	t.Setenv(EnvZeta, "two")

	err := cfg.ApplyEnv("")
	require.Error(t, err)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.QM.DFBasis = "RI"
		cfg.System.Species = []string{"H"}
		cfg.GPR.Menv = 10
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no species", func(c *Config) { c.System.Species = nil }, true},
		{"duplicate species", func(c *Config) { c.System.Species = []string{"H", "H"} }, true},
		{"zeta below one", func(c *Config) { c.GPR.Z = 0.5 }, true},
		{"zero Menv", func(c *Config) { c.GPR.Menv = 0 }, true},
		{"zero regul", func(c *Config) { c.GPR.Regul = 0 }, true},
		{"negative eigcut", func(c *Config) { c.GPR.Eigcut = -1 }, true},
		{"unordered fractions", func(c *Config) { c.GPR.Fractions = []float64{0.5, 0.1} }, true},
		{"fraction above one", func(c *Config) { c.GPR.Fractions = []float64{0.5, 1.5} }, true},
		{"missing basis", func(c *Config) { c.QM.DFBasis = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var vErr *errors.ValidationError
				assert.True(t, errors.As(err, &vErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("gpr: [unclosed"))
	assert.Error(t, err)
}
