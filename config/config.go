// Package config loads the run configuration of a sparse GPR fit.
//
// The configuration is a YAML document (conventionally inp.yaml) with the
// sections qm, system, salted and gpr. Values may be overridden through
// SALTGO_* environment variables, optionally provided in a .env file next to
// the YAML file. A *Config is always passed explicitly; there is no
// process-wide instance.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// DefaultFractions are the training-set fractions of a learning curve.
var DefaultFractions = []float64{0.025, 0.05, 0.1, 0.2, 0.4, 1.0}

// Config is the complete run configuration.
type Config struct {
	QM     QM     `yaml:"qm"`
	System System `yaml:"system"`
	Salted Salted `yaml:"salted"`
	GPR    GPR    `yaml:"gpr"`
}

// QM describes the quantum-chemistry side of the dataset.
type QM struct {
	// QMCode is the code that produced the basis files; only "cp2k" is supported.
	QMCode string `yaml:"qmcode"`
	// DFBasis is the auxiliary basis-set name, used in file names and as the
	// basis database key.
	DFBasis string `yaml:"dfbasis"`
}

// System describes the structures being fitted.
type System struct {
	Filename string   `yaml:"filename"`
	Species  []string `yaml:"species"`
}

// Salted holds paths of intermediate artefacts.
type Salted struct {
	SaltedName string `yaml:"saltedname"`
	SaltedPath string `yaml:"saltedpath"`
	// BasisDB is the bbolt file holding basis-info records.
	BasisDB string `yaml:"basisdb"`
	// SparseFile overrides sparse_set_<Menv>.txt.
	SparseFile string `yaml:"sparsefile"`
	// TrainFile overrides training_set.txt.
	TrainFile string `yaml:"trainfile"`
	// FeatureFile overrides equirepr_<saltedname>/FEAT-0.bin.
	FeatureFile string `yaml:"featurefile"`
}

// GPR holds the hyperparameters of the sparse regression.
type GPR struct {
	Z         float64   `yaml:"z"`
	Menv      int       `yaml:"Menv"`
	Regul     float64   `yaml:"regul"`
	Eigcut    float64   `yaml:"eigcut"`
	Fractions []float64 `yaml:"fractions"`
	// Parallel solves the learning-curve fractions concurrently.
	Parallel bool `yaml:"parallel"`
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		QM: QM{QMCode: "cp2k"},
		Salted: Salted{
			SaltedName: "default",
			SaltedPath: ".",
			BasisDB:    "basis.db",
		},
		GPR: GPR{
			Z:         2.0,
			Regul:     1e-6,
			Eigcut:    1e-10,
			Fractions: append([]float64(nil), DefaultFractions...),
		},
	}
}

// Load reads a YAML configuration from path on top of Default, applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("config", "cannot read configuration file", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigurationError("config", "invalid YAML", err)
	}
	if len(cfg.GPR.Fractions) == 0 {
		cfg.GPR.Fractions = append([]float64(nil), DefaultFractions...)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if len(c.System.Species) == 0 {
		errs = append(errs, errors.NewValidationError("system.species", "at least one species is required", c.System.Species))
	}
	seen := make(map[string]bool, len(c.System.Species))
	for _, spe := range c.System.Species {
		if seen[spe] {
			errs = append(errs, errors.NewValidationError("system.species", "duplicate species", spe))
		}
		seen[spe] = true
	}
	if c.QM.DFBasis == "" {
		errs = append(errs, errors.NewValidationError("qm.dfbasis", "basis-set name is required", c.QM.DFBasis))
	}
	if c.GPR.Z < 1 {
		errs = append(errs, errors.NewValidationError("gpr.z", "kernel exponent must be >= 1", c.GPR.Z))
	}
	if c.GPR.Menv <= 0 {
		errs = append(errs, errors.NewValidationError("gpr.Menv", "reference set size must be positive", c.GPR.Menv))
	}
	if c.GPR.Regul <= 0 {
		errs = append(errs, errors.NewValidationError("gpr.regul", "ridge regularisation must be positive", c.GPR.Regul))
	}
	if c.GPR.Eigcut < 0 {
		errs = append(errs, errors.NewValidationError("gpr.eigcut", "eigenvalue cutoff must be non-negative", c.GPR.Eigcut))
	}
	prev := 0.0
	for _, f := range c.GPR.Fractions {
		if f <= prev || f > 1 {
			errs = append(errs, errors.NewValidationError("gpr.fractions", "fractions must be strictly increasing within (0, 1]", c.GPR.Fractions))
			break
		}
		prev = f
	}

	return errors.Join(errs...)
}

// SparseSetFile is the reference-index file name.
func (c *Config) SparseSetFile() string {
	if c.Salted.SparseFile != "" {
		return c.Salted.SparseFile
	}
	return fmt.Sprintf("sparse_set_%d.txt", c.GPR.Menv)
}

// TrainingSetFile is the training-index file name.
func (c *Config) TrainingSetFile() string {
	if c.Salted.TrainFile != "" {
		return c.Salted.TrainFile
	}
	return "training_set.txt"
}

// FeatureFile is the descriptor store path.
func (c *Config) FeatureFile() string {
	if c.Salted.FeatureFile != "" {
		return c.Salted.FeatureFile
	}
	return filepath.Join(c.Salted.SaltedPath, "equirepr_"+c.Salted.SaltedName, "FEAT-0.bin")
}

// AlphaFile is the exponent file written for one (species, l) channel.
func (c *Config) AlphaFile(species string, l int) string {
	return fmt.Sprintf("%s-%s-alphas-L%d.dat", species, c.QM.DFBasis, l)
}
