package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvQMCode    = "SALTGO_QMCODE"
	EnvDFBasis   = "SALTGO_DFBASIS"
	EnvFilename  = "SALTGO_SYSTEM_FILENAME"
	EnvSpecies   = "SALTGO_SPECIES"
	EnvZeta      = "SALTGO_GPR_Z"
	EnvMenv      = "SALTGO_GPR_MENV"
	EnvRegul     = "SALTGO_GPR_REGUL"
	EnvEigcut    = "SALTGO_GPR_EIGCUT"
	EnvParallel  = "SALTGO_GPR_PARALLEL"
	EnvBasisDB   = "SALTGO_BASISDB"
	EnvSaltedDir = "SALTGO_SALTEDPATH"
)

// ApplyEnv loads dotenv (if the file exists; variables already present in
// the environment win) and then overrides fields from SALTGO_* variables.
func (c *Config) ApplyEnv(dotenv string) error {
	if dotenv != "" {
		if _, err := os.Stat(dotenv); err == nil {
			if err := godotenv.Load(dotenv); err != nil {
				return errors.NewConfigurationError(dotenv, "cannot load .env file", err)
			}
		}
	}

	setString(&c.QM.QMCode, EnvQMCode)
	setString(&c.QM.DFBasis, EnvDFBasis)
	setString(&c.System.Filename, EnvFilename)
	setString(&c.Salted.BasisDB, EnvBasisDB)
	setString(&c.Salted.SaltedPath, EnvSaltedDir)

	if v, ok := os.LookupEnv(EnvSpecies); ok && v != "" {
		var species []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				species = append(species, s)
			}
		}
		c.System.Species = species
	}

	var errs []error
	errs = append(errs, setFloat(&c.GPR.Z, EnvZeta))
	errs = append(errs, setFloat(&c.GPR.Regul, EnvRegul))
	errs = append(errs, setFloat(&c.GPR.Eigcut, EnvEigcut))
	if v, ok := os.LookupEnv(EnvMenv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, errors.NewConfigurationError(EnvMenv, "not an integer", err))
		} else {
			c.GPR.Menv = n
		}
	}
	if v, ok := os.LookupEnv(EnvParallel); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, errors.NewConfigurationError(EnvParallel, "not a boolean", err))
		} else {
			c.GPR.Parallel = b
		}
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return errors.NewConfigurationError(key, "not a number", err)
	}
	*dst = f
	return nil
}
