package basis

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/saltgo/config"
	"github.com/YuminosukeSato/saltgo/pkg/errors"
	"github.com/YuminosukeSato/saltgo/pkg/log"
)

// Extractor parses the basis files of a configuration, writes one alpha file
// per channel and stores the per-species channel counts in a Database.
type Extractor struct {
	Config *config.Config
	// Database receives the record; it is opened from Config.Salted.BasisDB
	// when nil and a write is needed.
	Database *Database
	// Dir holds the basis files and receives the alpha files.
	Dir    string
	Out    io.Writer
	Logger log.Logger
}

// Run performs the extraction. With dryrun set the report is printed and
// nothing is written. Without force an existing database entry for the
// basis name is an OverwriteConflictError.
func (e *Extractor) Run(dryrun, force bool) (err error) {
	cfg := e.Config
	logger := e.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	logger = logger.With(log.OperationKey, log.OperationParseBasis)
	out := e.Out
	if out == nil {
		out = os.Stdout
	}

	if cfg.QM.QMCode != "cp2k" {
		return errors.NewConfigurationError("qm.qmcode", fmt.Sprintf("basis extraction supports cp2k only, got %q", cfg.QM.QMCode), nil)
	}

	info, err := ParseFiles(e.Dir, cfg.System.Species, cfg.QM.DFBasis)
	if err != nil {
		return err
	}
	data, err := info.SpeciesData()
	if err != nil {
		return err
	}
	logger.Info("basis files parsed", log.SpeciesKey, len(data), "basis", cfg.QM.DFBasis)

	if dryrun {
		if _, err := fmt.Fprintln(out, "Dryrun mode, not writing to the database"); err != nil {
			return err
		}
	}
	if err := FormatInfo(out, cfg.QM.DFBasis, info); err != nil {
		return err
	}
	if dryrun {
		return nil
	}

	for _, key := range sortedKeys(info.Nmax) {
		if key.L > info.Lmax[key.Species] {
			continue
		}
		path := filepath.Join(e.Dir, cfg.AlphaFile(key.Species, key.L))
		if err := WriteAlphas(path, info.Alphas[key]); err != nil {
			return errors.Wrapf(err, "write alpha file %s", path)
		}
		logger.Debug("alpha file written", log.PathKey, path)
	}

	db := e.Database
	if db == nil {
		path := cfg.Salted.BasisDB
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Dir, path)
		}
		db, err = OpenDatabase(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); err == nil {
				err = cerr
			}
		}()
	}

	if err := db.Write(cfg.QM.DFBasis, data, force); err != nil {
		logger.Warn("basis record not stored", err, "basis", cfg.QM.DFBasis)
		return err
	}
	logger.Info("basis record stored", "basis", cfg.QM.DFBasis, "force", force)
	return nil
}
