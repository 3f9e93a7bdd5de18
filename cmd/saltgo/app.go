package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/YuminosukeSato/saltgo/basis"
	"github.com/YuminosukeSato/saltgo/config"
	"github.com/YuminosukeSato/saltgo/core/parallel"
	"github.com/YuminosukeSato/saltgo/gpr"
	"github.com/YuminosukeSato/saltgo/pkg/log"
	"github.com/YuminosukeSato/saltgo/report"
	"github.com/YuminosukeSato/saltgo/system"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "saltgo",
		Usage: "sparse GPR learning curves of a global property",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "inp.yaml",
				Usage:   "YAML run configuration",
			},
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "directory holding the run inputs (defaults to the configuration directory)",
				EnvVars: []string{"SALTGO_DIR"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "debug, info, warn or error",
				EnvVars: []string{"SALTGO_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "console",
				Usage: "human-readable log output instead of JSON",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:  "basis-info",
				Usage: "parse the auxiliary basis files and store channel counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dryrun", Usage: "print the basis information without writing anything"},
					&cli.BoolFlag{Name: "force-overwrite", Usage: "replace an existing database entry"},
				},
				Action: basisInfo,
			},
			{
				Name:  "regress",
				Usage: "fit the sparse GPR learning curve of a property",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "propname", Required: true, Usage: "numeric key of the structure comment line"},
					&cli.StringFlag{Name: "plot", Usage: "write a log-log learning curve image"},
					&cli.StringFlag{Name: "save", Usage: "write the weights of the last fraction (.json or .gob)"},
				},
				Action: regress,
			},
			{
				Name:  "split",
				Usage: "print the partition of the test structures over workers",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Value: 1, Usage: "number of workers"},
				},
				Action: split,
			},
		},
	}
}

func setupLogging(c *cli.Context) error {
	if err := log.SetupLoggerTo(c.App.ErrWriter, c.String("log-level")); err != nil {
		return err
	}
	if c.Bool("console") {
		level, _ := log.ParseLevel(c.String("log-level"))
		log.SetLogger(log.NewConsoleLogger(c.App.ErrWriter, level))
	}
	return nil
}

// loadConfig returns the configuration and the run directory.
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path := c.String("config")
	dir := c.String("dir")
	if dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return cfg, dir, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func basisInfo(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}
	ex := &basis.Extractor{
		Config: cfg,
		Dir:    dir,
		Out:    c.App.Writer,
		Logger: log.GetLogger(),
	}
	return ex.Run(c.Bool("dryrun"), c.Bool("force-overwrite"))
}

func regress(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}
	p := &gpr.Pipeline{
		Config: cfg,
		Dir:    dir,
		Out:    c.App.Writer,
		Logger: log.GetLogger(),
	}
	res, err := p.Run(c.Context, c.String("propname"))
	if err != nil {
		return err
	}

	if path := c.String("plot"); path != "" {
		if err := report.PlotLearningCurve(gpr.CurvePoints(res.Points), resolve(dir, path)); err != nil {
			return err
		}
	}
	if path := c.String("save"); path != "" {
		if err := res.SaveModel(resolve(dir, path)); err != nil {
			return err
		}
		log.GetLogger().Info("model saved",
			log.ModelNameKey, gpr.ModelType,
			log.RunIDKey, res.RunID,
			log.PathKey, path,
		)
	}
	return nil
}

func split(c *cli.Context) error {
	cfg, dir, err := loadConfig(c)
	if err != nil {
		return err
	}
	structs, err := system.ReadXYZFile(resolve(dir, cfg.System.Filename))
	if err != nil {
		return err
	}
	train, err := system.LoadIndexFile(resolve(dir, cfg.TrainingSetFile()))
	if err != nil {
		return err
	}
	if err := system.CheckIndices("training_set", train, len(structs)); err != nil {
		return err
	}

	for w, chunk := range parallel.SplitRange(system.TestRange(len(structs), train), c.Int("workers")) {
		ids := make([]string, len(chunk))
		for i, k := range chunk {
			ids[i] = fmt.Sprint(k)
		}
		if _, err := fmt.Fprintf(c.App.Writer, "worker %d: %s\n", w, strings.Join(ids, " ")); err != nil {
			return err
		}
	}
	return nil
}
