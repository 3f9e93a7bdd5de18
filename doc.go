// Package saltgo fits a global property of atomistic structures, such as
// the total energy, with sparse Gaussian-process regression.
//
// The regression follows the Nyström approximation. Per-atom descriptors
// of every structure are compared with a set of Menv reference
// environments through the polynomial kernel (x·x')^ζ; the structure
// kernel k_NM is the per-atom average of those values. The reference
// kernel k_MM is eigendecomposed, eigenpairs below a cutoff are dropped
// and k_NM is projected onto the remaining basis. A ridge problem in that
// feature space is then solved for nested prefixes of the training set,
// giving a learning curve of test RMSE against training size.
//
// When the dataset composition varies, a stoichiometric baseline
// E ≈ Σ_species n_species·w_species is removed from the target before the
// regression and added back to the predictions.
//
// # Packages
//
//   - config: YAML run configuration with SALTGO_* environment overrides
//   - basis: CP2K auxiliary basis parsing and the bbolt basis database
//   - system: extended-XYZ structures, index files, species bookkeeping
//   - descriptor: in-memory and memory-mapped descriptor tensors
//   - kernel: structure and reference kernel assembly
//   - gpr: projection, baseline, regression, learning curve and pipeline
//   - report: console report and learning-curve plot
//
// # Command line
//
// The saltgo command wraps the two steps of a run:
//
//	saltgo --config inp.yaml basis-info
//	saltgo --config inp.yaml regress --propname energy --plot curve.png
//
// # Library use
//
//	cfg, err := config.Load("inp.yaml")
//	if err != nil {
//	    return err
//	}
//	p := &gpr.Pipeline{Config: cfg, Dir: ".", Out: os.Stdout}
//	res, err := p.Run(ctx, "energy")
//	if err != nil {
//	    return err
//	}
//	return res.SaveModel("model.json")
package saltgo
