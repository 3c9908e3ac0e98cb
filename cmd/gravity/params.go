package main

import (
	"fmt"
	"io"
	"os"

	"github.com/drakos74/gravity/infra/config"
	"github.com/drakos74/gravity/internal/gravity"
	"github.com/drakos74/gravity/internal/preprocess"
	"github.com/drakos74/gravity/internal/storage/file"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// loadConfig builds the parameters from the defaults,
// the config file and the flags given explicitly, in that order.
func loadConfig(cmd *cobra.Command, samples, features int) (gravity.Config, error) {
	cfg := gravity.DefaultConfig()
	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		if err := config.Load(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("distance") {
		cfg.Distance, _ = flags.GetString("distance")
	}
	if flags.Changed("sample-sub") {
		cfg.SampleSubsample, _ = flags.GetInt("sample-sub")
	}
	if flags.Changed("feature-sub") {
		cfg.FeatureSubsample, _ = flags.GetInt("feature-sub")
	}
	if flags.Changed("smoothing") {
		cfg.Smoothing, _ = flags.GetInt("smoothing")
	}
	if flags.Changed("scaling") {
		cfg.ScalingFactor, _ = flags.GetFloat64("scaling")
	}
	if flags.Changed("resolution") {
		r, _ := flags.GetFloat64("resolution")
		cfg.Resolution = &r
	}
	if flags.Changed("convergence") {
		cfg.ConvergenceFactor, _ = flags.GetFloat64("convergence")
	}
	if flags.Changed("fuzz") {
		cfg.FuzzTrials, _ = flags.GetInt("fuzz")
	}
	if flags.Changed("merge-factor") {
		cfg.MergeFactor, _ = flags.GetFloat64("merge-factor")
	}
	if noMerge, _ := flags.GetBool("no-merge"); noMerge {
		cfg.Merge = false
	}
	if refining, _ := flags.GetBool("refining"); refining {
		cfg.Refining = true
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("on-non-convergence") {
		policy, _ := flags.GetString("on-non-convergence")
		cfg.OnNonConvergence = gravity.NonConvergence(policy)
	}
	if flags.Changed("threads") {
		cfg.Workers, _ = flags.GetInt("threads")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if auto, _ := flags.GetBool("auto"); auto {
		if samples < 10 {
			log.Warn().Int("samples", samples).Msg("suspiciously few samples")
		}
		cfg = cfg.Auto(samples, features)
	}
	return cfg, cfg.Validate()
}

// readCounts reads and preprocesses the input table.
func readCounts(cmd *cobra.Command) (*mat.Dense, error) {
	path, _ := cmd.Flags().GetString("counts")
	var (
		m   *mat.Dense
		err error
	)
	if path == "" || path == "-" {
		m, err = file.ReadMatrix(os.Stdin)
	} else {
		m, err = file.ReadMatrixFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read counts: %w", err)
	}
	if m.IsEmpty() {
		return nil, fmt.Errorf("counts '%s': %w", path, gravity.ErrEmptyDataset)
	}
	// preprocessing spreads a non finite cell over its row or column
	if err := gravity.CheckData(m); err != nil {
		return nil, fmt.Errorf("counts '%s': %w", path, err)
	}
	return preprocessCounts(cmd, m)
}

func preprocessCounts(cmd *cobra.Command, m *mat.Dense) (*mat.Dense, error) {
	flags := cmd.Flags()
	if standardize, _ := flags.GetBool("standardize"); standardize {
		m = preprocess.Standardize(m)
	}
	if strength, _ := flags.GetFloat64("borrow"); strength > 0 {
		b, err := preprocess.Borrow(m, strength)
		if err != nil {
			return nil, err
		}
		m = b
	}
	if components, _ := flags.GetInt("pca"); components > 0 {
		r, err := preprocess.Reduce(m, components)
		if err != nil {
			return nil, err
		}
		m = r
	}
	return m, nil
}

// writeOutput writes to the file of the given flag, or stdout if it is empty.
func writeOutput(cmd *cobra.Command, flag string, write func(w io.Writer) error) error {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	return file.WriteFile(path, write)
}
