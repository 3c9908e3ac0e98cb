package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("gravity failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gravity",
		Short: "Gravity clustering of numeric tables",
		Long: `gravity clusters the rows of a whitespace separated table of numbers.

Every row descends towards the mean of its nearest neighbours until it stabilises,
the stable positions are then grouped, using the spread of repeated descents
as the uncertainty of each row.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("counts", "c", "", "input table, stdin if empty")
	flags.StringP("output", "o", "", "output file, stdout if empty")
	flags.String("config", "", "yaml or json parameter file")
	flags.Bool("auto", false, "derive subsample sizes from the table shape")
	flags.String("distance", "", "distance metric: manhattan, euclidean, cosine or correlation")
	flags.Int("sample-sub", 0, "candidate points drawn per step")
	flags.Int("feature-sub", 0, "features compared per step")
	flags.Int("smoothing", 0, "nearest candidates averaged per step")
	flags.Float64("scaling", 0, "scaling factor of the clustering resolution")
	flags.Float64("resolution", 0, "fixed clustering resolution, derived from the data if not set")
	flags.Float64("convergence", 0, "convergence factor")
	flags.Int("fuzz", 0, "descents per point")
	flags.Float64("merge-factor", 0, "merge clusters closer than this multiple of their radii")
	flags.Bool("no-merge", false, "skip merging overlapping clusters")
	flags.Bool("refining", false, "cluster the stable positions again with a tighter resolution")
	flags.Int("max-steps", 0, "step budget per descent")
	flags.String("on-non-convergence", "", "abort or exclude points that run out of steps")
	flags.IntP("threads", "p", 0, "worker pool size")
	flags.Int64("seed", 0, "random seed, time based if 0")
	flags.Bool("standardize", false, "standardize columns before fitting")
	flags.Float64("borrow", 0, "share values between correlated features with this strength")
	flags.Int("pca", 0, "project onto this many principal components before fitting")
	flags.BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newFitCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newFitPredictCmd())
	rootCmd.AddCommand(newBaselineCmd())
	return rootCmd
}
