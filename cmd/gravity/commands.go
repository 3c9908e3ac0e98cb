package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/drakos74/gravity/internal/gravity"
	gmath "github.com/drakos74/gravity/internal/math"
	"github.com/drakos74/gravity/internal/math/ml"
	"github.com/drakos74/gravity/internal/storage"
	"github.com/drakos74/gravity/internal/storage/file"
	"github.com/drakos74/gravity/internal/storage/file/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// prepare reads the counts and the parameters shared by all commands.
func prepare(cmd *cobra.Command) (*mat.Dense, gravity.Config, error) {
	data, err := readCounts(cmd)
	if err != nil {
		return nil, gravity.Config{}, err
	}
	n, d := data.Dims()
	cfg, err := loadConfig(cmd, n, d)
	if err != nil {
		return nil, cfg, err
	}
	log.Info().
		Int("samples", n).
		Int("features", d).
		Str("distance", cfg.Distance).
		Int("fuzz", cfg.FuzzTrials).
		Msg("loaded counts")
	return data, cfg, nil
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Compute the stable position of every row",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			field, err := gravity.New(data, cfg)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			fit, err := field.Fit(ctx)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, "output", func(w io.Writer) error {
				return file.WriteMatrix(w, fit.Positions)
			}); err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("fuzz-output"); path != "" {
				return file.WriteFile(path, func(w io.Writer) error {
					return file.WriteVector(w, fit.Fuzz)
				})
			}
			return nil
		},
	}
	cmd.Flags().String("fuzz-output", "", "file for the fuzz of every row")
	return cmd
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Cluster previously fitted positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			positionsPath, _ := flags.GetString("positions")
			fuzzPath, _ := flags.GetString("fuzz-input")
			positions, err := file.ReadMatrixFile(positionsPath)
			if err != nil {
				return fmt.Errorf("could not read positions: %w", err)
			}
			fuzz, err := file.ReadVectorFile(fuzzPath)
			if err != nil {
				return fmt.Errorf("could not read fuzz: %w", err)
			}
			// the resolution comes from the counts, not the positions
			field, err := gravity.New(data, cfg)
			if err != nil {
				return err
			}
			fit, err := field.Restore(positions, fuzz)
			if err != nil {
				return err
			}
			labels, err := field.Predict(fit)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "output", func(w io.Writer) error {
				return file.WriteLabels(w, labels)
			})
		},
	}
	cmd.Flags().String("positions", "", "stable positions of a previous fit")
	cmd.Flags().String("fuzz-input", "", "fuzz of a previous fit")
	_ = cmd.MarkFlagRequired("positions")
	_ = cmd.MarkFlagRequired("fuzz-input")
	return cmd
}

func newFitPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fitpredict",
		Short: "Fit and cluster the rows in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			result, err := gravity.Run(ctx, data, cfg)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, "output", func(w io.Writer) error {
				return file.WriteLabels(w, result.Labels)
			}); err != nil {
				return err
			}
			flags := cmd.Flags()
			dir, _ := flags.GetString("dump")
			samplesPath, _ := flags.GetString("samples")
			var names []string
			if samplesPath != "" {
				names, err = readNames(samplesPath)
				if err != nil {
					return err
				}
			}
			return dump(dir, result, names)
		},
	}
	cmd.Flags().String("dump", "", "directory for the positions, centroids, report and metrics")
	cmd.Flags().String("samples", "", "file with one row name per line, used in the report")
	return cmd
}

func newBaselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Compare the clustering against k-means with the same number of clusters",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			result, err := gravity.Run(ctx, data, cfg)
			if err != nil {
				return err
			}
			iterations, _ := cmd.Flags().GetInt("iterations")
			k := len(result.Clusters)
			if k < 1 {
				k = 1
			}
			kmeans := ml.NewKMeans(k, iterations)
			baseline, err := kmeans.Fit(gmath.Rows(data))
			if err != nil {
				return err
			}
			agreement, err := ml.Agreement(result.Labels, baseline)
			if err != nil {
				return err
			}
			log.Info().
				Str("run", result.Field.RunID()).
				Int("k", k).
				Str("agreement", gmath.Format(agreement)).
				Interface("sizes", kmeans.Sizes()).
				Msg("baseline")
			for _, c := range result.Clusters {
				label, err := kmeans.Predict(c.Centroid())
				if err != nil {
					return err
				}
				log.Info().
					Str("run", result.Field.RunID()).
					Int("cluster", c.ID()).
					Int("weight", c.Weight()).
					Int("baseline", label).
					Msg("centroid")
			}
			return writeOutput(cmd, "output", func(w io.Writer) error {
				return file.WriteLabels(w, baseline)
			})
		},
	}
	cmd.Flags().Int("iterations", 100, "k-means iterations")
	return cmd
}

func readNames(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read samples '%s': %w", path, err)
	}
	var names []string
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// dump writes the diagnostics of a run to the directory.
// Without a directory the report is only kept in memory.
func dump(dir string, result *gravity.Result, names []string) error {
	local := json.NewLocalStorage()
	var store storage.Persistence = local
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create dump directory: %w", err)
		}
		store = json.NewFileStorage(dir)
		if err := file.WriteFile(filepath.Join(dir, "positions.tsv"), func(w io.Writer) error {
			return file.WriteMatrix(w, result.Fit.Positions)
		}); err != nil {
			return err
		}
		if err := file.WriteFile(filepath.Join(dir, "centroids.tsv"), func(w io.Writer) error {
			return file.WriteMatrix(w, centroids(result.Clusters))
		}); err != nil {
			return err
		}
		if err := prometheus.WriteToTextfile(filepath.Join(dir, "metrics.prom"), prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("could not write metrics: %w", err)
		}
	}
	report := gravity.NewReport(result, names)
	if err := store.Store(storage.Key{Run: report.Run, Label: "report"}, report); err != nil {
		return fmt.Errorf("could not store report: %w", err)
	}
	if dir == "" {
		log.Debug().Interface("keys", local.Keys()).Msg("kept report in memory")
	}
	log.Info().
		Str("run", report.Run).
		Str("dump", dir).
		Int("clusters", len(report.Clusters)).
		Int("excluded", len(report.Excluded)).
		Msg("report")
	return nil
}

func centroids(clusters []gravity.Cluster) mat.Matrix {
	if len(clusters) == 0 {
		return &mat.Dense{}
	}
	rows := make([][]float64, len(clusters))
	for i := range clusters {
		rows[i] = clusters[i].Centroid()
	}
	return gmath.NewDense(rows)
}
