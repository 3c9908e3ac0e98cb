package gravity

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of a full clustering run.
type Result struct {
	// Labels holds the cluster of each point, 0 for excluded points.
	Labels []int
	// Fit is the fit of the last pass.
	Fit *Fit
	// Clusters are the clusters of the last pass.
	Clusters []Cluster
	// Field is the field of the last pass.
	Field *Field
	// Passes is the number of fit and predict cycles.
	Passes int
}

// Run fits and predicts the dataset.
// If the config enables refining, a second pass clusters the stable positions
// of the first one, see Refine.
func Run(ctx context.Context, data *mat.Dense, cfg Config, opts ...Option) (*Result, error) {
	if cfg.Refining {
		return Refine(ctx, data, cfg, opts...)
	}
	return pass(ctx, data, cfg, opts...)
}

// Refine runs a fit and predict cycle on the dataset and a second one on the resulting
// stable positions, with the scaling factor tightened by the refining scale.
func Refine(ctx context.Context, data *mat.Dense, cfg Config, opts ...Option) (*Result, error) {
	first, err := pass(ctx, data, cfg, opts...)
	if err != nil {
		return nil, err
	}
	refined := cfg
	refined.ScalingFactor = cfg.ScalingFactor * cfg.RefiningScale
	refined.Refining = false
	opts = append(append([]Option{}, opts...), WithRunID(first.Field.RunID()))
	log.Info().
		Str("run", first.Field.RunID()).
		Int("clusters", len(first.Clusters)).
		Float64("scaling", refined.ScalingFactor).
		Msg("refining")
	second, err := pass(ctx, first.Fit.Positions, refined, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not refine: %w", err)
	}
	second.Passes = first.Passes + 1
	return second, nil
}

func pass(ctx context.Context, data *mat.Dense, cfg Config, opts ...Option) (*Result, error) {
	field, err := New(data, cfg, opts...)
	if err != nil {
		return nil, err
	}
	fit, err := field.Fit(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := field.Predict(fit)
	if err != nil {
		return nil, err
	}
	return &Result{
		Labels:   labels,
		Fit:      fit,
		Clusters: field.Clusters(),
		Field:    field,
		Passes:   1,
	}, nil
}
