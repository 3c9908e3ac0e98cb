package gravity

import (
	"fmt"
	"math"
	"runtime"

	gmath "github.com/drakos74/gravity/internal/math"
)

// NonConvergence decides what happens to a point that exhausts its step budget.
type NonConvergence string

const (
	// Abort fails the whole run.
	Abort NonConvergence = "abort"
	// Exclude leaves the point out of the clustering, with label 0.
	Exclude NonConvergence = "exclude"
)

// Config holds the parameters of a gravity field.
type Config struct {
	// Distance is the metric name.
	Distance string `yaml:"distance" json:"distance"`
	// SampleSubsample is the number of candidate points drawn per step, 0 picks it from the dataset size.
	SampleSubsample int `yaml:"sample_subsample" json:"sample_subsample"`
	// FeatureSubsample is the number of features compared per step, 0 compares all of them.
	FeatureSubsample int `yaml:"feature_subsample" json:"feature_subsample"`
	// Smoothing is the number of nearest candidates averaged per step.
	Smoothing int `yaml:"smoothing" json:"smoothing"`
	// Damping is the weight of the candidate position against the current one.
	Damping float64 `yaml:"damping" json:"damping"`
	// ScalingFactor is the clustering resolution as a multiple of the typical neighbour distance.
	ScalingFactor     float64        `yaml:"scaling_factor" json:"scaling_factor"`
	// Resolution replaces the derived clustering resolution when set. Zero accepts points
	// only within the cluster radius plus their fuzz.
	Resolution        *float64       `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	ConvergenceFactor float64        `yaml:"convergence_factor" json:"convergence_factor"`
	FuzzTrials        int            `yaml:"fuzz_trials" json:"fuzz_trials"`
	History           int            `yaml:"history" json:"history"`
	MaxSteps          int            `yaml:"max_steps" json:"max_steps"`
	OnNonConvergence  NonConvergence `yaml:"on_non_convergence" json:"on_non_convergence"`
	MergeFactor       float64        `yaml:"merge_factor" json:"merge_factor"`
	Merge             bool           `yaml:"merge" json:"merge"`
	Refining          bool           `yaml:"refining" json:"refining"`
	RefiningScale     float64        `yaml:"refining_scale" json:"refining_scale"`
	// Workers is the size of the fit worker pool, 0 uses one worker per cpu.
	Workers int `yaml:"workers" json:"workers"`
	// Seed seeds all random sources, 0 picks a time based seed.
	Seed int64 `yaml:"seed" json:"seed"`
}

// DefaultConfig returns the default parameters.
func DefaultConfig() Config {
	return Config{
		Distance:          string(gmath.Cosine),
		Smoothing:         5,
		Damping:           0.3,
		ScalingFactor:     0.9,
		ConvergenceFactor: 2.0,
		FuzzTrials:        5,
		History:           50,
		MaxSteps:          20000000,
		OnNonConvergence:  Abort,
		MergeFactor:       3.0,
		Merge:             true,
		RefiningScale:     0.5,
	}
}

// Metric returns the configured distance metric.
func (c Config) Metric() (gmath.Metric, error) {
	return gmath.ParseMetric(c.Distance)
}

// Validate checks that all parameters are within range.
func (c Config) Validate() error {
	if !gmath.Finite(c.ScalingFactor) || c.ScalingFactor <= 0 {
		return fmt.Errorf("%v: %w", c.ScalingFactor, ErrInvalidScaling)
	}
	if _, err := c.Metric(); err != nil {
		return err
	}
	switch {
	case c.SampleSubsample < 0:
		return invalid("sample_subsample", c.SampleSubsample)
	case c.FeatureSubsample < 0:
		return invalid("feature_subsample", c.FeatureSubsample)
	case c.Smoothing < 1:
		return invalid("smoothing", c.Smoothing)
	case !gmath.Finite(c.Damping) || c.Damping <= 0 || c.Damping > 1:
		return invalid("damping", c.Damping)
	case !gmath.Finite(c.ConvergenceFactor) || c.ConvergenceFactor <= 0:
		return invalid("convergence_factor", c.ConvergenceFactor)
	case c.FuzzTrials < 1:
		return invalid("fuzz_trials", c.FuzzTrials)
	case c.History < 2:
		return invalid("history", c.History)
	case c.MaxSteps < 1:
		return invalid("max_steps", c.MaxSteps)
	case c.OnNonConvergence != Abort && c.OnNonConvergence != Exclude:
		return invalid("on_non_convergence", c.OnNonConvergence)
	case math.IsNaN(c.MergeFactor) || c.MergeFactor < 0:
		return invalid("merge_factor", c.MergeFactor)
	case !gmath.Finite(c.RefiningScale) || c.RefiningScale <= 0:
		return invalid("refining_scale", c.RefiningScale)
	case c.Workers < 0:
		return invalid("workers", c.Workers)
	case c.Resolution != nil && (!gmath.Finite(*c.Resolution) || *c.Resolution < 0):
		return invalid("resolution", *c.Resolution)
	}
	return nil
}

func invalid(name string, value interface{}) error {
	return fmt.Errorf("%s '%v': %w", name, value, ErrInvalidConfig)
}

// subsample resolves the number of candidates drawn per step for n points.
func (c Config) subsample(n int) int {
	pool := n - 1
	s := c.SampleSubsample
	if s == 0 {
		if n <= 1000 {
			return pool
		}
		s = n / 10
		if s > 1000 {
			s = 1000
		}
		if s < 2 {
			s = 2
		}
	}
	if s > pool {
		return pool
	}
	return s
}

// smoothing caps the neighbourhood size at half the candidates drawn per step.
func (c Config) smoothing(subsample int) int {
	half := subsample / 2
	if half < 1 {
		half = 1
	}
	if c.Smoothing < half {
		return c.Smoothing
	}
	return half
}

// Auto fills the subsample sizes and the worker pool size that are not set
// with values derived from the dataset shape.
func (c Config) Auto(samples, features int) Config {
	fs := features
	if features >= 3 {
		fs = int(float64(features) / math.Log10(float64(features)))
		if fs > features {
			fs = features
		}
	}
	var ss int
	switch {
	case samples < 10:
		ss = samples
	case samples < 1000:
		ss = samples / 3 * 2
	case samples < 5000:
		ss = samples / 2
	default:
		ss = samples / 4
	}
	if c.FeatureSubsample == 0 {
		c.FeatureSubsample = fs
	}
	if c.SampleSubsample == 0 {
		c.SampleSubsample = ss
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}
