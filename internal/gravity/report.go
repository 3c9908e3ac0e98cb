package gravity

import (
	"time"

	"github.com/drakos74/gravity/internal/buffer"
)

// ClusterReport describes a realised cluster.
type ClusterReport struct {
	ID       int       `json:"id"`
	Weight   int       `json:"weight"`
	Radius   float64   `json:"radius"`
	Centroid []float64 `json:"centroid"`
	Members  []int     `json:"members"`
	Names    []string  `json:"names,omitempty"`
}

// Report is a human readable summary of a clustering run.
type Report struct {
	Run          string          `json:"run"`
	Created      time.Time       `json:"created"`
	Config       Config          `json:"config"`
	Seed         int64           `json:"seed"`
	Points       int             `json:"points"`
	Features     int             `json:"features"`
	Passes       int             `json:"passes"`
	Resolution   float64         `json:"resolution"`
	Fuzz         buffer.Summary  `json:"fuzz"`
	Displacement buffer.Summary  `json:"displacement"`
	Steps        buffer.Summary  `json:"steps"`
	Excluded     []int           `json:"excluded,omitempty"`
	Clusters     []ClusterReport `json:"clusters"`
}

// NewReport summarises the result. Names, if given, label the members of each cluster.
func NewReport(result *Result, names []string) Report {
	field := result.Field
	steps := buffer.NewStats()
	for _, s := range result.Fit.Steps {
		steps.Push(float64(s))
	}
	report := Report{
		Run:          field.RunID(),
		Created:      time.Now(),
		Config:       field.Config(),
		Seed:         field.Seed(),
		Points:       field.n,
		Features:     field.d,
		Passes:       result.Passes,
		Resolution:   result.Fit.Resolution,
		Fuzz:         buffer.Summarize(result.Fit.Fuzz).Summary(),
		Displacement: buffer.Summarize(result.Fit.Displacement).Summary(),
		Steps:        steps.Summary(),
		Excluded:     result.Fit.Excluded,
		Clusters:     make([]ClusterReport, len(result.Clusters)),
	}
	for i, c := range result.Clusters {
		cr := ClusterReport{
			ID:       c.ID(),
			Weight:   c.Weight(),
			Radius:   c.Radius(),
			Centroid: c.Centroid(),
			Members:  c.Members(),
		}
		if len(names) == report.Points {
			cr.Names = make([]string, len(cr.Members))
			for j, m := range cr.Members {
				cr.Names[j] = names[m]
			}
		}
		report.Clusters[i] = cr
	}
	return report
}
