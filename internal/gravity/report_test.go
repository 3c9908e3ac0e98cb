package gravity

import (
	"context"
	"testing"

	gmath "github.com/drakos74/gravity/internal/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	result, err := Run(context.Background(), gmath.NewDense(scenarioA), euclidean())
	require.NoError(t, err)

	names := []string{"a", "b", "c", "d", "e"}
	report := NewReport(result, names)

	assert.Equal(t, result.Field.RunID(), report.Run)
	assert.Equal(t, 5, report.Points)
	assert.Equal(t, 2, report.Features)
	assert.Equal(t, 1, report.Passes)
	assert.Equal(t, int64(1), report.Seed)
	assert.Equal(t, 5, report.Fuzz.Count)
	assert.Equal(t, 0.0, report.Fuzz.Max)
	require.Len(t, report.Clusters, 2)
	assert.Equal(t, []string{"a", "b"}, report.Clusters[0].Names)
	assert.Equal(t, 2, report.Clusters[0].Weight)
	assert.Equal(t, 3, report.Clusters[1].Weight)

	unnamed := NewReport(result, nil)
	assert.Nil(t, unnamed.Clusters[0].Names)
}
