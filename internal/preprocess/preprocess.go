package preprocess

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrInvalidArgument is returned for parameters the dataset cannot support.
var ErrInvalidArgument = errors.New("invalid argument")

// Standardize returns the column wise z-score of the matrix.
// Constant columns are only centred.
func Standardize(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range col {
			out.Set(i, j, (col[i]-mean)/std)
		}
	}
	return out
}

// Borrow smooths every feature with the features it correlates with.
// W is the row normalised matrix of absolute pearson correlations between the columns,
// the result is (1-strength)*X + strength*X*W.
func Borrow(m *mat.Dense, strength float64) (*mat.Dense, error) {
	if strength < 0 || strength > 1 || math.IsNaN(strength) {
		return nil, fmt.Errorf("strength %v: %w", strength, ErrInvalidArgument)
	}
	r, c := m.Dims()
	if r < 2 {
		return mat.DenseCopyOf(m), nil
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, m, nil)
	w := mat.NewDense(c, c, nil)
	for i := 0; i < c; i++ {
		var sum float64
		for j := 0; j < c; j++ {
			v := math.Abs(corr.At(i, j))
			switch {
			case i == j:
				v = 1
			case math.IsNaN(v):
				// constant columns only keep themselves
				v = 0
			}
			w.Set(i, j, v)
			sum += v
		}
		for j := 0; j < c; j++ {
			w.Set(i, j, w.At(i, j)/sum)
		}
	}
	var borrowed mat.Dense
	borrowed.Mul(m, w)
	borrowed.Scale(strength, &borrowed)
	var kept mat.Dense
	kept.Scale(1-strength, m)
	borrowed.Add(&borrowed, &kept)
	return &borrowed, nil
}

// Reduce projects the centred matrix onto its leading principal components.
func Reduce(m *mat.Dense, components int) (*mat.Dense, error) {
	r, c := m.Dims()
	limit := r
	if c < limit {
		limit = c
	}
	if components < 1 || components > limit {
		return nil, fmt.Errorf("%d components for %dx%d: %w", components, r, c, ErrInvalidArgument)
	}
	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, fmt.Errorf("could not decompose matrix: %w", ErrInvalidArgument)
	}
	var vectors mat.Dense
	pc.VectorsTo(&vectors)

	centred := mat.DenseCopyOf(m)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean := stat.Mean(col, nil)
		for i := 0; i < r; i++ {
			centred.Set(i, j, col[i]-mean)
		}
	}

	var projected mat.Dense
	projected.Mul(centred, vectors.Slice(0, c, 0, components))
	return &projected, nil
}
