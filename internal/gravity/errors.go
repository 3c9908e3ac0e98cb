package gravity

import (
	"errors"
	"fmt"

	gmath "github.com/drakos74/gravity/internal/math"
)

var (
	// ErrInvalidScaling is returned for a scaling factor that is not a positive finite number.
	ErrInvalidScaling = errors.New("scaling factor must be positive")
	// ErrInvalidConfig is returned for any other parameter out of its range.
	ErrInvalidConfig = errors.New("invalid parameter")
	// ErrEmptyDataset is returned for a dataset without rows or columns.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrUnknownMetric is returned for an unsupported distance name.
	ErrUnknownMetric = gmath.ErrUnknownMetric
)

// DataError reports a non finite entry of the dataset.
type DataError struct {
	Row   int
	Col   int
	Value float64
}

func (e *DataError) Error() string {
	return fmt.Sprintf("non finite value %v at row %d column %d", e.Value, e.Row, e.Col)
}

// NonConvergenceError reports a point descent that exhausted its step budget.
type NonConvergenceError struct {
	Point int
	Steps int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("point %d did not converge after %d steps", e.Point, e.Steps)
}
