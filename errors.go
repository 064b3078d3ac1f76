package lassort

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidThinFraction is returned when the thinning fraction is
	// outside [0, 1).
	ErrInvalidThinFraction = errors.New("thin fraction must be in [0,1)")
)

// ErrCellSizeEstimate indicates the density-based cell-size heuristic has no
// usable inputs: a degenerate bounding box or no expected points. Pass an
// explicit cell size instead.
type ErrCellSizeEstimate struct {
	Volume         float64
	ExpectedPoints float64
}

func (e *ErrCellSizeEstimate) Error() string {
	return fmt.Sprintf("cannot estimate cell size: bounding-box volume %g, expected points %g", e.Volume, e.ExpectedPoints)
}
