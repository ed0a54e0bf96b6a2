package causal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned before any aggregation when there are no visits.
	ErrEmptyInput = errors.New("no visits to estimate from")

	// ErrMissingRank matches any *MissingRankError.
	ErrMissingRank = errors.New("rank not observed")

	// ErrInvalidCutoff is returned for a non-positive number of shown recommendations.
	ErrInvalidCutoff = errors.New("max shown recommendations must be at least 1")
)

// MissingRankError reports a rank the discontinuity estimate needs but the input lacks.
type MissingRankError struct {
	Rank         int
	MaxShownRecs int
}

func (e *MissingRankError) Error() string {
	side := "last shown"
	if e.Rank > e.MaxShownRecs {
		side = "first unshown"
	}
	return fmt.Sprintf("rank %d (%s slot) not observed", e.Rank, side)
}

func (e *MissingRankError) Is(target error) bool {
	return target == ErrMissingRank
}
