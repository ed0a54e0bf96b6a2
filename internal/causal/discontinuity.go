package causal

import (
	"cmp"
	"slices"

	"recimpact/internal/visits"

	"github.com/rs/zerolog/log"
)

// DefaultMaxShownRecs is the number of recommendation slots rendered to the user.
const DefaultMaxShownRecs = 3

// RankCTR is one row of the click-through table.
type RankCTR struct {
	Rank        int     `json:"rec_rank" yaml:"rec_rank"`
	NumClicks   int     `json:"num_clicks_by_rank" yaml:"num_clicks_by_rank"`
	CTREstimate float64 `json:"ctr_estimate_by_rank" yaml:"ctr_estimate_by_rank"`
}

// RankCTRTable holds per-rank click counts and their share of all clicks, ordered by rank.
type RankCTRTable struct {
	Rows  []RankCTR `json:"rows" yaml:"rows"`
	Total int       `json:"total" yaml:"total"`
}

// Lookup returns the row for rank.
func (t RankCTRTable) Lookup(rank int) (RankCTR, bool) {
	i, found := slices.BinarySearchFunc(t.Rows, rank, func(r RankCTR, target int) int {
		return cmp.Compare(r.Rank, target)
	})
	if !found {
		return RankCTR{}, false
	}
	return t.Rows[i], true
}

// BuildRankCTRTable groups visits by rank and normalizes the counts into a distribution.
// Visits without a recorded rank belong to no group and are excluded from the total.
func BuildRankCTRTable(records []visits.Record) (RankCTRTable, error) {
	counts := make(map[int]int)
	total := 0
	for _, r := range records {
		if !r.HasRank() {
			continue
		}
		counts[r.RecRank]++
		total++
	}
	if total == 0 {
		return RankCTRTable{}, ErrEmptyInput
	}

	table := RankCTRTable{Total: total, Rows: make([]RankCTR, 0, len(counts))}
	for rank, n := range counts {
		table.Rows = append(table.Rows, RankCTR{
			Rank:        rank,
			NumClicks:   n,
			CTREstimate: float64(n) / float64(table.Total),
		})
	}
	slices.SortFunc(table.Rows, func(a, b RankCTR) int { return cmp.Compare(a.Rank, b.Rank) })

	return table, nil
}

// DiscontinuityResult is the regression-discontinuity estimate at the shown/unshown cutoff.
type DiscontinuityResult struct {
	MaxShownRecs       int          `json:"max_shown_recs" yaml:"max_shown_recs"`
	Table              RankCTRTable `json:"ctr_by_rank" yaml:"ctr_by_rank"`
	AtCutoff           float64      `json:"est_at_cutoff" yaml:"est_at_cutoff"`
	AfterCutoff        float64      `json:"est_after_cutoff" yaml:"est_after_cutoff"`
	LocalEffect        float64      `json:"local_effect" yaml:"local_effect"`
	UpperBoundEstimate float64      `json:"upper_bound_estimate" yaml:"upper_bound_estimate"`
}

// RankDiscontinuity estimates the click-through effect of rendering a recommendation.
//
// Click share at the last shown rank is compared with the first unshown rank. Assuming
// click propensity is smooth in rank absent the feature, the gap is the local effect of
// visibility. Scaling by maxShownRecs gives a loose upper bound on the total effect across
// all shown slots, not a per-slot effect.
func RankDiscontinuity(records []visits.Record, maxShownRecs int) (DiscontinuityResult, error) {
	if maxShownRecs < 1 {
		return DiscontinuityResult{}, ErrInvalidCutoff
	}

	table, err := BuildRankCTRTable(records)
	if err != nil {
		return DiscontinuityResult{}, err
	}

	at, ok := table.Lookup(maxShownRecs)
	if !ok {
		return DiscontinuityResult{}, &MissingRankError{Rank: maxShownRecs, MaxShownRecs: maxShownRecs}
	}
	after, ok := table.Lookup(maxShownRecs + 1)
	if !ok {
		return DiscontinuityResult{}, &MissingRankError{Rank: maxShownRecs + 1, MaxShownRecs: maxShownRecs}
	}

	res := DiscontinuityResult{
		MaxShownRecs: maxShownRecs,
		Table:        table,
		AtCutoff:     at.CTREstimate,
		AfterCutoff:  after.CTREstimate,
	}
	res.LocalEffect = res.AtCutoff - res.AfterCutoff
	res.UpperBoundEstimate = res.LocalEffect * float64(maxShownRecs)

	log.Debug().
		Int("maxShownRecs", maxShownRecs).
		Int("total", table.Total).
		Float64("atCutoff", res.AtCutoff).
		Float64("afterCutoff", res.AfterCutoff).
		Float64("upperBound", res.UpperBoundEstimate).
		Msg("Rank discontinuity estimate")

	return res, nil
}
