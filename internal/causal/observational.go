package causal

import (
	"fmt"
	"slices"
	"strings"

	"recimpact/internal/visits"
)

// Naive is the fraction of visits that came through a recommendation click.
func Naive(records []visits.Record) (float64, error) {
	if len(records) == 0 {
		return 0, ErrEmptyInput
	}
	recVisits := 0
	for _, r := range records {
		if r.IsRecVisit {
			recVisits++
		}
	}
	return float64(recVisits) / float64(len(records)), nil
}

// StratumEstimate is the recommendation-visit share within one stratum.
type StratumEstimate struct {
	Key                []string `json:"key" yaml:"key"`
	Visits             int      `json:"visits" yaml:"visits"`
	RecVisits          int      `json:"rec_visits" yaml:"rec_visits"`
	StratifiedEstimate float64  `json:"stratified_estimate" yaml:"stratified_estimate"`
}

// Label joins the stratum key for display.
func (s StratumEstimate) Label() string {
	return strings.Join(s.Key, " / ")
}

// StratifiedResult holds per-stratum estimates and their unweighted mean.
type StratifiedResult struct {
	By           []string          `json:"by" yaml:"by"`
	Strata       []StratumEstimate `json:"strata" yaml:"strata"`
	MeanEstimate float64           `json:"mean_estimate" yaml:"mean_estimate"`
}

// Stratum selectors.
var (
	ByActivity = []string{visits.ColActivityLevel}
	ByCategory = []string{visits.ColCategory}
	ByBoth     = []string{visits.ColActivityLevel, visits.ColCategory}
)

// StratifyByActivity conditions on the user's activity level.
func StratifyByActivity(records []visits.Record) (StratifiedResult, error) {
	return Stratify(records, ByActivity)
}

// StratifyByCategory conditions on the app category.
func StratifyByCategory(records []visits.Record) (StratifiedResult, error) {
	return Stratify(records, ByCategory)
}

// FullyConditioned conditions on both activity level and app category.
func FullyConditioned(records []visits.Record) (StratifiedResult, error) {
	return Stratify(records, ByBoth)
}

// Stratify groups visits by the named columns and computes the recommendation-visit
// share per group. Only activity_level and category are valid strata.
func Stratify(records []visits.Record, by []string) (StratifiedResult, error) {
	if len(records) == 0 {
		return StratifiedResult{}, ErrEmptyInput
	}
	for _, col := range by {
		if col != visits.ColActivityLevel && col != visits.ColCategory {
			return StratifiedResult{}, fmt.Errorf("unknown stratum column %q", col)
		}
	}

	groups := make(map[string]*StratumEstimate)
	for _, r := range records {
		key := make([]string, len(by))
		for i, col := range by {
			key[i] = stratumValue(r, col)
		}
		id := strings.Join(key, "\x00")

		g, ok := groups[id]
		if !ok {
			g = &StratumEstimate{Key: key}
			groups[id] = g
		}
		g.Visits++
		if r.IsRecVisit {
			g.RecVisits++
		}
	}

	res := StratifiedResult{By: by, Strata: make([]StratumEstimate, 0, len(groups))}
	for _, g := range groups {
		g.StratifiedEstimate = float64(g.RecVisits) / float64(g.Visits)
		res.Strata = append(res.Strata, *g)
	}
	slices.SortFunc(res.Strata, func(a, b StratumEstimate) int {
		return slices.Compare(a.Key, b.Key)
	})

	// Sum in key order so repeated calls agree to the last bit.
	sum := 0.0
	for _, s := range res.Strata {
		sum += s.StratifiedEstimate
	}
	res.MeanEstimate = sum / float64(len(res.Strata))

	return res, nil
}

func stratumValue(r visits.Record, col string) string {
	switch col {
	case visits.ColActivityLevel:
		return r.ActivityLevel
	case visits.ColCategory:
		return r.Category
	}
	return ""
}
