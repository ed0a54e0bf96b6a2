package report

import (
	"context"
	"fmt"
	"time"

	"recimpact/internal/causal"
	"recimpact/internal/visits"
	"recimpact/internal/visuals"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configures a full report run.
type Options struct {
	DatasetA     string
	DatasetB     string
	MaxShownRecs int
	Charts       bool
}

// AlgorithmEstimates are the observational estimates for one recommendation algorithm.
type AlgorithmEstimates struct {
	Dataset          string                  `json:"dataset" yaml:"dataset"`
	Visits           int                     `json:"visits" yaml:"visits"`
	Naive            float64                 `json:"naive_estimate" yaml:"naive_estimate"`
	ByActivity       causal.StratifiedResult `json:"by_activity" yaml:"by_activity"`
	ByCategory       causal.StratifiedResult `json:"by_category" yaml:"by_category"`
	FullyConditioned causal.StratifiedResult `json:"fully_conditioned" yaml:"fully_conditioned"`
}

// CausalEffect is the effect of showing recommendations at all, estimated on one dataset.
type CausalEffect struct {
	Dataset       string                     `json:"dataset" yaml:"dataset"`
	Naive         float64                    `json:"naive_estimate" yaml:"naive_estimate"`
	Discontinuity causal.DiscontinuityResult `json:"rank_discontinuity" yaml:"rank_discontinuity"`
}

// Report holds both analysis goals: comparing algorithm A with B, and the causal effect
// of the recommendation feature measured on A.
type Report struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time            `json:"generated_at" yaml:"generated_at"`
	Comparison  []AlgorithmEstimates `json:"comparison" yaml:"comparison"`
	Effect      CausalEffect         `json:"causal_effect" yaml:"causal_effect"`
	Charts      []string             `json:"charts,omitempty" yaml:"charts,omitempty"`
}

// Build loads both datasets concurrently and runs every estimator.
func Build(ctx context.Context, opts Options) (*Report, error) {
	runID := uuid.NewString()
	logger := log.With().Str("runID", runID).Logger()

	var a, b *visits.Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = loadContext(gctx, opts.DatasetA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = loadContext(gctx, opts.DatasetB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info().Str("datasetA", a.Name).Str("datasetB", b.Name).Msg("Datasets loaded")

	r, err := Evaluate(a, b, opts.MaxShownRecs, opts.Charts)
	if err != nil {
		return nil, err
	}
	r.RunID = runID

	logger.Info().Float64("upperBound", r.Effect.Discontinuity.UpperBoundEstimate).Msg("Report complete")
	return r, nil
}

// Evaluate runs every estimator on already-loaded datasets.
func Evaluate(a, b *visits.Dataset, maxShownRecs int, charts bool) (*Report, error) {
	r := &Report{GeneratedAt: time.Now().UTC()}

	for _, ds := range []*visits.Dataset{a, b} {
		est, err := EstimateAlgorithm(ds)
		if err != nil {
			return nil, err
		}
		r.Comparison = append(r.Comparison, est)
	}

	effect, err := EstimateEffect(a, maxShownRecs)
	if err != nil {
		return nil, err
	}
	r.Effect = effect

	if charts {
		for _, est := range r.Comparison {
			r.Charts = append(r.Charts, visuals.GenerateStrataChart(est.Dataset+": fully conditioned", est.FullyConditioned))
		}
		r.Charts = append(r.Charts, visuals.GenerateRankCTRChart(effect.Discontinuity))
	}
	return r, nil
}

// EstimateAlgorithm runs the naive and stratified estimators on one dataset.
func EstimateAlgorithm(ds *visits.Dataset) (AlgorithmEstimates, error) {
	est := AlgorithmEstimates{Dataset: ds.Name, Visits: ds.Len()}
	if err := ds.RequireColumns(visits.ColIsRecVisit, visits.ColActivityLevel, visits.ColCategory); err != nil {
		return est, err
	}

	var err error
	if est.Naive, err = causal.Naive(ds.Records); err != nil {
		return est, fmt.Errorf("%s: naive estimate: %w", ds.Name, err)
	}
	if est.ByActivity, err = causal.StratifyByActivity(ds.Records); err != nil {
		return est, fmt.Errorf("%s: stratified by activity: %w", ds.Name, err)
	}
	if est.ByCategory, err = causal.StratifyByCategory(ds.Records); err != nil {
		return est, fmt.Errorf("%s: stratified by category: %w", ds.Name, err)
	}
	if est.FullyConditioned, err = causal.FullyConditioned(ds.Records); err != nil {
		return est, fmt.Errorf("%s: fully conditioned: %w", ds.Name, err)
	}
	return est, nil
}

// EstimateEffect runs the rank discontinuity estimator alongside the naive baseline.
func EstimateEffect(ds *visits.Dataset, maxShownRecs int) (CausalEffect, error) {
	effect := CausalEffect{Dataset: ds.Name}

	res, err := causal.RankDiscontinuity(ds.Records, maxShownRecs)
	if err != nil {
		return effect, fmt.Errorf("%s: rank discontinuity: %w", ds.Name, err)
	}
	effect.Discontinuity = res

	// The naive baseline is only meaningful when the log marks recommendation visits.
	if ds.HasColumn(visits.ColIsRecVisit) {
		naive, err := causal.Naive(ds.Records)
		if err != nil {
			return effect, fmt.Errorf("%s: naive estimate: %w", ds.Name, err)
		}
		effect.Naive = naive
	}
	return effect, nil
}

func loadContext(ctx context.Context, path string) (*visits.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return visits.LoadFile(path)
}
