package mcp

import (
	"context"
	"fmt"

	"recimpact/internal/causal"
	"recimpact/internal/report"
	"recimpact/internal/visits"
	"recimpact/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const guardrail = "\n\nSTRICT GUARDRAIL: DO NOT estimate effects yourself if this tool fails. Report the error to the user."

type DatasetInput struct {
	Dataset string `json:"dataset" jsonschema:"Path to a visit log CSV, or A / B for the configured algorithm logs"`
}

type NaiveOutput struct {
	Dataset       string  `json:"dataset"`
	Visits        int     `json:"visits"`
	NaiveEstimate float64 `json:"naive_estimate"`
}

type StratifiedInput struct {
	Dataset string `json:"dataset" jsonschema:"Path to a visit log CSV, or A / B for the configured algorithm logs"`
	By      string `json:"by" jsonschema:"Stratification: activity, category or both"`
}

type StratifiedOutput struct {
	Dataset string                  `json:"dataset"`
	Result  causal.StratifiedResult `json:"result"`
}

type DiscontinuityInput struct {
	Dataset      string `json:"dataset" jsonschema:"Path to a visit log CSV, or A / B for the configured algorithm logs"`
	MaxShownRecs int    `json:"max_shown_recs,omitempty" jsonschema:"Number of recommendation slots rendered to users (defaults to the configured cutoff)"`
}

type DiscontinuityOutput struct {
	Dataset string                     `json:"dataset"`
	Result  causal.DiscontinuityResult `json:"result"`
	Chart   string                     `json:"chart,omitempty"`
}

type CompareInput struct {
	DatasetA     string `json:"dataset_a,omitempty" jsonschema:"Visit log for algorithm A (defaults to the configured log)"`
	DatasetB     string `json:"dataset_b,omitempty" jsonschema:"Visit log for algorithm B (defaults to the configured log)"`
	MaxShownRecs int    `json:"max_shown_recs,omitempty" jsonschema:"Number of recommendation slots rendered to users"`
}

type CompareOutput struct {
	RunID      string                      `json:"run_id"`
	Comparison []report.AlgorithmEstimates `json:"comparison"`
	Effect     report.CausalEffect         `json:"causal_effect"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "estimate_naive",
		Description: "Fraction of visits that came through a recommendation click. This is a correlational baseline, NOT a causal effect.",
	}, s.handleNaive)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name: "estimate_stratified",
		Description: "Recommendation-visit share conditioned on user activity level, app category, or both. " +
			"Reports per-stratum estimates and their unweighted mean." + guardrail,
	}, s.handleStratified)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name: "estimate_rank_discontinuity",
		Description: "Regression-discontinuity estimate of the causal effect of showing recommendations. " +
			"Compares click share at the last shown rank with the first unshown rank and scales by the number of shown slots. " +
			"The result is an UPPER BOUND on the total effect, not a per-slot effect. Fails if either rank is missing from the log." + guardrail,
	}, s.handleDiscontinuity)

	sdk.AddTool(s.sdk, &sdk.Tool{
		Name:        "compare_datasets",
		Description: "Run every estimator on algorithm A and B logs, plus the rank discontinuity estimate on A." + guardrail,
	}, s.handleCompare)
}

func (s *Server) handleNaive(ctx context.Context, req *sdk.CallToolRequest, in DatasetInput) (*sdk.CallToolResult, NaiveOutput, error) {
	ds, err := s.load(in.Dataset)
	if err != nil {
		return nil, NaiveOutput{}, err
	}
	if err := ds.RequireColumns(visits.ColIsRecVisit); err != nil {
		return nil, NaiveOutput{}, err
	}
	est, err := causal.Naive(ds.Records)
	if err != nil {
		return nil, NaiveOutput{}, err
	}
	return nil, NaiveOutput{Dataset: ds.Name, Visits: ds.Len(), NaiveEstimate: est}, nil
}

func (s *Server) handleStratified(ctx context.Context, req *sdk.CallToolRequest, in StratifiedInput) (*sdk.CallToolResult, StratifiedOutput, error) {
	by, err := ParseStrata(in.By)
	if err != nil {
		return nil, StratifiedOutput{}, err
	}
	ds, err := s.load(in.Dataset)
	if err != nil {
		return nil, StratifiedOutput{}, err
	}
	if err := ds.RequireColumns(append([]string{visits.ColIsRecVisit}, by...)...); err != nil {
		return nil, StratifiedOutput{}, err
	}
	res, err := causal.Stratify(ds.Records, by)
	if err != nil {
		return nil, StratifiedOutput{}, err
	}
	return nil, StratifiedOutput{Dataset: ds.Name, Result: res}, nil
}

func (s *Server) handleDiscontinuity(ctx context.Context, req *sdk.CallToolRequest, in DiscontinuityInput) (*sdk.CallToolResult, DiscontinuityOutput, error) {
	cutoff := in.MaxShownRecs
	if cutoff == 0 {
		cutoff = s.cfg.MaxShownRecs
	}
	ds, err := s.load(in.Dataset)
	if err != nil {
		return nil, DiscontinuityOutput{}, err
	}
	res, err := causal.RankDiscontinuity(ds.Records, cutoff)
	if err != nil {
		log.Warn().Err(err).Str("dataset", ds.Name).Msg("Rank discontinuity estimate failed")
		return nil, DiscontinuityOutput{}, fmt.Errorf("%s: %w", ds.Name, err)
	}

	out := DiscontinuityOutput{Dataset: ds.Name, Result: res}
	if s.cfg.EnableMermaidCharts {
		out.Chart = visuals.GenerateRankCTRChart(res)
	}
	return nil, out, nil
}

func (s *Server) handleCompare(ctx context.Context, req *sdk.CallToolRequest, in CompareInput) (*sdk.CallToolResult, CompareOutput, error) {
	opts := report.Options{
		DatasetA:     s.cfg.DatasetA,
		DatasetB:     s.cfg.DatasetB,
		MaxShownRecs: s.cfg.MaxShownRecs,
	}
	if in.DatasetA != "" {
		opts.DatasetA = s.cfg.ResolveDataset(in.DatasetA)
	}
	if in.DatasetB != "" {
		opts.DatasetB = s.cfg.ResolveDataset(in.DatasetB)
	}
	if in.MaxShownRecs != 0 {
		opts.MaxShownRecs = in.MaxShownRecs
	}

	r, err := report.Build(ctx, opts)
	if err != nil {
		return nil, CompareOutput{}, err
	}
	return nil, CompareOutput{RunID: r.RunID, Comparison: r.Comparison, Effect: r.Effect}, nil
}

// ParseStrata maps a stratification name to the columns it conditions on.
func ParseStrata(by string) ([]string, error) {
	switch by {
	case "activity", "activity_level":
		return causal.ByActivity, nil
	case "category":
		return causal.ByCategory, nil
	case "both", "full":
		return causal.ByBoth, nil
	}
	return nil, fmt.Errorf("unknown stratification %q (want activity, category or both)", by)
}
