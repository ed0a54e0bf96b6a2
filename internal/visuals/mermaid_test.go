package visuals

import (
	"strings"
	"testing"

	"recimpact/internal/causal"
)

func TestGenerateRankCTRChart(t *testing.T) {
	result := causal.DiscontinuityResult{
		MaxShownRecs: 3,
		AtCutoff:     0.2,
		Table: causal.RankCTRTable{
			Total: 100,
			Rows: []causal.RankCTR{
				{Rank: -1, NumClicks: 10, CTREstimate: 0.1},
				{Rank: 1, NumClicks: 40, CTREstimate: 0.4},
				{Rank: 3, NumClicks: 20, CTREstimate: 0.2},
				{Rank: 4, NumClicks: 30, CTREstimate: 0.3},
			},
		},
	}

	chart := GenerateRankCTRChart(result)

	for _, want := range []string{
		"xychart-beta",
		`title "Click Share by Rank (top 3 shown)"`,
		`x-axis ["#1", "#3", "#4"]`,
		`y-axis "CTR Estimate" 0 --> 0.50`,
		"bar [0.400, 0.200, 0.300]",
		"line [0.200, 0.200, 0.200]",
	} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}
}

func TestGenerateRankCTRChart_OnlyOrganic(t *testing.T) {
	result := causal.DiscontinuityResult{Table: causal.RankCTRTable{Rows: []causal.RankCTR{{Rank: -1, CTREstimate: 1}}}}
	if chart := GenerateRankCTRChart(result); chart != "" {
		t.Errorf("Expected empty chart, got %q", chart)
	}
}

func TestGenerateStrataChart(t *testing.T) {
	if GenerateStrataChart("x", causal.StratifiedResult{}) != "" {
		t.Error("Expected empty chart for no strata")
	}

	res := causal.StratifiedResult{Strata: []causal.StratumEstimate{
		{Key: []string{"high", "Games"}, StratifiedEstimate: 0.9},
		{Key: []string{"low", "Games"}, StratifiedEstimate: 0.1},
	}}
	chart := GenerateStrataChart("Fully Conditioned", res)
	if !strings.Contains(chart, `x-axis ["high / Games", "low / Games"]`) {
		t.Errorf("unexpected labels:\n%s", chart)
	}
	if !strings.Contains(chart, `0 --> 1.00`) {
		t.Errorf("Expected axis capped at 1:\n%s", chart)
	}
}
