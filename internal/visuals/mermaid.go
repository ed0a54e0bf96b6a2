package visuals

import (
	"fmt"
	"math"
	"strings"

	"recimpact/internal/causal"
)

// GenerateRankCTRChart creates a Mermaid xychart-beta of click share by recommendation rank.
// A flat line at the cutoff share marks the last shown slot so the drop after it stands out.
func GenerateRankCTRChart(result causal.DiscontinuityResult) string {
	var labels []string
	var values []string
	var cutoff []string

	maxVal := 0.0
	for _, row := range result.Table.Rows {
		// Organic visits have no slot to plot.
		if row.Rank < 1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"#%d\"", row.Rank))
		values = append(values, fmt.Sprintf("%.3f", row.CTREstimate))
		cutoff = append(cutoff, fmt.Sprintf("%.3f", result.AtCutoff))
		if row.CTREstimate > maxVal {
			maxVal = row.CTREstimate
		}
	}
	if len(labels) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Click Share by Rank (top %d shown)\"\n", result.MaxShownRecs))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"CTR Estimate\" 0 --> %s\n", axisCeil(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(cutoff, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateStrataChart creates a Mermaid bar chart of per-stratum recommendation-visit shares.
func GenerateStrataChart(title string, result causal.StratifiedResult) string {
	if len(result.Strata) == 0 {
		return ""
	}

	// Limit to 30 strata to keep the text chart readable
	limit := min(len(result.Strata), 30)

	var labels []string
	var values []string
	maxVal := 0.0
	for _, s := range result.Strata[:limit] {
		labels = append(labels, fmt.Sprintf("%q", s.Label()))
		values = append(values, fmt.Sprintf("%.3f", s.StratifiedEstimate))
		maxVal = math.Max(maxVal, s.StratifiedEstimate)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Rec Visit Share\" 0 --> %s\n", axisCeil(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// axisCeil leaves 20% headroom, rounded up to the next 0.05 and capped at 1.
func axisCeil(v float64) string {
	ceil := math.Min(1, math.Ceil(v*1.2*20)/20)
	if ceil == 0 {
		ceil = 0.05
	}
	return fmt.Sprintf("%.2f", ceil)
}
