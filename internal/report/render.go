package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"recimpact/internal/causal"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (want text, json, yaml or html)", s)
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Write renders v in the requested format. Text and HTML rendering accept *Report,
// causal.DiscontinuityResult, causal.StratifiedResult and float64 estimates.
func Write(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatHTML:
		r, ok := v.(*Report)
		if !ok {
			return fmt.Errorf("html output is only available for full reports")
		}
		return writeHTML(w, r)
	case FormatText, "":
		_, err := io.WriteString(w, Text(v))
		return err
	}
	return fmt.Errorf("unsupported format %q", format)
}

// Text renders v for the console.
func Text(v any) string {
	var sb strings.Builder
	switch x := v.(type) {
	case *Report:
		writeReportText(&sb, x)
	case causal.DiscontinuityResult:
		writeDiscontinuityText(&sb, x)
	case causal.StratifiedResult:
		writeStratifiedText(&sb, x)
	case float64:
		sb.WriteString(meanLine(x))
	default:
		fmt.Fprintf(&sb, "%v\n", v)
	}
	return sb.String()
}

func writeReportText(sb *strings.Builder, r *Report) {
	fmt.Fprintf(sb, "%s\n", headingStyle.Render("Run "+r.RunID))

	sb.WriteString(headingStyle.Render("GOAL 1: compare recommendation algorithms") + "\n")
	for _, est := range r.Comparison {
		fmt.Fprintf(sb, "\n[%s] %d visits\n", est.Dataset, est.Visits)
		sb.WriteString("Naive estimate\n" + meanLine(est.Naive))
		sb.WriteString("Stratified by activity level\n")
		writeStratifiedText(sb, est.ByActivity)
		sb.WriteString("Stratified by category\n")
		writeStratifiedText(sb, est.ByCategory)
		sb.WriteString("Fully conditioned\n")
		writeStratifiedText(sb, est.FullyConditioned)
	}

	sb.WriteString("\n" + headingStyle.Render("GOAL 2: causal effect of showing recommendations") + "\n")
	fmt.Fprintf(sb, "[%s] naive estimate\n%s", r.Effect.Dataset, meanLine(r.Effect.Naive))
	fmt.Fprintf(sb, "[%s] rank discontinuity estimate\n", r.Effect.Dataset)
	writeDiscontinuityText(sb, r.Effect.Discontinuity)

	for _, chart := range r.Charts {
		sb.WriteString("\n" + chart + "\n")
	}
}

func writeDiscontinuityText(sb *strings.Builder, res causal.DiscontinuityResult) {
	rows := make([][]string, 0, len(res.Table.Rows))
	for _, row := range res.Table.Rows {
		rows = append(rows, []string{
			strconv.Itoa(row.Rank),
			strconv.Itoa(row.NumClicks),
			formatFloat(row.CTREstimate),
		})
	}
	sb.WriteString(newTable("rec_rank", "num_clicks_by_rank", "ctr_estimate_by_rank").Rows(rows...).String() + "\n")
	fmt.Fprintf(sb, "Local effect at rank %d vs %d: %s\n", res.MaxShownRecs, res.MaxShownRecs+1, formatFloat(res.LocalEffect))
	sb.WriteString(meanLine(res.UpperBoundEstimate))
}

func writeStratifiedText(sb *strings.Builder, res causal.StratifiedResult) {
	headers := append(append([]string{}, res.By...), "visits", "stratified_estimate")
	rows := make([][]string, 0, len(res.Strata))
	for _, s := range res.Strata {
		row := append(append([]string{}, s.Key...), strconv.Itoa(s.Visits), formatFloat(s.StratifiedEstimate))
		rows = append(rows, row)
	}
	sb.WriteString(newTable(headers...).Rows(rows...).String() + "\n")
	sb.WriteString(meanLine(res.MeanEstimate))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
}

func meanLine(v float64) string {
	return "Mean estimate: " + formatFloat(v) + "\n"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"f":       formatFloat,
	"mermaid": stripFence,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Recommendation impact {{.RunID}}</title>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
<style>body{font-family:sans-serif;margin:2em}table{border-collapse:collapse;margin-bottom:1em}td,th{border:1px solid #ccc;padding:.2em .6em}</style>
</head>
<body>
<h1>Recommendation impact</h1>
<p>Run {{.RunID}} generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<h2>Goal 1: compare recommendation algorithms</h2>
{{range .Comparison}}
<h3>{{.Dataset}} ({{.Visits}} visits)</h3>
<p>Naive estimate: {{f .Naive}}</p>
{{template "strata" .ByActivity}}
{{template "strata" .ByCategory}}
{{template "strata" .FullyConditioned}}
{{end}}
<h2>Goal 2: causal effect of showing recommendations</h2>
{{with .Effect}}
<p>{{.Dataset}} naive estimate: {{f .Naive}}</p>
<table>
<tr><th>rec_rank</th><th>num_clicks_by_rank</th><th>ctr_estimate_by_rank</th></tr>
{{range .Discontinuity.Table.Rows}}<tr><td>{{.Rank}}</td><td>{{.NumClicks}}</td><td>{{f .CTREstimate}}</td></tr>
{{end}}</table>
<p>Local effect: {{f .Discontinuity.LocalEffect}}<br>Upper-bound estimate (top {{.Discontinuity.MaxShownRecs}} shown): <b>{{f .Discontinuity.UpperBoundEstimate}}</b></p>
{{end}}
{{range .Charts}}<pre class="mermaid">{{mermaid .}}</pre>
{{end}}
</body>
</html>
{{define "strata"}}<table>
<tr>{{range .By}}<th>{{.}}</th>{{end}}<th>visits</th><th>stratified_estimate</th></tr>
{{range .Strata}}<tr>{{range .Key}}<td>{{.}}</td>{{end}}<td>{{.Visits}}</td><td>{{f .StratifiedEstimate}}</td></tr>
{{end}}</table>
<p>Mean estimate: {{f .MeanEstimate}}</p>
{{end}}`))

// stripFence removes the markdown code fence so mermaid.js sees only the diagram source.
func stripFence(chart string) string {
	chart = strings.TrimPrefix(chart, "```mermaid\n")
	return strings.TrimSuffix(chart, "```")
}

func writeHTML(w io.Writer, r *Report) error {
	return htmlTemplate.Execute(w, r)
}
