package commands

import (
	"fmt"
	"os"

	"recimpact/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		open    bool
		charts  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare algorithms A and B and estimate the causal effect of recommendations on A",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if open && (f != report.FormatHTML || outPath == "") {
				return fmt.Errorf("--open requires --format html and --out")
			}

			r, err := report.Build(cmd.Context(), report.Options{
				DatasetA:     cfg.DatasetA,
				DatasetB:     cfg.DatasetB,
				MaxShownRecs: cfg.MaxShownRecs,
				Charts:       charts || cfg.EnableMermaidCharts,
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				return report.Write(cmd.OutOrStdout(), r, f)
			}
			if err := writeReportFile(outPath, r, f); err != nil {
				return err
			}

			log.Info().Str("runID", r.RunID).Str("path", outPath).Msg("Report written")
			if open {
				return browser.OpenFile(outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml or html")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&open, "open", false, "open the HTML report in the default browser")
	cmd.Flags().BoolVar(&charts, "charts", false, "include Mermaid charts (also enabled by ENABLE_MERMAID_CHARTS)")
	return cmd
}

// writeReportFile renders r into path, reporting a failed close as an error.
func writeReportFile(path string, r *report.Report, f report.Format) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	return report.Write(file, r, f)
}
