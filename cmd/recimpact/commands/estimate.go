package commands

import (
	"fmt"

	"recimpact/internal/causal"
	"recimpact/internal/report"
	"recimpact/internal/visits"
	"recimpact/internal/visuals"

	"github.com/spf13/cobra"
)

type estimateFlags struct {
	dataset      string
	format       string
	maxShownRecs int
}

func newEstimateCmd() *cobra.Command {
	flags := &estimateFlags{}

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Run a single estimator on one visit log",
	}
	cmd.PersistentFlags().StringVarP(&flags.dataset, "dataset", "d", "A", "visit log CSV path, or A / B for the configured logs")
	cmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "text", "output format: text, json or yaml")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "naive",
			Short: "Fraction of visits that came through a recommendation click",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ds, err := loadForEstimate(flags, visits.ColIsRecVisit)
				if err != nil {
					return err
				}
				est, err := causal.Naive(ds.Records)
				if err != nil {
					return err
				}
				return writeEstimate(cmd, flags, est)
			},
		},
		stratifiedCmd(flags, "activity", "Stratify by user activity level", causal.ByActivity),
		stratifiedCmd(flags, "category", "Stratify by app category", causal.ByCategory),
		stratifiedCmd(flags, "full", "Stratify by both activity level and app category", causal.ByBoth),
		discontinuityCmd(flags),
	)
	return cmd
}

func stratifiedCmd(flags *estimateFlags, use, short string, by []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadForEstimate(flags, append([]string{visits.ColIsRecVisit}, by...)...)
			if err != nil {
				return err
			}
			res, err := causal.Stratify(ds.Records, by)
			if err != nil {
				return err
			}
			return writeEstimate(cmd, flags, res)
		},
	}
}

func discontinuityCmd(flags *estimateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discontinuity",
		Short: "Upper-bound causal effect of showing recommendations (rank regression discontinuity)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff := cfg.MaxShownRecs
			if cmd.Flags().Changed("max-shown-recs") {
				cutoff = flags.maxShownRecs
			}

			ds, err := loadForEstimate(flags)
			if err != nil {
				return err
			}
			res, err := causal.RankDiscontinuity(ds.Records, cutoff)
			if err != nil {
				return err
			}
			if err := writeEstimate(cmd, flags, res); err != nil {
				return err
			}
			if cfg.EnableMermaidCharts && flags.format == string(report.FormatText) {
				fmt.Fprintln(cmd.OutOrStdout(), visuals.GenerateRankCTRChart(res))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.maxShownRecs, "max-shown-recs", 0, "recommendation slots rendered to users (default from RECIMPACT_MAX_SHOWN_RECS)")
	return cmd
}

func loadForEstimate(flags *estimateFlags, cols ...string) (*visits.Dataset, error) {
	ds, err := visits.LoadFile(cfg.ResolveDataset(flags.dataset))
	if err != nil {
		return nil, err
	}
	if err := ds.RequireColumns(cols...); err != nil {
		return nil, err
	}
	return ds, nil
}

func writeEstimate(cmd *cobra.Command, flags *estimateFlags, v any) error {
	format, err := report.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), v, format)
}
