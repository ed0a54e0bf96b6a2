package commands

import (
	"recimpact/internal/config"
	"recimpact/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	// cfg is loaded by the root command before any subcommand runs.
	cfg *config.AppConfig
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var (
		verbose bool
		logFile bool
	)

	cmd := &cobra.Command{
		Use:   "recimpact",
		Short: "Estimate the causal effect of app recommendations from visit logs",
		Long: `recimpact compares recommendation algorithms from their app visit logs (naive and
stratified observational estimates) and estimates the causal effect of showing
recommendations with a regression discontinuity at the last shown rank.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(logging.Options{Verbose: verbose, FileLogging: logFile}); err != nil {
				return err
			}

			var err error
			cfg, err = config.Load()
			if err != nil {
				log.Error().Err(err).Msg("Failed to load configuration")
				return err
			}

			log.Debug().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Int("maxShownRecs", cfg.MaxShownRecs).
				Msg("recimpact starting")
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	cmd.PersistentFlags().BoolVar(&logFile, "log-file", false, "also write logs to a rotating file under LOGS_FOLDER")

	cmd.AddCommand(newEstimateCmd(), newReportCmd(), newServeCmd())
	return cmd
}

func Execute() error {
	return newRootCmd().Execute()
}
