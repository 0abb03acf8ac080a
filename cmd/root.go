package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"review-scraper/config"
	"review-scraper/utils"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewRootCmd builds the review-scraper command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "review-scraper",
		Short:         "review-scraper collects company reviews and prepares them for analysis.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			a.logger = utils.NewLoggerWithLevel(utils.ParseLevel(a.cfg.LogLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newScrapeCmd(a),
		newUnifyCmd(a),
		newCleanReviewsCmd(a),
		newCleanCompaniesCmd(a),
		newFeaturesCmd(a),
		newGeocodeCmd(a),
		newInsightsCmd(a),
	)
	return root
}

// ExecuteContext runs the CLI and exits with status 1 on error.
func ExecuteContext(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
