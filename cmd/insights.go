package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"review-scraper/models"
	"review-scraper/services"
	"review-scraper/storage"
)

var errNoReviewSource = errors.New("insights: give a review CSV or set POSTGRES_ENABLED")

func newInsightsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insights [avis.csv]",
		Short: "Prints rating, reply and country insights over scraped reviews.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reviews []models.Review
				err     error
			)
			switch {
			case len(args) == 1:
				reviews, err = storage.ReadReviews(args[0])
			case a.cfg.PostgresEnabled:
				var pg *storage.PostgresWriter
				pg, err = storage.NewPostgresWriter(cmd.Context(), a.cfg.DSN())
				if err != nil {
					return err
				}
				defer pg.Close()
				reviews, err = pg.FetchReviews(cmd.Context())
			default:
				return errNoReviewSource
			}
			if err != nil {
				return err
			}

			report := services.NewInsightService(a.logger).Generate(reviews)
			services.NewReportPrinter(cmd.OutOrStdout()).PrintInsights(report)
			return nil
		},
	}
}
