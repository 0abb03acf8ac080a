package cmd

import (
	"github.com/spf13/cobra"

	"review-scraper/services"
	"review-scraper/services/geocode"
	"review-scraper/storage"
)

func newUnifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unify <dir> <out>",
		Short: "Concatenates every CSV file of a directory into one file.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok, err := storage.UnifyCSV(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				a.logger.Warn("[unify] No CSV file in %s, nothing written", args[0])
				return nil
			}
			a.logger.Info("[unify] Wrote %s", path)
			return nil
		},
	}
}

// tableStage reads a CSV, applies fn to it and writes the result.
func tableStage(a *app, name, in, out string, fn func(t *storage.Table) error) error {
	t, err := storage.ReadTable(in)
	if err != nil {
		return err
	}
	before := t.Len()
	if err := fn(t); err != nil {
		return err
	}
	if err := t.WriteCSV(out); err != nil {
		return err
	}
	a.logger.Info("[%s] %d rows in, %d rows out -> %s", name, before, t.Len(), out)
	return nil
}

func newCleanReviewsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean-reviews <in> <out>",
		Short: "Cleans a review table and adds date, language and emoji columns.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaner := services.NewReviewCleaner(a.logger)
			return tableStage(a, "clean-reviews", args[0], args[1], cleaner.Clean)
		},
	}
}

func newCleanCompaniesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean-companies <in> <out>",
		Short: "Cleans a company table and drops duplicate companies.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaner := services.NewCompanyCleaner(a.logger)
			return tableStage(a, "clean-companies", args[0], args[1], cleaner.Clean)
		},
	}
}

func newFeaturesCmd(a *app) *cobra.Command {
	var column string

	cmd := &cobra.Command{
		Use:   "features <in> <out> [--column <name>]",
		Short: "Adds sentiment, emoji, punctuation, case and topic features for a text column.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor := services.NewFeatureExtractor(a.logger)
			return tableStage(a, "features", args[0], args[1], func(t *storage.Table) error {
				return extractor.Extract(t, column)
			})
		},
	}
	cmd.Flags().StringVar(&column, "column", "Contenu_avis", "text column to analyse")
	return cmd
}

func newGeocodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <in> <out>",
		Short: "Adds Latitude and Longitude to a company table.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := geocode.LoadCache(a.cfg.GeocodeCachePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := geocode.SaveCache(a.cfg.GeocodeCachePath, cache); err != nil {
					a.logger.Warn("[geocode] Failed to save cache: %v", err)
				}
			}()

			nominatim := geocode.NewNominatim(
				geocode.WithBaseURL(a.cfg.NominatimURL),
				geocode.WithUserAgent(a.cfg.GeocodeUserAgent),
				geocode.WithMinInterval(a.cfg.GeocodeMinInterval),
			)
			resolver := geocode.NewResolver(nominatim, cache)
			return tableStage(a, "geocode", args[0], args[1], func(t *storage.Table) error {
				return services.GeocodeCompanies(cmd.Context(), t, resolver, a.logger)
			})
		},
	}
}
