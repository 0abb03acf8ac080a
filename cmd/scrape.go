package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"review-scraper/config"
	"review-scraper/models"
	"review-scraper/scraper"
	"review-scraper/services"
	"review-scraper/storage"
)

func newScrapeCmd(a *app) *cobra.Command {
	var companiesPath string

	cmd := &cobra.Command{
		Use:   "scrape [--companies <entreprises.csv>]",
		Short: "Scrapes the category listing, then every company's reviews.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			rules, err := scraper.LoadRules(a.cfg.SelectorsFile)
			if err != nil {
				return err
			}
			opts := []scraper.Option{scraper.WithRules(rules)}

			fetcher, closeFetcher, err := newFetcher(a)
			if err != nil {
				return err
			}
			defer closeFetcher()

			if a.cfg.PostgresEnabled {
				pg, err := storage.NewPostgresWriter(ctx, a.cfg.DSN())
				if err != nil {
					a.logger.Error("[scrape] Failed to connect to PostgreSQL: %v", err)
					return err
				}
				defer pg.Close()
				opts = append(opts, scraper.WithStore(pg))
				a.logger.Info("[scrape] Mirroring results to PostgreSQL")
			}

			crawler := scraper.New(a.cfg, a.logger, fetcher, opts...)

			var report *models.RunReport
			if companiesPath != "" {
				companies, err := storage.ReadCompanies(companiesPath)
				if err != nil {
					return err
				}
				a.logger.Info("[scrape] Skipping listing, %d companies read from %s", len(companies), companiesPath)
				report, err = crawler.RunCompanies(ctx, companies)
			} else {
				report, err = crawler.Run(ctx)
			}

			if report != nil {
				services.NewReportPrinter(cmd.OutOrStdout()).PrintRunReport(report)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&companiesPath, "companies", "", "reuse a company table instead of scraping the listing")
	return cmd
}

// newFetcher picks the page fetcher for FETCH_MODE. The returned func releases it.
func newFetcher(a *app) (scraper.Fetcher, func(), error) {
	if a.cfg.FetchMode == config.FetchModeBrowser {
		browser, err := scraper.NewBrowserFetcher(a.cfg.ChromeBin, a.cfg.RequestTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("browser fetcher: %w", err)
		}
		a.logger.Info("[scrape] Fetching pages with headless Chrome")
		return browser, func() { _ = browser.Close() }, nil
	}
	fetcher := scraper.NewHTTPFetcher(scraper.HTTPOptions{
		Timeout:          a.cfg.RequestTimeout,
		CloudflareBypass: a.cfg.CloudflareBypass,
	})
	return fetcher, func() {}, nil
}
