package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/google/uuid"

	"review-scraper/config"
	"review-scraper/models"
	"review-scraper/storage"
	"review-scraper/utils"
)

// Output layout inside a run directory.
const (
	CompaniesFile = "entreprises.csv"
	ReviewsDir    = "avis"
	UnifiedFile   = "avis.csv"
	ReportFile    = "run-report.json"
)

// StatusError is a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d from %s", e.StatusCode, e.URL)
}

// Crawler drives the listing fetch, the per-company review fan-out and the
// final unification of one run.
type Crawler struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher Fetcher
	rules   Rules
	store   storage.Store
	retry   *utils.RetryConfig

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	randMu sync.Mutex
	rng    *rand.Rand
}

// Option customises a Crawler.
type Option func(*Crawler)

// WithRules replaces the default selector rules.
func WithRules(rules Rules) Option {
	return func(c *Crawler) { c.rules = rules }
}

// WithStore also writes companies and reviews to a database.
func WithStore(store storage.Store) Option {
	return func(c *Crawler) { c.store = store }
}

// WithSleep replaces the context-aware sleep used for jitter and cooldowns.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Crawler) { c.sleep = sleep }
}

// WithClock replaces time.Now, used to stamp the run directory and report.
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) { c.now = now }
}

// WithSeed makes User-Agent choice and jitter deterministic.
func WithSeed(seed int64) Option {
	return func(c *Crawler) { c.rng = rand.New(rand.NewSource(seed)) }
}

// New creates a Crawler fetching through fetcher.
func New(cfg *config.Config, logger *utils.Logger, fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		rules:   DefaultRules(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries + 1,
			BaseDelay:   cfg.BackoffBase,
			MaxDelay:    cfg.BackoffMax,
			Logger:      logger,
		},
		sleep:   utils.SleepContext,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL sets the page query parameter on base.
func PageURL(base string, page int) string {
	u, err := url.Parse(base)
	if err != nil {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + "page=" + strconv.Itoa(page)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Jitter is the delay before fetching the given page:
// (page/(page/100+1))*step + rand[min, max] + step.
func (c *Crawler) Jitter(page int) time.Duration {
	if page < 0 {
		page = 0
	}
	step := c.cfg.JitterPageStep
	d := time.Duration(page/(page/100+1))*step + step + c.cfg.JitterMin

	if span := c.cfg.JitterMax - c.cfg.JitterMin; span > 0 {
		c.randMu.Lock()
		d += time.Duration(c.rng.Int63n(int64(span) + 1))
		c.randMu.Unlock()
	}
	return d
}

func (c *Crawler) headers() map[string]string {
	c.randMu.Lock()
	ua := c.cfg.UserAgents[c.rng.Intn(len(c.cfg.UserAgents))]
	c.randMu.Unlock()

	return map[string]string{
		"User-Agent":      ua,
		"Accept-Language": "fr-FR,fr;q=0.9,en;q=0.8",
	}
}

// fetch gets one page, backing off on 429 and 503 up to MaxRetries times.
func (c *Crawler) fetch(ctx context.Context, pageURL string, headers map[string]string) (int, []byte, error) {
	var (
		status int
		body   []byte
	)
	err := c.retry.Do(ctx, "fetch "+pageURL, func() error {
		code, b, err := c.fetcher.Fetch(ctx, pageURL, headers)
		status = code
		if err != nil {
			return err
		}
		if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
			return &utils.RetryableError{Err: &StatusError{URL: pageURL, StatusCode: code}}
		}
		if code < 200 || code > 299 {
			return &StatusError{URL: pageURL, StatusCode: code}
		}
		body = b
		return nil
	})
	return status, body, err
}

// FetchAndParse waits the jittered delay, fetches one review page and
// parses it. Failures are logged and reported in the result; they never
// reach sibling workers.
func (c *Crawler) FetchAndParse(ctx context.Context, unit models.WorkUnit) models.PageResult {
	result := models.PageResult{Page: unit.Page}

	if err := c.sleep(ctx, c.Jitter(unit.Page)); err != nil {
		result.Err = err.Error()
		return result
	}

	pageURL := PageURL(unit.BaseURL, unit.Page)
	status, body, err := c.fetch(ctx, pageURL, unit.Headers)
	result.StatusCode = status
	if err != nil {
		var transport *TransportError
		if errors.As(err, &transport) {
			c.logger.Error("[scraper] %s page %d: %v", unit.Company, unit.Page, err)
		} else {
			c.logger.Warn("[scraper] %s page %d: %v", unit.Company, unit.Page, err)
		}
		result.Err = err.Error()
		return result
	}

	result.OK = true
	result.Reviews = ParseReviewPage(body, c.rules.Review, unit.Company)
	c.logger.Debug("[scraper] %s page %d: %d reviews", unit.Company, unit.Page, len(result.Reviews))
	return result
}

// ScrapeCompany fetches every review page of company in parallel and writes
// them, in page order, to avis_<name>.csv under dir. Only filesystem
// failures are returned as errors.
func (c *Crawler) ScrapeCompany(ctx context.Context, company models.Company, dir string) (string, models.CompanyStats, error) {
	pages := company.PageCount(c.cfg.ReviewsPerPage)
	stats := models.CompanyStats{Company: company.Name, PagesRequested: pages}

	units := make([]models.WorkUnit, pages)
	for i := range units {
		units[i] = models.WorkUnit{
			Company: company.Name,
			BaseURL: company.ProfileURL,
			Page:    i + 1,
			Headers: c.headers(),
		}
	}

	pool := utils.NewWorkerPool(c.cfg.MaxConcurrency, int(c.cfg.RequestInterval/time.Millisecond))
	c.logger.Info("[scraper] %s: %d reviews announced, fetching %d pages with %d workers",
		company.Name, company.ReviewCount, pages, pool.Size())

	results := utils.MapOrdered(pool, units, func(u models.WorkUnit) models.PageResult {
		return c.FetchAndParse(ctx, u)
	})
	for _, p := range pool.Panics() {
		c.logger.Error("[scraper] %s: %v", company.Name, p)
	}

	var reviews []models.Review
	for _, r := range results {
		if !r.OK {
			stats.PagesFailed++
			continue
		}
		stats.PagesSucceeded++
		reviews = append(reviews, r.Reviews...)
	}
	stats.Reviews = len(reviews)

	if ctx.Err() != nil {
		c.logger.Warn("[scraper] %s: interrupted, %d fetched pages discarded", company.Name, stats.PagesSucceeded)
		return "", stats, nil
	}

	path := filepath.Join(dir, storage.ReviewFileName(company.Name))
	if err := storage.WriteReviews(path, reviews); err != nil {
		return "", stats, fmt.Errorf("write reviews of %s: %w", company.Name, err)
	}
	stats.OutputPath = path
	c.logger.Info("[scraper] %s: %d reviews written to %s (%d/%d pages ok)",
		company.Name, len(reviews), path, stats.PagesSucceeded, pages)

	if c.store != nil {
		if err := c.store.WriteReviews(ctx, company.Name, reviews); err != nil {
			c.logger.Warn("[scraper] %s: database write failed: %v", company.Name, err)
		}
	}

	if err := c.sleep(ctx, c.cfg.CompanyCooldown); err != nil {
		c.logger.Debug("[scraper] cooldown interrupted: %v", err)
	}
	return path, stats, nil
}

// ScrapeListing fetches the category listing pages one after another.
// A failed page contributes no companies.
func (c *Crawler) ScrapeListing(ctx context.Context, report *models.RunReport) []models.Company {
	var companies []models.Company
	for page := 1; page <= c.cfg.MaxListingPages; page++ {
		if ctx.Err() != nil {
			break
		}
		pageURL := PageURL(c.cfg.ListingURL, page)
		report.ListingPages++

		_, body, err := c.fetch(ctx, pageURL, c.headers())
		if err != nil {
			report.ListingPagesFailed++
			c.logger.Warn("[scraper] listing page %d: %v", page, err)
			continue
		}
		found := ParseListingPage(body, c.rules.Listing, c.cfg.SiteBaseURL)
		companies = append(companies, found...)
		c.logger.Info("[scraper] listing page %d: %d companies", page, len(found))
	}

	if err := c.sleep(ctx, c.cfg.ListingDelay); err != nil {
		c.logger.Debug("[scraper] listing delay interrupted: %v", err)
	}
	return companies
}

// Run performs a full run: listing, company table, reviews, unification and report.
func (c *Crawler) Run(ctx context.Context) (*models.RunReport, error) {
	return c.run(ctx, nil, true)
}

// RunCompanies is Run starting from an existing company table instead of the listing pages.
func (c *Crawler) RunCompanies(ctx context.Context, companies []models.Company) (*models.RunReport, error) {
	return c.run(ctx, companies, false)
}

func (c *Crawler) run(ctx context.Context, companies []models.Company, fromListing bool) (*models.RunReport, error) {
	report := &models.RunReport{RunID: uuid.NewString(), StartedAt: c.now(), Status: models.RunStarted}

	dir, err := storage.NewRunDir(c.cfg.OutputRoot, report.StartedAt.Format("2006-01-02_15-04-05"))
	if err != nil {
		return c.fail(report, err)
	}
	report.RunDir = dir
	c.logger.Info("[scraper] Run %s, directory: %s", report.RunID, dir)

	if fromListing {
		companies = c.ScrapeListing(ctx, report)
	}
	report.CompaniesFound = len(companies)

	if err := storage.WriteCompanies(filepath.Join(dir, CompaniesFile), companies); err != nil {
		return c.fail(report, err)
	}
	if c.store != nil {
		if err := c.store.WriteCompanies(ctx, companies); err != nil {
			c.logger.Warn("[scraper] database write of companies failed: %v", err)
		}
	}
	c.logger.Info("[scraper] %d companies saved to %s", len(companies), CompaniesFile)

	avisDir := filepath.Join(dir, ReviewsDir)
	for _, company := range c.reviewQueue(companies) {
		if ctx.Err() != nil {
			break
		}
		_, stats, err := c.ScrapeCompany(ctx, company, avisDir)
		if err != nil {
			return c.fail(report, err)
		}
		report.AddCompany(stats)
	}

	if err := ctx.Err(); err != nil {
		return c.fail(report, err)
	}

	unified, ok, err := storage.UnifyCSV(avisDir, filepath.Join(dir, UnifiedFile))
	if err != nil {
		return c.fail(report, err)
	}
	if !ok {
		c.logger.Warn("[scraper] No review files in %s, nothing to unify", avisDir)
	} else {
		report.UnifiedPath = unified
		c.logger.Info("[scraper] Reviews unified into %s", unified)
	}

	report.Status = models.RunCompleted
	report.CompletedAt = c.now()
	if err := storage.WriteRunReport(filepath.Join(dir, ReportFile), report); err != nil {
		return report, err
	}
	return report, nil
}

// reviewQueue keeps companies with reviews and a usable URL, once each,
// ordered by ascending review count.
func (c *Crawler) reviewQueue(companies []models.Company) []models.Company {
	var queue []models.Company
	seen := utils.NewURLSet()
	for _, company := range companies {
		if company.ReviewCount <= 0 {
			continue
		}
		if !strings.HasPrefix(company.ProfileURL, "http") {
			c.logger.Warn("[scraper] %s: no profile URL, skipped", company.Name)
			continue
		}
		if !seen.Add(profileKey(company.ProfileURL)) {
			c.logger.Debug("[scraper] %s: duplicate of %s, skipped", company.Name, company.ProfileURL)
			continue
		}
		queue = append(queue, company)
	}
	c.logger.Info("[scraper] %d distinct companies queued for reviews", seen.Size())
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].ReviewCount < queue[j].ReviewCount
	})
	return queue
}

// profileKey normalises a profile URL so case, fragment and query order
// differences do not defeat deduplication.
func profileKey(raw string) string {
	key, err := purell.NormalizeURLString(raw,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeGreedy|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery)
	if err != nil {
		return raw
	}
	return key
}

func (c *Crawler) fail(report *models.RunReport, err error) (*models.RunReport, error) {
	report.Status = models.RunFailed
	report.Error = err.Error()
	report.CompletedAt = c.now()
	if report.RunDir != "" {
		if werr := storage.WriteRunReport(filepath.Join(report.RunDir, ReportFile), report); werr != nil {
			c.logger.Error("[scraper] %v", werr)
		}
	}
	return report, err
}
