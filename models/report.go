package models

import "time"

// RunStatus is the final state of a scraping run.
type RunStatus string

const (
	RunStarted   RunStatus = "started"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// CompanyStats summarises the pages fetched for one company.
type CompanyStats struct {
	Company        string `json:"company"`
	PagesRequested int    `json:"pages_requested"`
	PagesSucceeded int    `json:"pages_succeeded"`
	PagesFailed    int    `json:"pages_failed"`
	Reviews        int    `json:"reviews"`
	OutputPath     string `json:"output_path,omitempty"`
}

// RunReport makes partial failure of a run auditable.
type RunReport struct {
	RunID              string         `json:"run_id"`
	RunDir             string         `json:"run_dir"`
	StartedAt          time.Time      `json:"started_at"`
	CompletedAt        time.Time      `json:"completed_at,omitempty"`
	Status             RunStatus      `json:"status"`
	Error              string         `json:"error,omitempty"`
	ListingPages       int            `json:"listing_pages"`
	ListingPagesFailed int            `json:"listing_pages_failed"`
	CompaniesFound     int            `json:"companies_found"`
	CompaniesAttempted int            `json:"companies_attempted"`
	CompaniesWritten   int            `json:"companies_written"`
	PagesSucceeded     int            `json:"pages_succeeded"`
	PagesFailed        int            `json:"pages_failed"`
	Reviews            int            `json:"reviews"`
	UnifiedPath        string         `json:"unified_path,omitempty"`
	Companies          []CompanyStats `json:"companies,omitempty"`
}

// AddCompany folds one company's page stats into the run totals.
func (r *RunReport) AddCompany(stats CompanyStats) {
	r.CompaniesAttempted++
	if stats.OutputPath != "" {
		r.CompaniesWritten++
	}
	r.PagesSucceeded += stats.PagesSucceeded
	r.PagesFailed += stats.PagesFailed
	r.Reviews += stats.Reviews
	r.Companies = append(r.Companies, stats)
}

// ReviewInsights holds the computed analytics over a set of reviews.
type ReviewInsights struct {
	TotalReviews       int
	TotalCompanies     int
	RatedReviews       int
	AverageRating      float64
	RatingDistribution map[int]int
	RepliedReviews     int
	ReplyRate          float64
	ReviewsByCountry   map[string]int
	TopCompanies       []CompanyCount
}

// CompanyCount pairs a company with its review count and average rating.
type CompanyCount struct {
	Company       string
	Reviews       int
	AverageRating float64
}
