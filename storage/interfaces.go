package storage

import (
	"context"

	"review-scraper/models"
)

// CompanyWriter persists the company table.
type CompanyWriter interface {
	WriteCompanies(ctx context.Context, companies []models.Company) error
}

// ReviewWriter persists one company's reviews.
type ReviewWriter interface {
	WriteReviews(ctx context.Context, company string, reviews []models.Review) error
}

// Store is an optional database backend written alongside the CSV files.
type Store interface {
	CompanyWriter
	ReviewWriter
	Close() error
}
