package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"review-scraper/models"
)

// PostgresWriter persists companies and reviews to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS companies (
			id           SERIAL PRIMARY KEY,
			name         TEXT         NOT NULL,
			url          TEXT         UNIQUE NOT NULL,
			location     TEXT         NOT NULL DEFAULT '',
			trust_score  NUMERIC(3,1) NOT NULL DEFAULT 0,
			review_count INTEGER      NOT NULL DEFAULT 0,
			services     TEXT[]       NOT NULL DEFAULT '{}',
			scraped_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS reviews (
			id                    SERIAL PRIMARY KEY,
			company               TEXT        NOT NULL,
			reviewer              TEXT        NOT NULL DEFAULT '',
			reviewer_review_count TEXT        NOT NULL DEFAULT '',
			country               TEXT        NOT NULL DEFAULT '',
			rating                SMALLINT,
			review_date           TEXT        NOT NULL DEFAULT '',
			title                 TEXT        NOT NULL DEFAULT '',
			content               TEXT        NOT NULL DEFAULT '',
			company_reply         TEXT        NOT NULL DEFAULT '',
			scraped_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_company ON reviews(company);
		CREATE INDEX IF NOT EXISTS idx_reviews_rating  ON reviews(rating);
	`)
	return err
}

// WriteCompanies upserts the company table keyed on profile URL.
// When a URL repeats, the last occurrence wins.
func (pw *PostgresWriter) WriteCompanies(ctx context.Context, companies []models.Company) error {
	companies = lastByURL(companies)

	const batchSize = 50
	for i := 0; i < len(companies); i += batchSize {
		end := min(i+batchSize, len(companies))
		query, args := companyInsert(companies[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert companies: %w", err)
		}
	}
	return nil
}

// WriteReviews replaces the stored reviews of one company.
func (pw *PostgresWriter) WriteReviews(ctx context.Context, company string, reviews []models.Review) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE company = $1", company); err != nil {
		return fmt.Errorf("postgres: clear reviews of %s: %w", company, err)
	}

	const batchSize = 50
	for i := 0; i < len(reviews); i += batchSize {
		end := min(i+batchSize, len(reviews))
		query, args := reviewInsert(reviews[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert reviews of %s: %w", company, err)
		}
	}
	return tx.Commit()
}

func lastByURL(companies []models.Company) []models.Company {
	pos := make(map[string]int, len(companies))
	out := make([]models.Company, 0, len(companies))
	for _, c := range companies {
		if i, seen := pos[c.ProfileURL]; seen {
			out[i] = c
			continue
		}
		pos[c.ProfileURL] = len(out)
		out = append(out, c)
	}
	return out
}

func companyInsert(batch []models.Company) (string, []interface{}) {
	const cols = 6
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, c := range batch {
		valueStrings = append(valueStrings, placeholders(idx*cols, cols))
		valueArgs = append(valueArgs,
			c.Name, c.ProfileURL, c.Location, c.TrustScore, c.ReviewCount, pq.Array(c.Services))
	}

	query := fmt.Sprintf(`
		INSERT INTO companies (name, url, location, trust_score, review_count, services)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			trust_score = EXCLUDED.trust_score,
			review_count = EXCLUDED.review_count,
			services = EXCLUDED.services,
			scraped_at = NOW()
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func reviewInsert(batch []models.Review) (string, []interface{}) {
	const cols = 9
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, r := range batch {
		var rating interface{}
		if r.Rating >= 1 && r.Rating <= 5 {
			rating = r.Rating
		}
		valueStrings = append(valueStrings, placeholders(idx*cols, cols))
		valueArgs = append(valueArgs,
			r.CompanyName, r.ReviewerName, r.ReviewerReviewCount, r.Country, rating,
			r.Date, r.Title, r.Content, r.CompanyReply)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (company, reviewer, reviewer_review_count, country, rating,
			review_date, title, content, company_reply)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// placeholders renders "($n+1,...,$n+count)".
func placeholders(offset, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchReviews retrieves stored reviews, used by the insights command.
func (pw *PostgresWriter) FetchReviews(ctx context.Context) ([]models.Review, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT company, reviewer, reviewer_review_count, country, COALESCE(rating, 0),
			review_date, title, content, company_reply
		FROM reviews
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(
			&r.CompanyName, &r.ReviewerName, &r.ReviewerReviewCount, &r.Country, &r.Rating,
			&r.Date, &r.Title, &r.Content, &r.CompanyReply,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
