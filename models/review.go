package models

import "strconv"

// Review is one customer review parsed from a company's review page.
type Review struct {
	CompanyName         string
	ReviewerName        string
	ReviewerReviewCount string
	Country             string
	// Rating is 1..5, or 0 when the star rating could not be read.
	Rating       int
	Date         string
	Title        string
	Content      string
	CompanyReply string
}

// RatingText renders Rating for CSV output, using the sentinel for unparsed ratings.
func (r Review) RatingText() string {
	if r.Rating < 1 || r.Rating > 5 {
		return SentinelText
	}
	return strconv.Itoa(r.Rating)
}

// WorkUnit is one (company, page) pair handed to a page-fetch worker.
type WorkUnit struct {
	Company string
	BaseURL string
	Page    int
	Headers map[string]string
}

// PageResult is what a worker returns for one WorkUnit.
// A failed page has OK == false and no reviews.
type PageResult struct {
	Page       int
	StatusCode int
	OK         bool
	Err        string
	Reviews    []Review
}
