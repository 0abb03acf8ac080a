package models

// Sentinel values substituted when a field cannot be parsed from the page.
const (
	SentinelText        = "Non"
	SentinelReviewCount = "0"
)

// Company is one business discovered on a category listing page.
// It is written to entreprises.csv before any review is fetched.
type Company struct {
	Name        string
	ProfileURL  string
	Location    string
	TrustScore  float64
	ReviewCount int
	Services    []string
}

// PageCount is the number of review pages to request for c, given the site's page size.
// It is an upper bound: the last page may be short or empty.
func (c Company) PageCount(reviewsPerPage int) int {
	if reviewsPerPage <= 0 {
		reviewsPerPage = 20
	}
	count := c.ReviewCount
	if count < 0 {
		count = 0
	}
	return count/reviewsPerPage + 1
}
