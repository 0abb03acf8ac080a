package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"review-scraper/models"
)

var (
	nonDigits   = regexp.MustCompile(`[^0-9]`)
	ratingDigit = regexp.MustCompile(`[1-5]`)
)

// ParseListingPage extracts one Company per card, in document order.
// Missing fields take their sentinel; malformed markup never aborts the page.
func ParseListingPage(html []byte, rules ListingRules, baseURL string) []models.Company {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil || rules.Card == "" {
		return nil
	}
	base, _ := url.Parse(baseURL)

	var companies []models.Company
	doc.Find(rules.Card).Each(func(_ int, card *goquery.Selection) {
		companies = append(companies, models.Company{
			Name:        rules.Name.text(card),
			ProfileURL:  extract(card, rules.ProfileURL, rules.ProfileURL.Sentinel, resolveAgainst(base)),
			Location:    rules.Location.text(card),
			TrustScore:  extract(card, rules.TrustScore, 0, parseTrustScore),
			ReviewCount: extract(card, rules.ReviewCount, 0, parseReviewCount),
			Services:    rules.Services.all(card),
		})
	})
	return companies
}

// ParseReviewPage extracts one Review per article, in document order.
// A page with no matching article yields an empty slice.
func ParseReviewPage(html []byte, rules ReviewRules, company string) []models.Review {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil || rules.Article == "" {
		return nil
	}

	var reviews []models.Review
	doc.Find(rules.Article).Each(func(_ int, article *goquery.Selection) {
		reviews = append(reviews, models.Review{
			CompanyName:         company,
			ReviewerName:        rules.ReviewerName.text(article),
			ReviewerReviewCount: extract(article, rules.ReviewerReviewCount, rules.ReviewerReviewCount.Sentinel, firstWord),
			Country:             rules.Country.text(article),
			Rating:              extract(article, rules.Rating, 0, parseRating),
			Date:                rules.Date.text(article),
			Title:               rules.Title.text(article),
			Content:             rules.Content.text(article),
			CompanyReply:        rules.CompanyReply.text(article),
		})
	})
	return reviews
}

// parseTrustScore reads "TrustScore 4,3" as 4.3.
func parseTrustScore(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "TrustScore", "")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 5 {
		return 0, false
	}
	return f, true
}

// parseReviewCount reads "TrustScore 4,3 | 1 234 avis" as 1234.
func parseReviewCount(s string) (int, bool) {
	parts := strings.SplitN(s, "|", 2)
	if len(parts) < 2 {
		return 0, false
	}
	digits := nonDigits.ReplaceAllString(parts[1], "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseRating(alt string) (int, bool) {
	m := ratingDigit.FindString(alt)
	if m == "" {
		return 0, false
	}
	return int(m[0] - '0'), true
}

func firstWord(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// resolveAgainst makes href absolute. Links leaving the site's host or
// using a non-http scheme are rejected.
func resolveAgainst(base *url.URL) func(string) (string, bool) {
	return func(href string) (string, bool) {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return "", false
		}
		if base != nil && base.IsAbs() {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" || ref.Host == "" {
			return "", false
		}
		if base != nil && base.Host != "" && !strings.EqualFold(ref.Host, base.Host) {
			return "", false
		}
		return ref.String(), true
	}
}
