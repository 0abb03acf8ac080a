package scraper

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"

	"review-scraper/models"
)

// FieldRule locates one field inside a card. When Attr is set the attribute
// value is read instead of the element text. Sentinel replaces a miss for
// text fields; numeric fields use their zero value.
type FieldRule struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr,omitempty"`
	Sentinel string `yaml:"sentinel,omitempty"`
}

// ListingRules selects company cards on a category listing page.
type ListingRules struct {
	Card        string    `yaml:"card"`
	Name        FieldRule `yaml:"name"`
	ProfileURL  FieldRule `yaml:"profile_url"`
	Location    FieldRule `yaml:"location"`
	TrustScore  FieldRule `yaml:"trust_score"`
	ReviewCount FieldRule `yaml:"review_count"`
	Services    FieldRule `yaml:"services"`
}

// ReviewRules selects review articles on a company review page.
type ReviewRules struct {
	Article             string    `yaml:"article"`
	ReviewerName        FieldRule `yaml:"reviewer_name"`
	ReviewerReviewCount FieldRule `yaml:"reviewer_review_count"`
	Country             FieldRule `yaml:"country"`
	Rating              FieldRule `yaml:"rating"`
	Date                FieldRule `yaml:"date"`
	Title               FieldRule `yaml:"title"`
	Content             FieldRule `yaml:"content"`
	CompanyReply        FieldRule `yaml:"company_reply"`
}

// Rules bundles both page kinds, as stored in a selectors file.
type Rules struct {
	Listing ListingRules `yaml:"listing"`
	Review  ReviewRules  `yaml:"review"`
}

// DefaultListingRules matches the category pages of the review site.
func DefaultListingRules() ListingRules {
	return ListingRules{
		Card:        "div.card_card__lQWDv.styles_wrapper__2JOo2",
		Name:        FieldRule{Selector: "p.styles_displayName__GOhL2", Sentinel: models.SentinelText},
		ProfileURL:  FieldRule{Selector: "a[href]", Attr: "href", Sentinel: models.SentinelText},
		Location:    FieldRule{Selector: "span.styles_location__ILZb0", Sentinel: models.SentinelText},
		TrustScore:  FieldRule{Selector: "span.styles_trustScore__8emxJ"},
		ReviewCount: FieldRule{Selector: "p.styles_ratingText__yQ5S7"},
		Services:    FieldRule{Selector: "span.typography_body-s__aY15Q"},
	}
}

// DefaultReviewRules matches the company review pages of the review site.
func DefaultReviewRules() ReviewRules {
	return ReviewRules{
		Article:             "article.styles_reviewCard__hcAvl",
		ReviewerName:        FieldRule{Selector: "span[data-consumer-name-typography]", Sentinel: models.SentinelText},
		ReviewerReviewCount: FieldRule{Selector: "span[data-consumer-reviews-count-typography]", Sentinel: models.SentinelReviewCount},
		Country:             FieldRule{Selector: "svg + span", Sentinel: models.SentinelText},
		Rating:              FieldRule{Selector: "div.star-rating_starRating__4rrcf img[alt]", Attr: "alt"},
		Date:                FieldRule{Selector: "time[datetime]", Attr: "datetime", Sentinel: models.SentinelText},
		Title:               FieldRule{Selector: "h2", Sentinel: models.SentinelText},
		Content:             FieldRule{Selector: "p[data-service-review-text-typography]", Sentinel: models.SentinelText},
		CompanyReply:        FieldRule{Selector: "p.styles_message__shHhX", Sentinel: models.SentinelText},
	}
}

// DefaultRules returns the built-in rules for both page kinds.
func DefaultRules() Rules {
	return Rules{Listing: DefaultListingRules(), Review: DefaultReviewRules()}
}

// LoadRules reads a YAML selectors file on top of the defaults. Keys absent
// from the file keep their default value. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read selectors file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("parse selectors file %s: %w", path, err)
	}
	return rules, nil
}

// raw returns the trimmed text (or attribute) of the first match under scope.
// ok is false when nothing matched or the value is empty.
func (r FieldRule) raw(scope *goquery.Selection) (string, bool) {
	if r.Selector == "" {
		return "", false
	}
	sel := scope.Find(r.Selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	var v string
	if r.Attr != "" {
		attr, exists := sel.Attr(r.Attr)
		if !exists {
			return "", false
		}
		v = attr
	} else {
		v = sel.Text()
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// text returns the field value or the rule's sentinel.
func (r FieldRule) text(scope *goquery.Selection) string {
	if v, ok := r.raw(scope); ok {
		return v
	}
	return r.Sentinel
}

// all returns the trimmed, non-empty text of every match under scope.
func (r FieldRule) all(scope *goquery.Selection) []string {
	if r.Selector == "" {
		return nil
	}
	var out []string
	scope.Find(r.Selector).Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.Text()); v != "" {
			out = append(out, v)
		}
	})
	return out
}

// extract runs post over the raw field value. A miss, a rejected value or a
// panic inside post all yield fallback.
func extract[T any](scope *goquery.Selection, rule FieldRule, fallback T, post func(string) (T, bool)) (out T) {
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()
	v, ok := rule.raw(scope)
	if !ok {
		return fallback
	}
	parsed, ok := post(v)
	if !ok {
		return fallback
	}
	return parsed
}
