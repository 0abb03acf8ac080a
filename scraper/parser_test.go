package scraper

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"review-scraper/models"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestParseListingPage(t *testing.T) {
	got := ParseListingPage(readFixture(t, "listing.html"), DefaultListingRules(), "https://fr.trustpilot.com")

	want := []models.Company{
		{
			Name:        "Acme Transport",
			ProfileURL:  "https://fr.trustpilot.com/review/acme-transport.fr",
			Location:    "Lyon, France",
			TrustScore:  4.3,
			ReviewCount: 1234,
			Services:    []string{"Livraison", "Stockage"},
		},
		{
			Name:        "Bare Co",
			ProfileURL:  models.SentinelText,
			Location:    models.SentinelText,
			TrustScore:  0,
			ReviewCount: 0,
		},
		{
			Name:        "Absolute SARL",
			ProfileURL:  models.SentinelText,
			Location:    models.SentinelText,
			TrustScore:  0,
			ReviewCount: 7,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseListingPage mismatch (-want +got):\n%s", diff)
	}
}

func TestParseListingPage_NoCards(t *testing.T) {
	got := ParseListingPage([]byte("<html><body><p>maintenance</p></body></html>"), DefaultListingRules(), "https://example.com")
	require.Empty(t, got)
}

func TestParseListingPage_ProfileURLStaysOnSite(t *testing.T) {
	card := func(name, href string) string {
		return `<div class="card_card__lQWDv styles_wrapper__2JOo2"><a href="` + href + `">` +
			`<p class="styles_displayName__GOhL2">` + name + `</p></a></div>`
	}
	html := "<html><body>" +
		card("Foreign", "https://evil.example.org/review/x") +
		card("Script", "javascript:void(0)") +
		card("Mail", "mailto:contact@acme.fr") +
		card("Relative", "/review/acme.fr") +
		card("Same host", "https://FR.trustpilot.com/review/b.fr") +
		"</body></html>"

	got := ParseListingPage([]byte(html), DefaultListingRules(), "https://fr.trustpilot.com")

	want := map[string]string{
		"Foreign":   models.SentinelText,
		"Script":    models.SentinelText,
		"Mail":      models.SentinelText,
		"Relative":  "https://fr.trustpilot.com/review/acme.fr",
		"Same host": "https://FR.trustpilot.com/review/b.fr",
	}
	require.Len(t, got, len(want))
	for _, c := range got {
		if c.ProfileURL != want[c.Name] {
			t.Errorf("ProfileURL of %s = %q; want %q", c.Name, c.ProfileURL, want[c.Name])
		}
	}
}

func TestParseReviewPage(t *testing.T) {
	got := ParseReviewPage(readFixture(t, "reviews.html"), DefaultReviewRules(), "Acme Transport")

	want := []models.Review{
		{
			CompanyName:         "Acme Transport",
			ReviewerName:        "Marie D.",
			ReviewerReviewCount: "3",
			Country:             "FR",
			Rating:              4,
			Date:                "2024-03-01T10:15:00.000Z",
			Title:               "Très bon service",
			Content:             "Livraison rapide et soignée.",
			CompanyReply:        "Merci Marie !",
		},
		{
			CompanyName:         "Acme Transport",
			ReviewerName:        "Paul",
			ReviewerReviewCount: models.SentinelReviewCount,
			Country:             models.SentinelText,
			Rating:              0,
			Date:                models.SentinelText,
			Title:               models.SentinelText,
			Content:             models.SentinelText,
			CompanyReply:        models.SentinelText,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseReviewPage mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "Non", got[1].RatingText())
}

func TestParseReviewPage_Empty(t *testing.T) {
	got := ParseReviewPage([]byte("<html><body></body></html>"), DefaultReviewRules(), "Acme")
	require.Len(t, got, 0)
}

func TestParseTrustScore(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"TrustScore 4,3", 4.3, true},
		{"TrustScore 5", 5, true},
		{"3.9", 3.9, true},
		{"TrustScore", 0, false},
		{"TrustScore 7,2", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTrustScore(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseTrustScore(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"TrustScore 4,3 | 1 234 avis", 1234, true},
		{"| 12 avis", 12, true},
		{"12 avis", 0, false},
		{"TrustScore 4 | avis", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseReviewCount(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseReviewCount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Noté 4 sur 5 étoiles", 4},
		{"Rated 1 out of 5 stars", 1},
		{"Noté sur étoiles", 0},
		{"", 0},
	}
	for _, tt := range tests {
		got, _ := parseRating(tt.in)
		if got != tt.want {
			t.Errorf("parseRating(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtract_Fallback(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div><p class="x">12</p></div>`))
	require.NoError(t, err)

	parse := func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	boom := func(string) (int, bool) { panic("boom") }

	require.Equal(t, 12, extract(doc.Selection, FieldRule{Selector: "p.x"}, 7, parse))
	require.Equal(t, 7, extract(doc.Selection, FieldRule{Selector: "p.y"}, 7, parse))
	require.Equal(t, 7, extract(doc.Selection, FieldRule{Selector: "p.x"}, 7, boom))
	require.Equal(t, 7, extract(doc.Selection, FieldRule{}, 7, parse))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	yaml := `
listing:
  card: "li.company"
  name:
    selector: "h3"
review:
  title:
    selector: "h4.title"
    sentinel: "-"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	require.Equal(t, "li.company", rules.Listing.Card)
	require.Equal(t, "h3", rules.Listing.Name.Selector)
	require.Equal(t, DefaultListingRules().Location, rules.Listing.Location)
	require.Equal(t, "h4.title", rules.Review.Title.Selector)
	require.Equal(t, "-", rules.Review.Title.Sentinel)
	require.Equal(t, DefaultReviewRules().Article, rules.Review.Article)
}

func TestLoadRules_EmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	require.Equal(t, DefaultRules(), rules)
}

func TestLoadRules_BadFile(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listing: [unterminated"), 0644))
	_, err = LoadRules(path)
	require.Error(t, err)
}
