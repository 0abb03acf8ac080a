package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/abadojack/whatlanggo"

	"review-scraper/models"
	"review-scraper/storage"
	"review-scraper/utils"
)

// MissingColumnsError is returned before any change when a required column is absent.
type MissingColumnsError = storage.MissingColumnsError

// FillValue replaces unknown client names and countries.
const FillValue = "Inconnu"

// UnknownLanguage is reported for text too short or too ambiguous to classify.
const UnknownLanguage = "Unknown"

var (
	urlRegexp       = regexp.MustCompile(`http\S+`)
	htmlTagRegexp   = regexp.MustCompile(`<[^>]+>`)
	webAddrRegexp   = regexp.MustCompile(`\bwww\.\S+\.\S+`)
	dotSuffixRegexp = regexp.MustCompile(`\.\S+`)
	homeRegexp      = regexp.MustCompile(`home\s*\|\s*`)

	// particles stay lowercase in French place names
	locationParticles = map[string]bool{"de": true, "du": true, "le": true, "la": true, "les": true, "et": true}

	dateLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// Review columns read and written by the cleaning stage.
var (
	ReviewRequiredColumns  = []string{"Nom_Entreprise", "Nom_Client", "Pays", "Date", "Titre_avis", "Contenu_avis"}
	CompanyRequiredColumns = []string{"Entreprise", "Location", "ServicesProposes"}
	DateFeatureColumns     = []string{"year", "month", "weekday", "weekend", "day", "hour"}
)

// CleanText lowercases s and strips URLs, HTML tags, web addresses,
// dot-suffixed tokens and "home |" breadcrumbs, then collapses whitespace.
func CleanText(s string) string {
	s = strings.ToLower(s)
	s = urlRegexp.ReplaceAllString(s, "")
	s = htmlTagRegexp.ReplaceAllString(s, "")
	s = webAddrRegexp.ReplaceAllString(s, "")
	s = dotSuffixRegexp.ReplaceAllString(s, "")
	s = homeRegexp.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// CleanLocation title-cases a place name, keeping French particles lowercase:
// "SAINT-DENIS DE LA REUNION" becomes "Saint-Denis de la Reunion".
func CleanLocation(s string) string {
	s = strings.TrimSpace(titleCase(s))
	s = strings.ReplaceAll(s, "St.", "St. ")
	words := strings.Fields(s)
	for i, w := range words {
		if locationParticles[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
		}
	}
	return strings.Join(words, " ")
}

// titleCase upper-cases every letter that follows a non-letter and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// DetectLanguage returns the ISO 639-1 code of text, or UnknownLanguage.
func DetectLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < 3 {
		return UnknownLanguage
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return UnknownLanguage
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return UnknownLanguage
}

// ReviewCleaner normalises a unified review table for analysis.
type ReviewCleaner struct {
	logger *utils.Logger
}

// NewReviewCleaner creates a ReviewCleaner with the given logger.
func NewReviewCleaner(logger *utils.Logger) *ReviewCleaner {
	return &ReviewCleaner{logger: logger}
}

// Clean rewrites t in place. It appends the date features, Langue,
// extracted_emojis and emojis_text, and drops reviews left without content.
func (c *ReviewCleaner) Clean(t *storage.Table) error {
	if err := t.Require(ReviewRequiredColumns...); err != nil {
		return err
	}
	for _, col := range DateFeatureColumns {
		t.AddColumn(col)
	}
	t.AddColumn("Langue")
	t.AddColumn("extracted_emojis")
	t.AddColumn("emojis_text")

	before := t.Len()
	unparsedDates := 0
	for i := 0; i < t.Len(); i++ {
		t.Set(i, "Nom_Entreprise", CleanText(t.Get(i, "Nom_Entreprise")))

		client := CleanText(t.Get(i, "Nom_Client"))
		if client == "" {
			client = FillValue
		}
		t.Set(i, "Nom_Client", client)

		if country := strings.TrimSpace(t.Get(i, "Pays")); country == "" || country == models.SentinelText {
			t.Set(i, "Pays", FillValue)
		}

		if !setDateFeatures(t, i) {
			unparsedDates++
		}

		title := CleanText(t.Get(i, "Titre_avis"))
		content := CleanText(t.Get(i, "Contenu_avis"))
		if content == strings.ToLower(models.SentinelText) {
			content = title
		}
		t.Set(i, "Titre_avis", title)
		t.Set(i, "Contenu_avis", content)

		t.Set(i, "Langue", DetectLanguage(content))
		t.Set(i, "extracted_emojis", ExtractEmojis(content))
		t.Set(i, "emojis_text", EmojisToText(content))
	}

	t.Filter(func(i int) bool { return t.Get(i, "Contenu_avis") != "" })

	if unparsedDates > 0 {
		c.logger.Warn("[cleaner] %d reviews have an unparseable date", unparsedDates)
	}
	c.logger.Info("[cleaner] Cleaned %d → %d reviews (dropped %d)",
		before, t.Len(), before-t.Len())
	return nil
}

// setDateFeatures fills the date feature columns of row i. Weekday counts from Monday = 0.
func setDateFeatures(t *storage.Table, i int) bool {
	d, ok := parseDate(t.Get(i, "Date"))
	if !ok {
		return false
	}
	weekday := (int(d.Weekday()) + 6) % 7
	weekend := 0
	if weekday >= 5 {
		weekend = 1
	}
	t.Set(i, "year", strconv.Itoa(d.Year()))
	t.Set(i, "month", strconv.Itoa(int(d.Month())))
	t.Set(i, "weekday", strconv.Itoa(weekday))
	t.Set(i, "weekend", strconv.Itoa(weekend))
	t.Set(i, "day", strconv.Itoa(d.Day()))
	t.Set(i, "hour", strconv.Itoa(d.Hour()))
	return true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// CompanyCleaner normalises the company table.
type CompanyCleaner struct {
	logger *utils.Logger
}

// NewCompanyCleaner creates a CompanyCleaner with the given logger.
func NewCompanyCleaner(logger *utils.Logger) *CompanyCleaner {
	return &CompanyCleaner{logger: logger}
}

// Clean rewrites t in place: names are cleaned, locations title-cased,
// service lists normalised and duplicate names dropped, keeping the last.
func (c *CompanyCleaner) Clean(t *storage.Table) error {
	if err := t.Require(CompanyRequiredColumns...); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		t.Set(i, "Entreprise", CleanText(t.Get(i, "Entreprise")))
		t.Set(i, "Location", CleanLocation(t.Get(i, "Location")))
		t.Set(i, "ServicesProposes", storage.FormatServices(storage.ParseServices(t.Get(i, "ServicesProposes"))))
	}

	last := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		last[t.Get(i, "Entreprise")] = i
	}
	before := t.Len()
	names := t.Column("Entreprise")
	t.Filter(func(i int) bool { return last[names[i]] == i })

	c.logger.Info("[cleaner] Cleaned %d → %d companies (dropped %d duplicates)",
		before, t.Len(), before-t.Len())
	return nil
}
