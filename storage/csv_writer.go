package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"review-scraper/models"
)

// Column headers of the output files. They are consumed by downstream
// scripts and must not change.
var (
	CompanyHeader = []string{"Entreprise", "Url", "Location", "TrustScore", "NombreAvis", "ServicesProposes"}
	ReviewHeader  = []string{
		"Nom_Entreprise", "Nom_Client", "Nombre_avis", "Pays", "Note",
		"Date", "Titre_avis", "Contenu_avis", "Réponse_Entrpris",
	}
)

// CSVWriter appends rows to a CSV file under a fixed header.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	width  int
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{file: f, writer: w, width: len(header)}, nil
}

// WriteRow writes one record. Its length must match the header.
func (c *CSVWriter) WriteRow(row []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(row) != c.width {
		return fmt.Errorf("csv: row has %d fields, header has %d", len(row), c.width)
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	flushErr := c.writer.Error()
	closeErr := c.file.Close()
	if flushErr != nil {
		return fmt.Errorf("csv: flush: %w", flushErr)
	}
	return closeErr
}

// WriteCompanies writes the company table (entreprises.csv).
func WriteCompanies(path string, companies []models.Company) error {
	w, err := NewCSVWriter(path, CompanyHeader)
	if err != nil {
		return err
	}
	for _, c := range companies {
		row := []string{
			c.Name,
			c.ProfileURL,
			c.Location,
			strconv.FormatFloat(c.TrustScore, 'f', -1, 64),
			strconv.Itoa(c.ReviewCount),
			FormatServices(c.Services),
		}
		if err := w.WriteRow(row); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

// WriteReviews writes one company's reviews, in the order given.
func WriteReviews(path string, reviews []models.Review) error {
	w, err := NewCSVWriter(path, ReviewHeader)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		row := []string{
			r.CompanyName,
			r.ReviewerName,
			r.ReviewerReviewCount,
			r.Country,
			r.RatingText(),
			r.Date,
			r.Title,
			r.Content,
			r.CompanyReply,
		}
		if err := w.WriteRow(row); err != nil {
			_ = w.Close()
			return err
		}
	}
	return w.Close()
}

// ReadCompanies loads a company table written by WriteCompanies.
// Rows with an unparseable review count are kept with a count of 0.
func ReadCompanies(path string) ([]models.Company, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(CompanyHeader...); err != nil {
		return nil, fmt.Errorf("read companies %s: %w", path, err)
	}

	companies := make([]models.Company, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		score, _ := strconv.ParseFloat(t.Get(i, "TrustScore"), 64)
		count, _ := strconv.Atoi(t.Get(i, "NombreAvis"))
		companies = append(companies, models.Company{
			Name:        t.Get(i, "Entreprise"),
			ProfileURL:  t.Get(i, "Url"),
			Location:    t.Get(i, "Location"),
			TrustScore:  score,
			ReviewCount: count,
			Services:    ParseServices(t.Get(i, "ServicesProposes")),
		})
	}
	return companies, nil
}

// ReadReviews loads a review file (per-company or unified).
func ReadReviews(path string) ([]models.Review, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require(ReviewHeader...); err != nil {
		return nil, fmt.Errorf("read reviews %s: %w", path, err)
	}

	reviews := make([]models.Review, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		rating, _ := strconv.Atoi(t.Get(i, "Note"))
		reviews = append(reviews, models.Review{
			CompanyName:         t.Get(i, "Nom_Entreprise"),
			ReviewerName:        t.Get(i, "Nom_Client"),
			ReviewerReviewCount: t.Get(i, "Nombre_avis"),
			Country:             t.Get(i, "Pays"),
			Rating:              rating,
			Date:                t.Get(i, "Date"),
			Title:               t.Get(i, "Titre_avis"),
			Content:             t.Get(i, "Contenu_avis"),
			CompanyReply:        t.Get(i, "Réponse_Entrpris"),
		})
	}
	return reviews, nil
}

// ReviewFileName is the per-company file name. Only path separators are replaced.
func ReviewFileName(company string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(company)
	return "avis_" + name + ".csv"
}

// FormatServices renders a list the way downstream notebooks expect it,
// e.g. ['Livraison', 'Stockage'], or [] when empty.
func FormatServices(services []string) string {
	parts := make([]string, len(services))
	for i, s := range services {
		parts[i] = quoteLiteral(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func quoteLiteral(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case ch == '\\':
			b.WriteString(`\\`)
		case ch == quote:
			b.WriteByte('\\')
			b.WriteByte(ch)
		case ch == '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// ParseServices reverses FormatServices. Malformed input yields the
// elements read so far.
func ParseServices(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil
	}
	body := s[1 : len(s)-1]

	var out []string
	for i := 0; i < len(body); i++ {
		quote := body[i]
		if quote != '\'' && quote != '"' {
			continue
		}
		var b strings.Builder
		closed := false
		for i++; i < len(body); i++ {
			ch := body[i]
			if ch == '\\' && i+1 < len(body) {
				i++
				if body[i] == 'n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(body[i])
				}
				continue
			}
			if ch == quote {
				closed = true
				break
			}
			b.WriteByte(ch)
		}
		if !closed {
			break
		}
		out = append(out, b.String())
	}
	return out
}
