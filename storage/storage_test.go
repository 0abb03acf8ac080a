package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"review-scraper/models"
)

func TestFormatServices(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, "[]"},
		{[]string{"Livraison"}, "['Livraison']"},
		{[]string{"Livraison", "Stockage"}, "['Livraison', 'Stockage']"},
		{[]string{"L'entrepôt"}, `["L'entrepôt"]`},
		{[]string{`Dit "express" l'été`}, `['Dit "express" l\'été']`},
		{[]string{`a\b`}, `['a\\b']`},
	}
	for _, tt := range tests {
		got := FormatServices(tt.in)
		if got != tt.want {
			t.Errorf("FormatServices(%q) = %s; want %s", tt.in, got, tt.want)
		}
		if back := ParseServices(got); !cmp.Equal(back, tt.in) {
			t.Errorf("ParseServices(%s) = %q; want %q", got, back, tt.in)
		}
	}
}

func TestParseServicesMalformed(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Livraison", nil},
		{"[]", nil},
		{"['a', 'b]", []string{"a"}},
		{"['a', 'b", nil},
	}
	for _, tt := range tests {
		if got := ParseServices(tt.in); !cmp.Equal(got, tt.want) {
			t.Errorf("ParseServices(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestReviewFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Acme", "avis_Acme.csv"},
		{"A/B Transport", "avis_A_B Transport.csv"},
		{`C:\D`, "avis_C:_D.csv"},
	}
	for _, tt := range tests {
		if got := ReviewFileName(tt.in); got != tt.want {
			t.Errorf("ReviewFileName(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompaniesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "entreprises.csv")
	companies := []models.Company{
		{Name: "Acme, SA", ProfileURL: "https://x/a", Location: "Lyon", TrustScore: 4.3, ReviewCount: 1234, Services: []string{"Livraison", "Stockage"}},
		{Name: "Non", ProfileURL: "Non", Location: "Non"},
	}
	require.NoError(t, WriteCompanies(path, companies))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Equal(t, "Entreprise,Url,Location,TrustScore,NombreAvis,ServicesProposes", lines[0])
	require.Equal(t, `"Acme, SA",https://x/a,Lyon,4.3,1234,"['Livraison', 'Stockage']"`, lines[1])
	require.Equal(t, "Non,Non,Non,0,0,[]", lines[2])

	got, err := ReadCompanies(path)
	require.NoError(t, err)
	if diff := cmp.Diff(companies, got); diff != "" {
		t.Errorf("ReadCompanies mismatch (-want +got):\n%s", diff)
	}
}

func TestReviewsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avis_Acme.csv")
	reviews := []models.Review{
		{CompanyName: "Acme", ReviewerName: "Marie", ReviewerReviewCount: "3", Country: "FR", Rating: 4,
			Date: "2024-03-01T10:15:00.000Z", Title: "Top", Content: "Très bien,\n\"vraiment\"", CompanyReply: "Non"},
		{CompanyName: "Acme", ReviewerName: "Non", ReviewerReviewCount: "0", Country: "Non", Rating: 0,
			Date: "Non", Title: "Non", Content: "Non", CompanyReply: "Non"},
	}
	require.NoError(t, WriteReviews(path, reviews))

	table, err := ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, ReviewHeader, table.Header)
	require.Equal(t, "Non", table.Get(1, "Note"))
	require.Equal(t, "4", table.Get(0, "Note"))

	got, err := ReadReviews(path)
	require.NoError(t, err)
	if diff := cmp.Diff(reviews, got); diff != "" {
		t.Errorf("ReadReviews mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReviewsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "avis_Empty.csv")
	require.NoError(t, WriteReviews(path, nil))

	table, err := ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, ReviewHeader, table.Header)
	require.Equal(t, 0, table.Len())
}

func TestTable(t *testing.T) {
	table := NewTable("a", "b")
	table.Append([]string{"1", "2", "extra"})
	table.Append([]string{"3"})

	require.Equal(t, []string{"1", "2"}, table.Rows[0])
	require.Equal(t, []string{"3", ""}, table.Rows[1])
	require.Equal(t, "", table.Get(0, "missing"))

	table.Set(1, "c", "x")
	require.Equal(t, []string{"a", "b", "c"}, table.Header)
	require.Equal(t, []string{"", "x"}, table.Column("c"))

	table.Filter(func(i int) bool { return table.Get(i, "a") == "3" })
	require.Equal(t, 1, table.Len())
	require.Equal(t, "x", table.Get(0, "c"))

	err := table.Require("a", "z", "y")
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"z", "y"}, missing.Columns)
	require.Contains(t, err.Error(), "z, y")
}

func TestReadTableStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffEntreprise,Location\nAcme,Lyon\n"), 0644))

	table, err := ReadTable(path)
	require.NoError(t, err)
	require.True(t, table.Has("Entreprise"))
	require.Equal(t, "Lyon", table.Get(0, "Location"))
}

func writeReviewFile(t *testing.T, dir, company string, n int) {
	t.Helper()
	reviews := make([]models.Review, n)
	for i := range reviews {
		reviews[i] = models.Review{CompanyName: company, Title: fmt.Sprintf("%s #%d", company, i)}
	}
	require.NoError(t, WriteReviews(filepath.Join(dir, ReviewFileName(company)), reviews))
}

func TestUnifyCSV(t *testing.T) {
	dir := t.TempDir()
	writeReviewFile(t, dir, "A", 5)
	writeReviewFile(t, dir, "B", 0)
	writeReviewFile(t, dir, "C", 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	out := filepath.Join(t.TempDir(), "avis.csv")
	path, ok, err := UnifyCSV(dir, out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, out, path)

	table, err := ReadTable(out)
	require.NoError(t, err)
	require.Equal(t, ReviewHeader, table.Header)
	require.Equal(t, 8, table.Len())
	require.Equal(t, "A #0", table.Get(0, "Titre_avis"))
	require.Equal(t, "C #2", table.Get(7, "Titre_avis"))
}

func TestUnifyCSVEmptyDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "avis.csv")

	path, ok, err := UnifyCSV(t.TempDir(), out)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, path)

	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))

	_, ok, err = UnifyCSV(filepath.Join(t.TempDir(), "missing"), out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnifyCSVSkipsOwnOutput(t *testing.T) {
	dir := t.TempDir()
	writeReviewFile(t, dir, "A", 2)
	out := filepath.Join(dir, "avis.csv")

	for i := 0; i < 2; i++ {
		_, ok, err := UnifyCSV(dir, out)
		require.NoError(t, err)
		require.True(t, ok)
	}
	table, err := ReadTable(out)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
}

func TestUnifyCSVSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	writeReviewFile(t, dir, "A", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "avis_B.csv"), []byte("x,y\n1,2\n"), 0644))

	_, ok, err := UnifyCSV(dir, filepath.Join(t.TempDir(), "avis.csv"))
	require.ErrorIs(t, err, ErrSchemaMismatch)
	require.Contains(t, err.Error(), "avis_B.csv")
	require.False(t, ok)
}

func TestNewRunDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "results")

	first, err := NewRunDir(root, "2024-05-01_12-00-00")
	require.NoError(t, err)
	second, err := NewRunDir(root, "2024-05-01_12-00-00")
	require.NoError(t, err)
	third, err := NewRunDir(root, "2024-05-01_12-00-00")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(root, "2024-05-01_12-00-00"), first)
	require.Equal(t, filepath.Join(root, "2024-05-01_12-00-00_1"), second)
	require.Equal(t, filepath.Join(root, "2024-05-01_12-00-00_2"), third)
}

func TestRunReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-report.json")
	report := &models.RunReport{
		RunDir:    "x",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    models.RunCompleted,
	}
	report.AddCompany(models.CompanyStats{Company: "A", PagesRequested: 2, PagesSucceeded: 1, PagesFailed: 1, Reviews: 20, OutputPath: "a.csv"})
	require.NoError(t, WriteRunReport(path, report))

	got, err := ReadRunReport(path)
	require.NoError(t, err)
	if diff := cmp.Diff(report, got); diff != "" {
		t.Errorf("ReadRunReport mismatch (-want +got):\n%s", diff)
	}
}

func TestPostgresQueryBuilders(t *testing.T) {
	require.Equal(t, "($1,$2,$3)", placeholders(0, 3))
	require.Equal(t, "($7,$8)", placeholders(6, 2))

	query, args := reviewInsert([]models.Review{
		{CompanyName: "A", Rating: 4},
		{CompanyName: "A", Rating: 0},
	})
	require.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,")
	require.Len(t, args, 18)
	require.Equal(t, 4, args[4])
	require.Nil(t, args[13])

	deduped := lastByURL([]models.Company{
		{Name: "first", ProfileURL: "u1"},
		{Name: "other", ProfileURL: "u2"},
		{Name: "second", ProfileURL: "u1"},
	})
	require.Equal(t, []models.Company{
		{Name: "second", ProfileURL: "u1"},
		{Name: "other", ProfileURL: "u2"},
	}, deduped)
}
