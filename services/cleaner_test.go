package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"review-scraper/storage"
	"review-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func reviewTable(rows ...[]string) *storage.Table {
	t := storage.NewTable(storage.ReviewHeader...)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Super Service! Voir https://example.com/a?b=c", "super service! voir"},
		{"<b>Top</b> livraison", "top livraison"},
		{"visitez www.transport.fr maintenant", "visitez maintenant"},
		{"Home | Transport ABC", "transport abc"},
		{"acme.fr Transport", "acme transport"},
		{"Colis reçu. Merci", "colis reçu. merci"},
		{"  multiple   spaces\n\tand tabs ", "multiple spaces and tabs"},
		{"", ""},
	}

	for _, tt := range tests {
		got := CleanText(tt.raw)
		if got != tt.want {
			t.Errorf("CleanText(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanLocation(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"PARIS", "Paris"},
		{"saint-denis de la réunion", "Saint-Denis de la Réunion"},
		{"ST.ETIENNE", "St. Etienne"},
		{"aix en provence et marseille", "Aix En Provence et Marseille"},
		{"  lyon, france ", "Lyon, France"},
		{"Non", "Non"},
	}

	for _, tt := range tests {
		got := CleanLocation(tt.raw)
		if got != tt.want {
			t.Errorf("CleanLocation(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", UnknownLanguage},
		{"ok", UnknownLanguage},
		{"   a  ", UnknownLanguage},
		{"Le colis est arrivé en avance et en parfait état, le livreur était très aimable et je recommande vivement cette entreprise de transport à tous mes amis.", "fr"},
	}

	for _, tt := range tests {
		got := DetectLanguage(tt.text)
		if got != tt.want {
			t.Errorf("DetectLanguage(%q) = %q; want %q", tt.text, got, tt.want)
		}
	}
}

func TestReviewCleanerMissingColumns(t *testing.T) {
	table := storage.NewTable("Nom_Entreprise", "Nom_Client", "Titre_avis", "Contenu_avis")
	table.Append([]string{"Acme", "Marie", "Top", "Bien"})

	err := NewReviewCleaner(newTestLogger()).Clean(table)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"Pays", "Date"}, missing.Columns)
	require.Equal(t, []string{"Nom_Entreprise", "Nom_Client", "Titre_avis", "Contenu_avis"}, table.Header)
	require.Equal(t, "Marie", table.Get(0, "Nom_Client"))
}

func TestReviewCleanerClean(t *testing.T) {
	table := reviewTable(
		[]string{"Acme Transport", "", "3", "Non", "5", "2024-03-02T10:15:00.000Z", "Très bien", "Livraison rapide 👍 merci", "Non"},
		[]string{"Acme Transport", "Paul", "1", "FR", "4", "hier", "Parfait", "Non", "Non"},
		[]string{"Acme Transport", "Zoé", "2", "BE", "1", "2024-03-04T08:00:00Z", "", "", "Non"},
	)

	err := NewReviewCleaner(newTestLogger()).Clean(table)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	for _, col := range DateFeatureColumns {
		require.True(t, table.Has(col), "missing column %s", col)
	}
	require.True(t, table.Has("Langue"))
	require.True(t, table.Has("extracted_emojis"))
	require.True(t, table.Has("emojis_text"))

	require.Equal(t, "acme transport", table.Get(0, "Nom_Entreprise"))
	require.Equal(t, FillValue, table.Get(0, "Nom_Client"))
	require.Equal(t, FillValue, table.Get(0, "Pays"))
	require.Equal(t, "2024", table.Get(0, "year"))
	require.Equal(t, "3", table.Get(0, "month"))
	require.Equal(t, "5", table.Get(0, "weekday"))
	require.Equal(t, "1", table.Get(0, "weekend"))
	require.Equal(t, "2", table.Get(0, "day"))
	require.Equal(t, "10", table.Get(0, "hour"))
	require.Equal(t, "livraison rapide 👍 merci", table.Get(0, "Contenu_avis"))
	require.Equal(t, "👍", table.Get(0, "extracted_emojis"))
	require.True(t, strings.Contains(table.Get(0, "emojis_text"), "thumbs"))

	require.Equal(t, "paul", table.Get(1, "Nom_Client"))
	require.Equal(t, "FR", table.Get(1, "Pays"))
	require.Equal(t, "parfait", table.Get(1, "Contenu_avis"))
	require.Equal(t, "", table.Get(1, "year"))
	require.NotEmpty(t, table.Get(1, "Langue"))
}

func TestCompanyCleanerClean(t *testing.T) {
	table := storage.NewTable(storage.CompanyHeader...)
	table.Append([]string{"Acme.fr Transport", "https://x/a", "PARIS", "4.1", "10", "['Livraison']"})
	table.Append([]string{"Beta", "https://x/b", "lyon", "3", "2", "[]"})
	table.Append([]string{"acme transport", "https://x/c", "MARSEILLE", "4.5", "7", `['Stockage', "L'entrepôt"]`})

	err := NewCompanyCleaner(newTestLogger()).Clean(table)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	require.Equal(t, []string{"beta", "acme transport"}, table.Column("Entreprise"))
	require.Equal(t, []string{"Lyon", "Marseille"}, table.Column("Location"))
	require.Equal(t, "https://x/c", table.Get(1, "Url"))
	require.Equal(t, `['Stockage', "L'entrepôt"]`, table.Get(1, "ServicesProposes"))
}

func TestCompanyCleanerMissingColumns(t *testing.T) {
	table := storage.NewTable("Entreprise")
	err := NewCompanyCleaner(newTestLogger()).Clean(table)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"Location", "ServicesProposes"}, missing.Columns)
}
