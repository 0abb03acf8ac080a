package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"review-scraper/models"
)

const nameWidth = 36

// ReportPrinter renders run reports and insights as terminal tables.
type ReportPrinter struct {
	out io.Writer
}

func NewReportPrinter(out io.Writer) *ReportPrinter {
	return &ReportPrinter{out: out}
}

func (p *ReportPrinter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	// Title plus borders and padding; narrower tables would wrap it.
	t.Style().Size.WidthMin = runewidth.StringWidth(title) + 4
	return t
}

// PrintRunReport prints the run totals followed by one row per company.
func (p *ReportPrinter) PrintRunReport(r *models.RunReport) {
	summary := p.newTable("Run " + string(r.Status))
	summary.AppendRows([]table.Row{
		{"Run ID", r.RunID},
		{"Run directory", r.RunDir},
		{"Listing pages (failed)", fmt.Sprintf("%d (%d)", r.ListingPages, r.ListingPagesFailed)},
		{"Companies found", r.CompaniesFound},
		{"Companies attempted", r.CompaniesAttempted},
		{"Companies written", r.CompaniesWritten},
		{"Review pages ok", r.PagesSucceeded},
		{"Review pages failed", r.PagesFailed},
		{"Reviews", r.Reviews},
		{"Duration", r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()},
	})
	if r.UnifiedPath != "" {
		summary.AppendRow(table.Row{"Unified file", r.UnifiedPath})
	}
	if r.Error != "" {
		summary.AppendRow(table.Row{"Error", r.Error})
	}
	summary.Render()

	if len(r.Companies) == 0 {
		return
	}
	companies := p.newTable("Companies")
	companies.AppendHeader(table.Row{"Company", "Pages", "OK", "Failed", "Reviews"})
	for _, c := range r.Companies {
		companies.AppendRow(table.Row{
			truncate(c.Company, nameWidth), c.PagesRequested, c.PagesSucceeded, c.PagesFailed, c.Reviews,
		})
	}
	companies.AppendFooter(table.Row{"Total", "", r.PagesSucceeded, r.PagesFailed, r.Reviews})
	companies.Render()
}

// PrintInsights prints review analytics.
func (p *ReportPrinter) PrintInsights(in *models.ReviewInsights) {
	overview := p.newTable("Review insights")
	overview.AppendRows([]table.Row{
		{"Reviews", in.TotalReviews},
		{"Companies", in.TotalCompanies},
		{"Rated reviews", in.RatedReviews},
		{"Average rating", fmt.Sprintf("%.2f ★", in.AverageRating)},
		{"Company replies", fmt.Sprintf("%d (%.0f%%)", in.RepliedReviews, in.ReplyRate*100)},
	})
	overview.Render()

	ratings := p.newTable("Rating distribution")
	ratings.AppendHeader(table.Row{"Stars", "Reviews", ""})
	for stars := 5; stars >= 1; stars-- {
		n := in.RatingDistribution[stars]
		ratings.AppendRow(table.Row{strings.Repeat("★", stars), n, bar(n, in.RatedReviews)})
	}
	ratings.Render()

	if len(in.TopCompanies) > 0 {
		top := p.newTable("Most reviewed companies")
		top.AppendHeader(table.Row{"#", "Company", "Reviews", "Avg rating"})
		for i, c := range in.TopCompanies {
			top.AppendRow(table.Row{i + 1, truncate(c.Company, nameWidth), c.Reviews, fmt.Sprintf("%.2f", c.AverageRating)})
		}
		top.Render()
	}

	if len(in.ReviewsByCountry) > 0 {
		type countryCount struct {
			country string
			count   int
		}
		var counts []countryCount
		for c, n := range in.ReviewsByCountry {
			counts = append(counts, countryCount{c, n})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].country < counts[j].country
		})

		countries := p.newTable("Reviews by country")
		countries.AppendHeader(table.Row{"Country", "Reviews"})
		for _, c := range counts {
			countries.AppendRow(table.Row{truncate(c.country, nameWidth), c.count})
		}
		countries.Render()
	}
}

// bar draws n/total as up to 30 blocks.
func bar(n, total int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	return strings.Repeat("█", max(1, n*30/total))
}

// truncate shortens s to width display columns, so wide characters do not break table alignment.
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
