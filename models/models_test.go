package models

import "testing"

func TestCompanyPageCount(t *testing.T) {
	tests := []struct {
		reviews int
		want    int
	}{
		{0, 1},
		{19, 1},
		{20, 2},
		{41, 3},
		{-5, 1},
	}
	for _, tt := range tests {
		c := Company{ReviewCount: tt.reviews}
		if got := c.PageCount(20); got != tt.want {
			t.Errorf("PageCount(%d reviews) = %d; want %d", tt.reviews, got, tt.want)
		}
	}
}

func TestReviewRatingText(t *testing.T) {
	if got := (Review{Rating: 4}).RatingText(); got != "4" {
		t.Errorf("RatingText() = %q; want %q", got, "4")
	}
	if got := (Review{}).RatingText(); got != SentinelText {
		t.Errorf("RatingText() = %q; want sentinel %q", got, SentinelText)
	}
}

func TestRunReportAddCompany(t *testing.T) {
	var r RunReport
	r.AddCompany(CompanyStats{Company: "a", PagesSucceeded: 2, PagesFailed: 1, Reviews: 30, OutputPath: "a.csv"})
	r.AddCompany(CompanyStats{Company: "b", PagesFailed: 1})

	if r.CompaniesAttempted != 2 || r.CompaniesWritten != 1 {
		t.Errorf("companies: attempted %d written %d", r.CompaniesAttempted, r.CompaniesWritten)
	}
	if r.PagesSucceeded != 2 || r.PagesFailed != 2 || r.Reviews != 30 {
		t.Errorf("totals: %+v", r)
	}
}
