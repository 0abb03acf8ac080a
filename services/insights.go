package services

import (
	"sort"
	"strings"

	"review-scraper/models"
	"review-scraper/utils"
)

const topCompanies = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises reviews: rating distribution, reply rate, countries and
// the most reviewed companies.
func (s *InsightService) Generate(reviews []models.Review) *models.ReviewInsights {
	report := &models.ReviewInsights{
		RatingDistribution: make(map[int]int),
		ReviewsByCountry:   make(map[string]int),
	}

	if len(reviews) == 0 {
		return report
	}

	report.TotalReviews = len(reviews)

	type companyAgg struct {
		reviews, rated, ratingSum int
	}
	byCompany := make(map[string]*companyAgg)
	var ratingSum int

	for _, r := range reviews {
		agg, ok := byCompany[r.CompanyName]
		if !ok {
			agg = &companyAgg{}
			byCompany[r.CompanyName] = agg
		}
		agg.reviews++

		if r.Rating >= 1 && r.Rating <= 5 {
			report.RatedReviews++
			report.RatingDistribution[r.Rating]++
			ratingSum += r.Rating
			agg.rated++
			agg.ratingSum += r.Rating
		}
		if reply := strings.TrimSpace(r.CompanyReply); reply != "" && reply != models.SentinelText {
			report.RepliedReviews++
		}
		if country := strings.TrimSpace(r.Country); country != "" && country != models.SentinelText {
			report.ReviewsByCountry[country]++
		}
	}

	report.TotalCompanies = len(byCompany)
	if report.RatedReviews > 0 {
		report.AverageRating = round2(float64(ratingSum) / float64(report.RatedReviews))
	}
	report.ReplyRate = round2(float64(report.RepliedReviews) / float64(report.TotalReviews))

	for name, agg := range byCompany {
		cc := models.CompanyCount{Company: name, Reviews: agg.reviews}
		if agg.rated > 0 {
			cc.AverageRating = round2(float64(agg.ratingSum) / float64(agg.rated))
		}
		report.TopCompanies = append(report.TopCompanies, cc)
	}
	sort.Slice(report.TopCompanies, func(i, j int) bool {
		a, b := report.TopCompanies[i], report.TopCompanies[j]
		if a.Reviews != b.Reviews {
			return a.Reviews > b.Reviews
		}
		return a.Company < b.Company
	})
	if len(report.TopCompanies) > topCompanies {
		report.TopCompanies = report.TopCompanies[:topCompanies]
	}

	s.logger.Debug("[insights] %d reviews over %d companies", report.TotalReviews, report.TotalCompanies)
	return report
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
