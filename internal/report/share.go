package report

import (
	"fmt"
	"sort"

	"spendreport-backend/internal/numsafe"
)

// ShareCategory is a category-level figure safe to share publicly.
type ShareCategory struct {
	Category string  `json:"category"`
	Monthly  float64 `json:"monthly"`
}

// Share is a privacy-safe digest of a report: no merchants, no dates.
type Share struct {
	AnnualSavings     float64         `json:"annual_savings"`
	MonthlyLeak       float64         `json:"monthly_leak"`
	TopCategories     []ShareCategory `json:"top_categories"`
	SubscriptionCount int             `json:"subscription_count"`
	Tagline           string          `json:"tagline"`
}

// ShareSummary builds a Share from category-level data of r. Monthly leak is
// the recoverable monthly amount across the action plan.
func ShareSummary(r ProReportData) Share {
	var monthly, yearly float64
	for _, a := range r.ActionPlan {
		monthly += numsafe.Number(a.EstimatedMonthlySavings, 0)
		yearly += numsafe.Number(a.EstimatedYearlySavings, 0)
	}

	dives := make([]CategoryDeepDive, len(r.CategoryDeepDives))
	copy(dives, r.CategoryDeepDives)
	sort.SliceStable(dives, func(i, j int) bool { return dives[i].MonthlyAverage > dives[j].MonthlyAverage })

	top := []ShareCategory{}
	for _, d := range dives {
		if len(top) == 3 {
			break
		}
		top = append(top, ShareCategory{
			Category: text(d.Category, "Other"),
			Monthly:  numsafe.Round(d.MonthlyAverage, 2, 0),
		})
	}

	tagline := "I checked my spending and found no major leaks."
	if yearly >= 1 {
		tagline = fmt.Sprintf("I found %s/year in hidden spending leaks!", numsafe.Currency(yearly, 0))
	}

	return Share{
		AnnualSavings:     numsafe.Round(yearly, 2, 0),
		MonthlyLeak:       numsafe.Round(monthly, 2, 0),
		TopCategories:     top,
		SubscriptionCount: len(r.SubscriptionInsights),
		Tagline:           tagline,
	}
}
