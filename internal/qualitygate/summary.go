package qualitygate

import (
	"fmt"
	"sort"
	"strings"

	"spendreport-backend/internal/numsafe"
	"spendreport-backend/internal/redact"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

const (
	maxLabelRunes    = 15
	maxCategoryRunes = 30
	maxCategories    = 8
	maxMerchants     = 10
	maxRecurring     = 20
	maxIssues        = 20
)

// BuildRedactedSummary reduces r to aggregates safe to send to the
// advisory service. It performs no I/O.
func BuildRedactedSummary(r report.ProReportData, v validation.Result) RedactedSummary {
	return RedactedSummary{
		MonthTotals:          monthTotals(r.MonthlyTrends),
		TopCategories:        topCategories(r.CategoryDeepDives),
		TopMerchants:         topMerchants(r.CategoryDeepDives),
		RecurringCharges:     recurringCharges(r.SubscriptionInsights),
		SubscriptionCount:    len(r.SubscriptionInsights),
		ActionCount:          len(r.ActionPlan),
		ProjectedSavings12Mo: numsafe.Round(r.SavingsProjection.Month12, 0, 0),
		HealthScore:          numsafe.Clamp(numsafe.Round(r.ExecutiveSummary.HealthScore, 0, 0), 0, 100),
		HealthLabel:          string(report.HealthLabelFor(r.ExecutiveSummary.HealthScore)),
		HasBehavioralData:    hasBehavioralData(r.BehavioralInsights),
		ValidationIssues:     validationIssues(v),
	}
}

func monthTotals(trends []report.MonthlyTrend) []MonthTotal {
	out := make([]MonthTotal, 0, len(trends))
	for i, m := range trends {
		out = append(out, MonthTotal{
			Label: fmt.Sprintf("month_%d", i+1),
			Total: numsafe.Round(m.TotalSpend, 0, 0),
		})
	}
	return out
}

func topCategories(dives []report.CategoryDeepDive) []CategoryStat {
	sorted := make([]report.CategoryDeepDive, len(dives))
	copy(sorted, dives)
	sort.SliceStable(sorted, func(i, j int) bool {
		return numsafe.Number(sorted[i].Total, 0) > numsafe.Number(sorted[j].Total, 0)
	})
	out := make([]CategoryStat, 0, maxCategories)
	for _, d := range sorted {
		if len(out) == maxCategories {
			break
		}
		out = append(out, CategoryStat{
			Name:    label(d.Category, maxCategoryRunes),
			Spend:   numsafe.Round(d.Total, 0, 0),
			Percent: numsafe.Round(d.Percent, 1, 0),
		})
	}
	return out
}

// topMerchants merges merchant totals across categories. Names are
// redacted before they are compared so two raw labels that redact to the
// same text are counted together.
func topMerchants(dives []report.CategoryDeepDive) []MerchantStat {
	totals := map[string]float64{}
	order := []string{}
	for _, d := range dives {
		for _, m := range d.TopMerchants {
			name := label(m.Name, maxLabelRunes)
			if _, ok := totals[name]; !ok {
				order = append(order, name)
			}
			totals[name] += numsafe.Number(m.Total, 0)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return totals[order[i]] > totals[order[j]] })
	out := make([]MerchantStat, 0, maxMerchants)
	for _, name := range order {
		if len(out) == maxMerchants {
			break
		}
		out = append(out, MerchantStat{Name: name, Spend: numsafe.Round(totals[name], 0, 0)})
	}
	return out
}

func recurringCharges(subs []report.SubscriptionInsight) []RecurringCharge {
	out := make([]RecurringCharge, 0, min(len(subs), maxRecurring))
	for _, s := range subs {
		if len(out) == maxRecurring {
			break
		}
		out = append(out, RecurringCharge{
			Label:       label(s.Merchant, maxLabelRunes),
			MonthlyCost: numsafe.Round(s.MonthlyCost, 2, 0),
			Usage:       string(s.UsageEstimate),
		})
	}
	return out
}

func hasBehavioralData(b report.BehavioralInsights) bool {
	return numsafe.Number(b.AvgDailySpend, 0) > 0 ||
		numsafe.Number(b.ImpulseSpendEstimate, 0) > 0 ||
		len(b.TopImpulseMerchants) > 0
}

// validationIssues describes what the validator found without quoting any
// value. Violation messages are index-based so they are passed through.
func validationIssues(v validation.Result) []string {
	out := []string{}
	for _, section := range v.FailedSections {
		out = append(out, fmt.Sprintf("section %s failed schema checks and was repaired", section))
	}
	for _, viol := range v.InvariantViolations {
		out = append(out, fmt.Sprintf("%s: %s", viol.Severity, viol.Message))
	}
	if len(out) > maxIssues {
		out = out[:maxIssues]
	}
	return out
}

// label redacts s, dates included, and cuts it to n runes.
func label(s string, n int) string {
	clean := strings.Join(strings.Fields(redact.Label(s)), " ")
	if clean == "" {
		return "Unknown"
	}
	runes := []rune(clean)
	if len(runes) > n {
		clean = strings.TrimSpace(string(runes[:n]))
	}
	return clean
}
