package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"spendreport-backend/internal/report"
)

// Severity of an invariant violation. Only errors make a report invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a contradiction between fields. Messages never carry dates
// or merchant names.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s (%s): %s", v.Rule, v.Severity, v.Message)
}

const (
	RuleNoPhantomSubscriptions   = "no_phantom_subscriptions"
	RuleProjectionMonotonic      = "projection_monotonic"
	RuleHealthLabelMatchesScore  = "health_label_matches_score"
	RulePrioritiesContiguous     = "action_priorities_contiguous"
	RuleUniqueTrendMonths        = "unique_trend_months"
	RuleCategoryPercentSum       = "category_percent_sum"
	RuleSubscriptionAnnualCost   = "subscription_annual_cost"
	RuleActionSavingsConsistency = "action_savings_consistency"
	RuleNoInvalidCurrency        = "no_invalid_currency"
	RulePeriodOrdered            = "period_ordered"
)

var subscriptionCount = regexp.MustCompile(`(?i)\b\d+\s+subscriptions?\b`)

const (
	annualTolerance  = 0.01
	annualFloor      = 0.05
	savingsTolerance = 0.15
	savingsFloor     = 1.0
	percentSumMin    = 85
	percentSumMax    = 115
)

// CheckInvariants runs every cross-field check against r.
func CheckInvariants(r report.ProReportData) []Violation {
	out := []Violation{}
	add := func(rule string, sev Severity, format string, args ...any) {
		out = append(out, Violation{Rule: rule, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}
	s := r.ExecutiveSummary

	if len(r.SubscriptionInsights) == 0 && subscriptionCount.MatchString(s.Paragraph) {
		add(RuleNoPhantomSubscriptions, SeverityWarning, "summary mentions a subscription count but no subscriptions are listed")
	}

	p := r.SavingsProjection
	if !(p.Month3 <= p.Month6 && p.Month6 <= p.Month12) {
		add(RuleProjectionMonotonic, SeverityError, "savings projection must not decrease over time")
	}

	if s.HealthLabel != report.HealthLabelFor(s.HealthScore) {
		add(RuleHealthLabelMatchesScore, SeverityError, "health label %q does not match score %.0f", s.HealthLabel, s.HealthScore)
	}

	priorities := make([]int, 0, len(r.ActionPlan))
	for _, a := range r.ActionPlan {
		priorities = append(priorities, a.Priority)
	}
	sort.Ints(priorities)
	for i, pr := range priorities {
		if pr != i+1 {
			add(RulePrioritiesContiguous, SeverityWarning, "action priorities are not a contiguous 1..%d sequence", len(priorities))
			break
		}
	}

	seen := map[string]bool{}
	for _, m := range r.MonthlyTrends {
		if seen[m.Month] {
			add(RuleUniqueTrendMonths, SeverityError, "monthly trends repeat a month")
			break
		}
		seen[m.Month] = true
	}

	if len(r.CategoryDeepDives) > 0 {
		var sum float64
		for _, d := range r.CategoryDeepDives {
			sum += d.Percent
		}
		if sum < percentSumMin || sum > percentSumMax {
			add(RuleCategoryPercentSum, SeverityWarning, "category shares sum to %.1f%%", sum)
		}
	}

	for i, sub := range r.SubscriptionInsights {
		expected := sub.MonthlyCost * 12
		if math.Abs(sub.AnnualCost-expected) > math.Max(expected*annualTolerance, annualFloor) {
			add(RuleSubscriptionAnnualCost, SeverityWarning, "subscription %d annual cost differs from 12x its monthly cost", i+1)
		}
	}

	for i, a := range r.ActionPlan {
		expected := a.EstimatedMonthlySavings * 12
		if math.Abs(a.EstimatedYearlySavings-expected) > math.Max(expected*savingsTolerance, savingsFloor) {
			add(RuleActionSavingsConsistency, SeverityWarning, "action %d yearly savings differ from 12x its monthly savings", i+1)
		}
	}

	for _, text := range []string{s.Headline, s.Paragraph} {
		if strings.Contains(text, "$NaN") || strings.Contains(text, "$undefined") {
			add(RuleNoInvalidCurrency, SeverityError, "executive summary contains an invalid currency amount")
			break
		}
	}

	if r.Period.Start > r.Period.End {
		add(RulePeriodOrdered, SeverityError, "period start is after period end")
	}

	return out
}
