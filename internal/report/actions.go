package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"spendreport-backend/internal/numsafe"
)

var (
	easyKeywords   = []string{"cancel", "switch", "open"}
	mediumKeywords = []string{"reduce", "budget", "track", "audit"}
	hardKeywords   = []string{"negotiate", "refinance", "renegotiate"}
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Subscriptions", []string{"subscription", "streaming", "membership", "gym"}},
	{"Food & Dining", []string{"delivery", "takeout", "dining", "meal", "restaurant"}},
	{"Fees & Charges", []string{"fee", "atm", "bank", "overdraft"}},
	{"Shopping", []string{"convenience", "snack", "shopping", "bulk"}},
}

func (r *run) actionPlan() []Action {
	actions := make([]Action, 0, len(r.res.EasyWins)+len(r.res.Alternatives))
	seen := map[string]bool{}
	add := func(a Action) {
		seen[strings.ToLower(a.Title)] = true
		actions = append(actions, a)
	}

	for i, win := range r.res.EasyWins {
		yearly := numsafe.Round(r.w.NonNegative(win.EstimatedYearlySavings, 0, fmt.Sprintf("easy_wins[%d].estimated_yearly_savings", i)), 2, 0)
		title := text(win.Title, "Savings opportunity")
		desc := text(win.Action, title)
		add(newAction(title, desc, yearly, inferCategory(title+" "+desc, "General")))
	}

	for i, alt := range r.res.Alternatives {
		if strings.TrimSpace(alt.Alternative) == "" {
			continue
		}
		replacement := text(alt.Alternative, "a cheaper option")
		field := fmt.Sprintf("alternatives[%d]", i)
		merchant := text(alt.Merchant, "your current provider")
		current := r.w.NonNegative(alt.CurrentMonthlyCost, 0, field+".current_monthly_cost")
		cheaper := r.w.NonNegative(alt.AlternativeMonthlyCost, 0, field+".alternative_monthly_cost")
		yearly := numsafe.Number(alt.EstimatedYearlySavings, -1)
		if yearly < 0 {
			yearly = math.Max((current-cheaper)*12, 0)
		}
		title := fmt.Sprintf("Switch from %s to %s", merchant, replacement)
		// Easy wins always get their own action; an alternative already
		// covered by a title is skipped.
		if seen[strings.ToLower(title)] {
			continue
		}
		desc := text(alt.Note, fmt.Sprintf("Replace %s (%s/month) with %s (%s/month).",
			merchant, numsafe.Currency(current, 2), replacement, numsafe.Currency(cheaper, 2)))
		add(newAction(title, desc, numsafe.Round(yearly, 2, 0), inferCategory(title+" "+desc, text(alt.Category, "General"))))
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return sortable(actions[i].EstimatedYearlySavings) > sortable(actions[j].EstimatedYearlySavings)
	})
	for i := range actions {
		actions[i].Priority = i + 1
	}
	return actions
}

func newAction(title, desc string, yearly float64, category string) Action {
	difficulty := inferDifficulty(title + " " + desc)
	return Action{
		Title:                   title,
		Description:             desc,
		EstimatedMonthlySavings: numsafe.Round(numsafe.Divide(yearly, 12, 0), 2, 0),
		EstimatedYearlySavings:  yearly,
		Difficulty:              difficulty,
		Timeframe:               timeframeFor(difficulty),
		Category:                category,
	}
}

func sortable(v float64) float64 {
	if !numsafe.IsFinite(v) {
		return 0
	}
	return v
}

func inferDifficulty(s string) Difficulty {
	lower := strings.ToLower(s)
	switch {
	case containsAny(lower, easyKeywords):
		return DifficultyEasy
	case containsAny(lower, mediumKeywords):
		return DifficultyMedium
	case containsAny(lower, hardKeywords):
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func timeframeFor(d Difficulty) Timeframe {
	switch d {
	case DifficultyEasy:
		return TimeframeWeek
	case DifficultyHard:
		return TimeframeQuarter
	default:
		return TimeframeMonth
	}
}

func inferCategory(s, fallback string) string {
	lower := strings.ToLower(s)
	for _, c := range categoryKeywords {
		if containsAny(lower, c.words) {
			return c.category
		}
	}
	return fallback
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// savingsProjection models staggered adoption: quick wins land first,
// longer efforts later. The weights keep month_3 <= month_6 <= month_12.
func (r *run) savingsProjection(actions []Action) SavingsProjection {
	var week, month, quarter float64
	for _, a := range actions {
		v := sortable(a.EstimatedMonthlySavings)
		switch a.Timeframe {
		case TimeframeWeek:
			week += v
		case TimeframeMonth:
			month += v
		default:
			quarter += v
		}
	}
	// Sums of huge savings can overflow to +Inf, which rounds to the
	// fallback 0; carrying the previous horizon forward keeps the order.
	m3 := numsafe.Round(week*3+month*2, 2, 0)
	m6 := math.Max(m3, numsafe.Round(week*6+month*5+quarter*3, 2, 0))
	m12 := math.Max(m6, numsafe.Round(week*12+month*11+quarter*9, 2, 0))
	return SavingsProjection{
		Month3:  m3,
		Month6:  m6,
		Month12: m12,
		Assumptions: []string{
			"Quick wins are completed within the first week.",
			"Monthly changes take effect from the second month.",
			"Longer-term changes take effect after three months.",
			"Savings assume current spending patterns continue.",
		},
	}
}
