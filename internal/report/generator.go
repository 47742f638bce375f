package report

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/numsafe"
)

// Generator derives reports using a set of tuning thresholds. The zero value
// uses DefaultThresholds and the wall clock.
type Generator struct {
	Thresholds Thresholds
	Now        func() time.Time
}

// NewGenerator returns a generator with t merged over the defaults.
func NewGenerator(t Thresholds) *Generator {
	return &Generator{Thresholds: t.Merge()}
}

var defaultGenerator = &Generator{}

// Generate derives a report from res using the default thresholds.
func Generate(res analysis.Result) ProReportData {
	return defaultGenerator.Generate(res)
}

// GenerateWithWarnings is Generate plus the numeric warnings recorded while
// deriving the report.
func GenerateWithWarnings(res analysis.Result) (ProReportData, []numsafe.Warning) {
	return defaultGenerator.GenerateWithWarnings(res)
}

// Generate derives a report from res.
func (g *Generator) Generate(res analysis.Result) ProReportData {
	out, _ := g.GenerateWithWarnings(res)
	return out
}

// GenerateWithWarnings derives a report from res and returns the warnings
// recorded during this run only.
func (g *Generator) GenerateWithWarnings(res analysis.Result) (ProReportData, []numsafe.Warning) {
	r := g.newRun(res)

	period := r.derivePeriod()
	subs := r.subscriptionInsights()
	actions := r.actionPlan()
	deepDives := r.categoryDeepDives()
	score := r.healthScore()

	out := ProReportData{
		GeneratedAt:          r.now.UTC().Format(time.RFC3339),
		Period:               period,
		MonthlyTrends:        r.monthlyTrends(),
		SubscriptionInsights: subs,
		SavingsProjection:    r.savingsProjection(actions),
		ActionPlan:           actions,
		BehavioralInsights:   r.behavioralInsights(),
		CategoryDeepDives:    deepDives,
		Evidence:             r.evidence(),
	}
	out.ExecutiveSummary = r.executiveSummary(score, subs, deepDives)
	return out, r.w.Warnings()
}

func (g *Generator) newRun(res analysis.Result) *run {
	t := DefaultThresholds()
	now := time.Now()
	if g != nil {
		if !reflect.ValueOf(g.Thresholds).IsZero() {
			t = g.Thresholds.Merge()
		}
		if g.Now != nil {
			now = g.Now()
		}
	}
	r := &run{
		t:   t,
		w:   numsafe.NewTracker(),
		now: now,
		res: res,
	}
	r.categories = r.readCategories()
	r.subs = r.readSubscriptions()
	r.monthlyLeak = r.readMonthlyLeak()
	return r
}

// run holds the per-invocation state of one generation. Derivations read the
// sanitized views rather than the raw input.
type run struct {
	t   Thresholds
	w   *numsafe.Tracker
	now time.Time
	res analysis.Result

	categories  []category
	subs        []subscription
	monthlyLeak float64

	start, end time.Time
	hasDates   bool
	monthCount int
}

type category struct {
	name      string
	total     float64
	percent   float64
	count     float64
	merchants []MerchantSpend
}

type subscription struct {
	merchant    string
	monthly     float64
	confidence  float64
	occurrences float64
	lastDate    string
}

func (r *run) readCategories() []category {
	out := make([]category, 0, len(r.res.CategorySummary))
	var grand float64
	for i, c := range r.res.CategorySummary {
		field := fmt.Sprintf("category_summary[%d]", i)
		cat := category{
			name:  text(c.Category, "Other"),
			total: numsafe.Round(r.w.NonNegative(c.Total, 0, field+".total"), 2, 0),
			count: r.w.NonNegative(c.TransactionCount, 0, field+".transaction_count"),
		}
		cat.percent = r.w.Number(c.Percent, -1, field+".percent")
		for j, m := range c.TopMerchants {
			cat.merchants = append(cat.merchants, MerchantSpend{
				Name:  text(m.Name, "Unknown"),
				Total: numsafe.Round(r.w.NonNegative(m.Total, 0, fmt.Sprintf("%s.top_merchants[%d].total", field, j)), 2, 0),
			})
		}
		grand += cat.total
		out = append(out, cat)
	}
	for i := range out {
		if out[i].percent < 0 {
			out[i].percent = numsafe.Percent(out[i].total, grand, 0)
		}
		out[i].percent = numsafe.Round(numsafe.Clamp(out[i].percent, 0, 100), 1, 0)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].total > out[j].total })
	return out
}

func (r *run) readSubscriptions() []subscription {
	out := make([]subscription, 0, len(r.res.Subscriptions))
	for i, s := range r.res.Subscriptions {
		field := fmt.Sprintf("subscriptions[%d]", i)
		monthly := r.w.NonNegative(s.MonthlyCost, 0, field+".monthly_cost")
		if annual := numsafe.Number(s.AnnualCost, 0); monthly == 0 && annual > 0 {
			monthly = annual / 12
		}
		out = append(out, subscription{
			merchant:    text(s.Merchant, "Unknown"),
			monthly:     numsafe.Round(monthly, 2, 0),
			confidence:  r.w.InRange(s.Confidence, 0, 1, field+".confidence"),
			occurrences: r.w.NonNegative(s.Occurrences, 0, field+".occurrences"),
			lastDate:    s.LastDate,
		})
	}
	return out
}

func (r *run) readMonthlyLeak() float64 {
	leak := r.w.NonNegative(r.res.MonthlyLeak, 0, "monthly_leak")
	if leak == 0 {
		for i, l := range r.res.TopLeaks {
			leak += r.w.NonNegative(l.MonthlyCost, 0, fmt.Sprintf("top_leaks[%d].monthly_cost", i))
		}
	}
	return numsafe.Round(leak, 2, 0)
}

func (r *run) totalSpend() float64 {
	var total float64
	for _, c := range r.categories {
		total += c.total
	}
	return total
}

func (r *run) annualSavings() float64 {
	annual := numsafe.Number(r.res.AnnualSavings, 0)
	if annual <= 0 {
		annual = r.monthlyLeak * 12
	}
	return numsafe.Round(annual, 2, 0)
}

var forbiddenText = []string{"NaN", "undefined", "Infinity"}

// text returns a trimmed upstream string, or fallback when it is blank or
// carries a non-finite artifact.
func text(value, fallback string) string {
	s := numsafe.String(value, fallback)
	if containsForbidden(s) {
		return fallback
	}
	return s
}

func containsForbidden(s string) bool {
	for _, f := range forbiddenText {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
