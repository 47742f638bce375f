package report

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"spendreport-backend/internal/analysis"
)

var subscriptionCountPattern = regexp.MustCompile(`(?i)\b\d+\s+subscriptions?\b`)

func fixedGenerator() *Generator {
	return &Generator{Now: func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }}
}

func nanAmount() analysis.Amount { return analysis.Amount(math.NaN()) }

func poisonResult() analysis.Result {
	nan := nanAmount()
	inf := analysis.Amount(math.Inf(1))
	return analysis.Result{
		MonthlyLeak:   nan,
		AnnualSavings: inf,
		TopLeaks:      []analysis.Leak{{MonthlyCost: nan, YearlyCost: nan}},
		TopSpending:   []analysis.Transaction{{Amount: nan}, {Merchant: "NaN", Amount: inf}},
		EasyWins:      []analysis.EasyWin{{EstimatedYearlySavings: nan}},
		CategorySummary: []analysis.CategoryTotal{{
			Total:            nan,
			Percent:          nan,
			TransactionCount: inf,
			TopMerchants:     []analysis.MerchantTotal{{Name: "undefined", Total: nan}},
		}},
		Subscriptions: []analysis.Subscription{{
			MonthlyCost: nan,
			AnnualCost:  nan,
			Confidence:  nan,
			Occurrences: inf,
		}},
		Comparison: &analysis.Comparison{
			PreviousTotal:      nan,
			CurrentTotal:       nan,
			TotalChange:        nan,
			TotalChangePercent: nan,
			TopChanges:         []analysis.CategoryChange{{ChangePercent: nan}},
			MonthsAnalyzed:     nan.Ptr(),
		},
		Alternatives: []analysis.Alternative{{
			Merchant:               "",
			Alternative:            "Infinity Plan",
			CurrentMonthlyCost:     nan,
			AlternativeMonthlyCost: inf,
			EstimatedYearlySavings: nan,
		}},
		PriceIncreases:         []analysis.PriceIncrease{{OldAmount: nan, NewAmount: nan, IncreasePercent: nan}},
		DuplicateSubscriptions: []analysis.DuplicateGroup{{CombinedMonthlyCost: nan}},
	}
}

func assertReportProperties(t *testing.T, r ProReportData) {
	t.Helper()
	if unsafe := FindUnsafeValues(r); len(unsafe) != 0 {
		t.Fatalf("report carries unsafe values at %v", unsafe)
	}
	if _, err := json.Marshal(r); err != nil {
		t.Fatalf("report should marshal: %v", err)
	}
	s := r.ExecutiveSummary
	if s.HealthScore < 0 || s.HealthScore > 100 {
		t.Fatalf("health score out of bounds: %v", s.HealthScore)
	}
	if s.HealthLabel != HealthLabelFor(s.HealthScore) {
		t.Fatalf("label %q does not match score %v", s.HealthLabel, s.HealthScore)
	}
	p := r.SavingsProjection
	if !(p.Month3 <= p.Month6 && p.Month6 <= p.Month12) {
		t.Fatalf("projection not monotonic: %+v", p)
	}
	priorities := make([]int, 0, len(r.ActionPlan))
	for _, a := range r.ActionPlan {
		priorities = append(priorities, a.Priority)
	}
	sort.Ints(priorities)
	for i, p := range priorities {
		if p != i+1 {
			t.Fatalf("priorities not contiguous: %v", priorities)
		}
	}
	if r.Period.Start > r.Period.End {
		t.Fatalf("period start after end: %+v", r.Period)
	}
	if strings.Contains(s.Paragraph, "$NaN") || strings.Contains(s.Paragraph, "$undefined") {
		t.Fatalf("paragraph has invalid currency: %q", s.Paragraph)
	}
}

func TestGenerateMinimalInput(t *testing.T) {
	r, warnings := fixedGenerator().GenerateWithWarnings(analysis.Result{})
	assertReportProperties(t, r)

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings for empty input, got %+v", warnings)
	}
	if len(r.MonthlyTrends) != 0 || len(r.SubscriptionInsights) != 0 || len(r.ActionPlan) != 0 || len(r.CategoryDeepDives) != 0 {
		t.Fatalf("expected empty list sections, got %+v", r)
	}
	if len(r.Evidence.SubscriptionTransactions) != 0 || len(r.Evidence.Top50Transactions) != 0 {
		t.Fatalf("expected empty evidence")
	}
	if r.Period.Start != "2024-07-01" || r.Period.End != "2025-06-15" {
		t.Fatalf("expected trailing twelve month period, got %+v", r.Period)
	}
	if r.ExecutiveSummary.HealthScore != 100 || r.ExecutiveSummary.HealthLabel != HealthExcellent {
		t.Fatalf("expected perfect score, got %+v", r.ExecutiveSummary)
	}
	if r.ExecutiveSummary.Headline == "" || r.ExecutiveSummary.Paragraph == "" {
		t.Fatalf("expected narrative text")
	}
	if r.BehavioralInsights.PeakSpendingDay != "Not enough data" {
		t.Fatalf("unexpected peak day %q", r.BehavioralInsights.PeakSpendingDay)
	}
}

func TestGeneratePoisonInput(t *testing.T) {
	r, warnings := fixedGenerator().GenerateWithWarnings(poisonResult())
	assertReportProperties(t, r)

	if len(warnings) == 0 {
		t.Fatalf("expected numeric warnings for poison input")
	}
	if len(r.SubscriptionInsights) != 1 || r.SubscriptionInsights[0].Merchant != "Unknown" {
		t.Fatalf("expected fallback merchant, got %+v", r.SubscriptionInsights)
	}
	if got := r.Evidence.Top50Transactions[1].Merchant; got != "Unknown" {
		t.Fatalf("expected NaN merchant replaced, got %q", got)
	}
}

func TestGenerateSparseInput(t *testing.T) {
	res := analysis.Result{
		TopSpending: []analysis.Transaction{
			{Date: "2024-03-05", Merchant: "Corner Grocer", Amount: 42.10, Category: "Groceries"},
			{Date: "2024-03-12", Merchant: "Corner Grocer", Amount: 77.90, Category: "Groceries"},
		},
		CategorySummary: []analysis.CategoryTotal{
			{Category: "Groceries", Total: 120, Percent: 100, TransactionCount: 2},
		},
	}
	r := fixedGenerator().Generate(res)
	assertReportProperties(t, r)

	if len(r.SubscriptionInsights) != 0 {
		t.Fatalf("expected no subscription insights")
	}
	if subscriptionCountPattern.MatchString(r.ExecutiveSummary.Paragraph) {
		t.Fatalf("paragraph narrates a subscription count: %q", r.ExecutiveSummary.Paragraph)
	}
	if r.Period.Start != "2024-03-05" || r.Period.End != "2024-03-12" {
		t.Fatalf("unexpected period %+v", r.Period)
	}
	if len(r.MonthlyTrends) != 1 || r.MonthlyTrends[0].Month != "2024-03" {
		t.Fatalf("expected a single trend month, got %+v", r.MonthlyTrends)
	}
	if r.BehavioralInsights.PeakSpendingDay != "Tuesday" {
		t.Fatalf("expected Tuesday, got %q", r.BehavioralInsights.PeakSpendingDay)
	}
}

func TestPeriodAndMonthlyTrends(t *testing.T) {
	three := analysis.Amount(3)
	res := analysis.Result{
		TopSpending: []analysis.Transaction{
			{Date: "2024-01-15", Merchant: "A", Amount: 10, Category: "Shopping"},
			{Date: "2024-03-02", Merchant: "B", Amount: 20, Category: "Shopping"},
		},
		Subscriptions: []analysis.Subscription{
			{Merchant: "Netflix", MonthlyCost: 15, Confidence: 0.95, Occurrences: 12, LastDate: "2024-04-10"},
		},
		CategorySummary: []analysis.CategoryTotal{{Category: "Shopping", Total: 300, Percent: 100, TransactionCount: 3}},
		Comparison: &analysis.Comparison{
			PreviousMonth:  "2024-02",
			CurrentMonth:   "2024-03",
			PreviousTotal:  250,
			CurrentTotal:   500,
			MonthsAnalyzed: &three,
		},
	}
	r := fixedGenerator().Generate(res)

	if r.Period.Start != "2024-01-15" || r.Period.End != "2024-04-10" {
		t.Fatalf("unexpected period %+v", r.Period)
	}
	if len(r.MonthlyTrends) != 3 {
		t.Fatalf("expected months capped to 3, got %d", len(r.MonthlyTrends))
	}
	want := []struct {
		month string
		total float64
	}{
		{"2024-01", 95},
		{"2024-02", 250},
		{"2024-03", 500},
	}
	for i, w := range want {
		got := r.MonthlyTrends[i]
		if got.Month != w.month || got.TotalSpend != w.total {
			t.Fatalf("trend %d = %+v, want %s/%v", i, got, w.month, w.total)
		}
	}
	if r.MonthlyTrends[2].ByCategory["Shopping"] != 105 {
		t.Fatalf("expected oscillated category share 105, got %v", r.MonthlyTrends[2].ByCategory)
	}
	if r.BehavioralInsights.PeakSpendingDay != "Monday" {
		t.Fatalf("expected tie broken to Monday, got %q", r.BehavioralInsights.PeakSpendingDay)
	}
	if r.BehavioralInsights.AvgDailySpend != 3.33 {
		t.Fatalf("expected avg daily 3.33, got %v", r.BehavioralInsights.AvgDailySpend)
	}
	if got := len(r.Evidence.SubscriptionTransactions); got != 12 {
		t.Fatalf("expected 12 reconstructed charges, got %d", got)
	}
	if r.Evidence.SubscriptionTransactions[1].Date != "2024-03-10" {
		t.Fatalf("unexpected charge date %q", r.Evidence.SubscriptionTransactions[1].Date)
	}
}

func TestMonthsAnalyzedHugeHintDoesNotCap(t *testing.T) {
	huge := analysis.Amount(1e20)
	res := analysis.Result{
		TopSpending: []analysis.Transaction{
			{Date: "2024-01-10", Merchant: "A", Amount: 10, Category: "Shopping"},
			{Date: "2024-12-10", Merchant: "B", Amount: 20, Category: "Shopping"},
		},
		CategorySummary: []analysis.CategoryTotal{{Category: "Shopping", Total: 1200, Percent: 100, TransactionCount: 2}},
		Comparison:      &analysis.Comparison{MonthsAnalyzed: &huge},
	}
	r := fixedGenerator().Generate(res)
	if len(r.MonthlyTrends) != 12 {
		t.Fatalf("expected 12 trend months, got %d", len(r.MonthlyTrends))
	}
}

func TestSubscriptionROI(t *testing.T) {
	res := analysis.Result{
		Subscriptions: []analysis.Subscription{
			{Merchant: "Netflix", MonthlyCost: 15, Confidence: 0.95, Occurrences: 12},
			{Merchant: "Gym", MonthlyCost: 60, Confidence: 0.85, Occurrences: 3},
			{Merchant: "Cloud", MonthlyCost: 10, Confidence: 0.85, Occurrences: 7},
			{Merchant: "News", MonthlyCost: 15, Confidence: 0.5, Occurrences: 8},
		},
	}
	r := fixedGenerator().Generate(res)

	want := map[string]struct {
		usage UsageEstimate
		roi   ROILabel
	}{
		"Netflix": {UsageHigh, ROIGoodValue},
		"Gym":     {UsageLow, ROIConsiderCancelling},
		"Cloud":   {UsageMedium, ROIReviewUsage},
		"News":    {UsageUnknown, ROIReviewUsage},
	}
	if len(r.SubscriptionInsights) != len(want) {
		t.Fatalf("expected %d insights, got %d", len(want), len(r.SubscriptionInsights))
	}
	for _, s := range r.SubscriptionInsights {
		w, ok := want[s.Merchant]
		if !ok {
			t.Fatalf("unexpected merchant %q", s.Merchant)
		}
		if s.UsageEstimate != w.usage || s.ROILabel != w.roi {
			t.Fatalf("%s: got %s/%s, want %s/%s", s.Merchant, s.UsageEstimate, s.ROILabel, w.usage, w.roi)
		}
		if s.AnnualCost != s.MonthlyCost*12 {
			t.Fatalf("%s: annual %v != monthly*12", s.Merchant, s.AnnualCost)
		}
		if !strings.Contains(s.Recommendation, s.Merchant) || !strings.Contains(s.Recommendation, "$") {
			t.Fatalf("%s: recommendation lacks merchant or amount: %q", s.Merchant, s.Recommendation)
		}
	}
	if r.SubscriptionInsights[0].Merchant != "Gym" {
		t.Fatalf("expected most expensive subscription first, got %q", r.SubscriptionInsights[0].Merchant)
	}
	if !strings.Contains(r.ExecutiveSummary.Paragraph, "4 recurring subscriptions") {
		t.Fatalf("expected subscription count narrated, got %q", r.ExecutiveSummary.Paragraph)
	}
}

func TestActionPlanAndProjection(t *testing.T) {
	res := analysis.Result{
		EasyWins: []analysis.EasyWin{
			{Title: "Cancel Hulu", EstimatedYearlySavings: 120, Action: "Cancel it"},
			{Title: "Reduce delivery orders", EstimatedYearlySavings: 600, Action: "Set a weekly delivery budget"},
			{Title: "Negotiate internet bill", EstimatedYearlySavings: 240, Action: "Call the provider to negotiate"},
			{Title: "switch from spotify to youtube music", EstimatedYearlySavings: 30},
		},
		Alternatives: []analysis.Alternative{
			{Merchant: "Spotify", Alternative: "YouTube Music", CurrentMonthlyCost: 12, AlternativeMonthlyCost: 8, EstimatedYearlySavings: nanAmount()},
		},
	}
	r := fixedGenerator().Generate(res)
	assertReportProperties(t, r)

	want := []struct {
		title      string
		monthly    float64
		difficulty Difficulty
		timeframe  Timeframe
	}{
		{"Reduce delivery orders", 50, DifficultyMedium, TimeframeMonth},
		{"Negotiate internet bill", 20, DifficultyHard, TimeframeQuarter},
		{"Cancel Hulu", 10, DifficultyEasy, TimeframeWeek},
		{"switch from spotify to youtube music", 2.5, DifficultyEasy, TimeframeWeek},
	}
	if len(r.ActionPlan) != len(want) {
		t.Fatalf("expected %d actions after dedupe, got %+v", len(want), r.ActionPlan)
	}
	for i, w := range want {
		a := r.ActionPlan[i]
		if a.Priority != i+1 || a.Title != w.title || a.EstimatedMonthlySavings != w.monthly ||
			a.Difficulty != w.difficulty || a.Timeframe != w.timeframe {
			t.Fatalf("action %d = %+v, want %+v", i, a, w)
		}
	}
	if r.ActionPlan[0].Category != "Food & Dining" {
		t.Fatalf("expected inferred category, got %q", r.ActionPlan[0].Category)
	}

	p := r.SavingsProjection
	if p.Month3 != 137.5 || p.Month6 != 385 || p.Month12 != 880 {
		t.Fatalf("unexpected projection %+v", p)
	}
	if len(p.Assumptions) == 0 {
		t.Fatalf("expected projection assumptions")
	}
}

func TestActionPlanKeepsSameTitledEasyWins(t *testing.T) {
	res := analysis.Result{
		EasyWins: []analysis.EasyWin{
			{Title: "Cancel unused membership", EstimatedYearlySavings: 120, Action: "Cancel the gym"},
			{Title: "Cancel unused membership", EstimatedYearlySavings: 240, Action: "Cancel the club"},
		},
	}
	r := fixedGenerator().Generate(res)
	if len(r.ActionPlan) != 2 {
		t.Fatalf("expected one action per easy win, got %+v", r.ActionPlan)
	}
	if r.ActionPlan[0].EstimatedYearlySavings != 240 || r.ActionPlan[1].EstimatedYearlySavings != 120 {
		t.Fatalf("unexpected actions %+v", r.ActionPlan)
	}
}

func TestProjectionMonotonicWithHugeSavings(t *testing.T) {
	res := analysis.Result{
		EasyWins: []analysis.EasyWin{
			{Title: "Cancel plan A", EstimatedYearlySavings: 1.7e308, Action: "Cancel it"},
			{Title: "Cancel plan B", EstimatedYearlySavings: 1.7e308, Action: "Cancel it"},
		},
	}
	p := fixedGenerator().Generate(res).SavingsProjection
	for _, v := range []float64{p.Month3, p.Month6, p.Month12} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite projection %+v", p)
		}
	}
	if !(p.Month3 <= p.Month6 && p.Month6 <= p.Month12) {
		t.Fatalf("projection not monotonic: %+v", p)
	}
}

func TestAlternativeSavingsDerivedFromCosts(t *testing.T) {
	res := analysis.Result{
		Alternatives: []analysis.Alternative{
			{Merchant: "Spotify", Alternative: "YouTube Music", CurrentMonthlyCost: 12, AlternativeMonthlyCost: 8, EstimatedYearlySavings: nanAmount()},
			{Merchant: "Gym", Alternative: "", CurrentMonthlyCost: 50},
		},
	}
	r := fixedGenerator().Generate(res)
	if len(r.ActionPlan) != 1 {
		t.Fatalf("expected alternative without replacement skipped, got %+v", r.ActionPlan)
	}
	a := r.ActionPlan[0]
	if a.Title != "Switch from Spotify to YouTube Music" || a.EstimatedYearlySavings != 48 || a.EstimatedMonthlySavings != 4 {
		t.Fatalf("unexpected action %+v", a)
	}
}

func TestHealthScoreDeductions(t *testing.T) {
	subs := make([]analysis.Subscription, 9)
	for i := range subs {
		subs[i] = analysis.Subscription{Merchant: "Sub", MonthlyCost: 10, Confidence: 0.5, Occurrences: 1}
	}
	res := analysis.Result{
		MonthlyLeak:   450,
		Subscriptions: subs,
		CategorySummary: []analysis.CategoryTotal{
			{Category: "Bank Fees", Total: 300, Percent: 10, TransactionCount: 5},
			{Category: "Food Delivery", Total: 1000, Percent: 35, TransactionCount: 20},
		},
		PriceIncreases:         []analysis.PriceIncrease{{Merchant: "Netflix", OldAmount: 12, NewAmount: 15}},
		DuplicateSubscriptions: []analysis.DuplicateGroup{{Category: "Streaming", Merchants: []string{"A", "B"}}},
	}
	r := fixedGenerator().Generate(res)

	// 100 - 12 - 5 (subscriptions) - 10 (fees) - 10 (delivery) - 10 (leak) - 2 - 3
	if r.ExecutiveSummary.HealthScore != 48 {
		t.Fatalf("expected score 48, got %v", r.ExecutiveSummary.HealthScore)
	}
	if r.ExecutiveSummary.HealthLabel != HealthFair {
		t.Fatalf("expected Fair, got %s", r.ExecutiveSummary.HealthLabel)
	}
}

func TestHealthScoreNeverBelowZero(t *testing.T) {
	subs := make([]analysis.Subscription, 60)
	for i := range subs {
		subs[i] = analysis.Subscription{Merchant: "Sub", MonthlyCost: 10}
	}
	r := fixedGenerator().Generate(analysis.Result{MonthlyLeak: 5000, Subscriptions: subs})
	if r.ExecutiveSummary.HealthScore != 0 || r.ExecutiveSummary.HealthLabel != HealthNeedsAttention {
		t.Fatalf("expected clamped score 0, got %+v", r.ExecutiveSummary)
	}
}

func TestHealthLabelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  HealthLabel
	}{
		{0, HealthNeedsAttention},
		{39.9, HealthNeedsAttention},
		{40, HealthFair},
		{59, HealthFair},
		{60, HealthGood},
		{79, HealthGood},
		{80, HealthExcellent},
		{100, HealthExcellent},
		{math.NaN(), HealthNeedsAttention},
		{math.Inf(1), HealthNeedsAttention},
	}
	for _, tt := range tests {
		if got := HealthLabelFor(tt.score); got != tt.want {
			t.Fatalf("HealthLabelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestCategoryDeepDiveTrend(t *testing.T) {
	res := analysis.Result{
		CategorySummary: []analysis.CategoryTotal{
			{Category: "Dining", Total: 600, Percent: 60, TransactionCount: 30},
			{Category: "Travel", Total: 400, Percent: 40, TransactionCount: 4},
		},
		Comparison: &analysis.Comparison{
			PreviousMonth: "2024-01",
			CurrentMonth:  "2024-02",
			TopChanges: []analysis.CategoryChange{
				{Category: "dining", ChangePercent: 12.34},
				{Category: "Travel", ChangePercent: -3},
			},
		},
	}
	r := fixedGenerator().Generate(res)
	if len(r.CategoryDeepDives) != 2 {
		t.Fatalf("expected two deep dives")
	}
	dining := r.CategoryDeepDives[0]
	if dining.Trend != TrendIncreasing || dining.TrendPercent != 12.3 {
		t.Fatalf("unexpected dining trend %+v", dining)
	}
	if !strings.Contains(dining.Insight, "largest") {
		t.Fatalf("expected largest category framing, got %q", dining.Insight)
	}
	if r.CategoryDeepDives[1].Trend != TrendStable {
		t.Fatalf("expected stable travel trend")
	}
	if dining.MonthlyAverage != 300 {
		t.Fatalf("expected monthly average 300 over 2 months, got %v", dining.MonthlyAverage)
	}
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	res := poisonResult()
	before, _ := json.Marshal(res)
	_ = fixedGenerator().Generate(res)
	after, _ := json.Marshal(res)
	if string(before) != string(after) {
		t.Fatalf("input was mutated")
	}
}

func TestConcurrentRunsKeepWarningsSeparate(t *testing.T) {
	g := fixedGenerator()
	var wg sync.WaitGroup
	clean := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.GenerateWithWarnings(poisonResult())
		}()
		go func(i int) {
			defer wg.Done()
			_, w := g.GenerateWithWarnings(analysis.Result{})
			clean[i] = len(w)
		}(i)
	}
	wg.Wait()
	for i, n := range clean {
		if n != 0 {
			t.Fatalf("run %d saw %d foreign warnings", i, n)
		}
	}
}

func TestNewGeneratorOverridesThresholds(t *testing.T) {
	g := NewGenerator(Thresholds{HighUsageOccurrences: 2})
	g.Now = fixedGenerator().Now
	r := g.Generate(analysis.Result{
		Subscriptions: []analysis.Subscription{{Merchant: "Netflix", MonthlyCost: 15, Confidence: 0.95, Occurrences: 3}},
	})
	if r.SubscriptionInsights[0].UsageEstimate != UsageHigh {
		t.Fatalf("expected override to classify as High, got %s", r.SubscriptionInsights[0].UsageEstimate)
	}
}
