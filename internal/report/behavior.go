package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"spendreport-backend/internal/numsafe"
)

const weeksPerMonth = 4.33

func (r *run) behavioralInsights() BehavioralInsights {
	mc := float64(r.monthCount)
	total := r.totalSpend()

	var impulse float64
	merchants := []string{}
	seen := map[string]bool{}
	for _, c := range r.categories {
		if c.count <= mc*r.t.ImpulseTransactionsPerMonth {
			continue
		}
		avgTicket := r.w.Divide(c.total, c.count, 0, "behavioral_insights."+c.name+".average_ticket")
		if avgTicket >= r.t.ImpulseAverageTicket {
			continue
		}
		impulse += c.total
		for _, m := range c.merchants {
			if len(merchants) >= r.t.MaxImpulseMerchants {
				break
			}
			if !seen[m.Name] {
				seen[m.Name] = true
				merchants = append(merchants, m.Name)
			}
		}
	}

	return BehavioralInsights{
		PeakSpendingDay:      r.peakSpendingDay(),
		AvgDailySpend:        numsafe.Round(r.w.Divide(total, mc*30, 0, "behavioral_insights.avg_daily_spend"), 2, 0),
		AvgWeeklySpend:       numsafe.Round(r.w.Divide(total, mc*weeksPerMonth, 0, "behavioral_insights.avg_weekly_spend"), 2, 0),
		ImpulseSpendEstimate: numsafe.Round(impulse, 2, 0),
		TopImpulseMerchants:  merchants,
		SpendingVelocity:     r.spendingVelocity(),
	}
}

func (r *run) peakSpendingDay() string {
	var counts [7]int
	found := false
	for _, t := range r.res.TopSpending {
		d, ok := ParseDate(t.Date)
		if !ok {
			continue
		}
		counts[d.Weekday()]++
		found = true
	}
	if !found {
		return "Not enough data"
	}
	best := time.Sunday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best.String()
}

func (r *run) changePercent() (float64, bool) {
	c := r.res.Comparison
	if c == nil {
		return 0, false
	}
	if pct := c.TotalChangePercent.Float64(); numsafe.IsFinite(pct) {
		return pct, true
	}
	r.w.Number(c.TotalChangePercent, 0, "comparison.total_change_percent")
	prev := numsafe.Number(c.PreviousTotal, 0)
	if prev <= 0 {
		return 0, false
	}
	return numsafe.Percent(numsafe.Number(c.CurrentTotal, 0)-prev, prev, 0), true
}

func (r *run) spendingVelocity() string {
	pct, ok := r.changePercent()
	if !ok {
		return "Not enough history to measure spending velocity."
	}
	switch {
	case pct < r.t.VelocityImprovingPercent:
		return fmt.Sprintf("Spending fell %s%% month over month. Keep it up.", numsafe.Fixed(math.Abs(pct), 1, 0))
	case pct > r.t.VelocityWarningPercent:
		return fmt.Sprintf("Spending rose %s%% month over month. Watch for lifestyle creep.", numsafe.Fixed(pct, 1, 0))
	default:
		return "Spending is consistent month over month."
	}
}

func (r *run) categoryDeepDives() []CategoryDeepDive {
	out := make([]CategoryDeepDive, 0, len(r.categories))
	for _, c := range r.categories {
		trend, trendPct := r.categoryTrend(c.name)
		monthly := numsafe.Round(r.w.Divide(c.total, r.monthCount, 0, "category_deep_dives."+c.name+".monthly_average"), 2, 0)
		merchants := c.merchants
		if len(merchants) > 5 {
			merchants = merchants[:5]
		}
		out = append(out, CategoryDeepDive{
			Category:       c.name,
			Total:          c.total,
			Percent:        c.percent,
			MonthlyAverage: monthly,
			Trend:          trend,
			TrendPercent:   trendPct,
			TopMerchants:   append([]MerchantSpend{}, merchants...),
			Insight:        r.categoryInsight(c, monthly),
			Recommendation: r.categoryRecommendation(c, trend, trendPct, monthly),
		})
	}
	return out
}

func (r *run) categoryTrend(name string) (Trend, float64) {
	c := r.res.Comparison
	if c == nil {
		return TrendStable, 0
	}
	for _, ch := range c.TopChanges {
		if !strings.EqualFold(strings.TrimSpace(ch.Category), name) {
			continue
		}
		pct := numsafe.Round(r.w.Number(ch.ChangePercent, 0, "comparison.top_changes."+name+".change_percent"), 1, 0)
		switch {
		case pct > r.t.TrendChangePercent:
			return TrendIncreasing, pct
		case pct < -r.t.TrendChangePercent:
			return TrendDecreasing, pct
		default:
			return TrendStable, pct
		}
	}
	return TrendStable, 0
}

func (r *run) categoryInsight(c category, monthly float64) string {
	share := numsafe.Fixed(c.percent, 1, 0)
	switch {
	case c.percent > r.t.LargestCategoryShare:
		return fmt.Sprintf("%s is one of your largest categories at %s%% of spending (%s in total).", c.name, share, numsafe.Currency(c.total, 2))
	case c.count > r.t.HighFrequencyTransactions:
		avg := numsafe.Divide(c.total, c.count, 0)
		return fmt.Sprintf("%s is a high frequency category with %d transactions averaging %s.", c.name, int(math.Min(c.count, 1e9)), numsafe.Currency(avg, 2))
	default:
		return fmt.Sprintf("%s accounts for %s%% of spending, about %s per month.", c.name, share, numsafe.Currency(monthly, 2))
	}
}

func (r *run) categoryRecommendation(c category, trend Trend, trendPct, monthly float64) string {
	switch {
	case trend == TrendIncreasing:
		return fmt.Sprintf("Spending on %s rose %s%% recently. Set a monthly cap of %s.", c.name, numsafe.Fixed(trendPct, 1, 0), numsafe.Currency(monthly, 0))
	case trend == TrendDecreasing:
		return fmt.Sprintf("Spending on %s is trending down. Keep the momentum going.", c.name)
	case c.percent > r.t.LargestCategoryShare:
		return fmt.Sprintf("Trimming %s by 10%% would save about %s a year.", c.name, numsafe.Currency(monthly*12*0.1, 0))
	default:
		return fmt.Sprintf("Keep %s near its current %s monthly average.", c.name, numsafe.Currency(monthly, 0))
	}
}
