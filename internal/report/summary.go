package report

import (
	"fmt"
	"math"
	"strings"

	"spendreport-backend/internal/numsafe"
)

var diningWords = []string{"delivery", "dining", "takeout", "restaurant"}

// healthScore starts at 100 and deducts for subscription sprawl, fees,
// heavy dining share, leak size, price increases and duplicate services.
func (r *run) healthScore() float64 {
	t := r.t
	score := 100.0

	subs := float64(len(r.subs))
	if subs > t.SubscriptionAllowance {
		score -= (subs - t.SubscriptionAllowance) * t.SubscriptionPenalty
	}
	if subs > t.SubscriptionCrowdLimit {
		score -= t.SubscriptionCrowdPenalty
	}

	var fees float64
	for _, c := range r.categories {
		name := strings.ToLower(c.name)
		if strings.Contains(name, "fee") {
			fees += c.total
		}
		if containsAny(name, diningWords) && c.percent > t.DiningShareLimit {
			score -= math.Min(t.DiningPenaltyCap, (c.percent-t.DiningShareLimit)/2)
		}
	}
	if fees > 0 {
		score -= math.Min(t.FeePenaltyCap, r.w.Divide(fees, t.FeePenaltyDivisor, 0, "health_score.fees"))
	}

	for _, threshold := range t.LeakThresholds {
		if r.monthlyLeak > threshold {
			score -= t.LeakPenalty
		}
	}

	score -= float64(len(r.res.PriceIncreases)) * t.PriceIncreasePenalty
	score -= float64(len(r.res.DuplicateSubscriptions)) * t.DuplicateGroupPenalty

	return numsafe.Round(numsafe.Clamp(score, 0, 100), 0, 0)
}

func (r *run) executiveSummary(score float64, subs []SubscriptionInsight, dives []CategoryDeepDive) ExecutiveSummary {
	label := HealthLabelFor(score)
	return ExecutiveSummary{
		Headline:    r.headline(label),
		Paragraph:   r.paragraph(score, label, subs, dives),
		HealthScore: score,
		HealthLabel: label,
	}
}

func (r *run) headline(label HealthLabel) string {
	var base string
	switch label {
	case HealthExcellent:
		base = "Your spending is in excellent shape"
	case HealthGood:
		base = "Your spending is in good shape with room to save"
	case HealthFair:
		base = "A few spending leaks are worth fixing"
	default:
		base = "Your spending needs attention"
	}
	if annual := r.annualSavings(); annual >= 1 {
		return fmt.Sprintf("%s: %s a year in potential savings", base, numsafe.Currency(annual, 0))
	}
	return base
}

// paragraph only narrates counts that are non-zero.
func (r *run) paragraph(score float64, label HealthLabel, subs []SubscriptionInsight, dives []CategoryDeepDive) string {
	var sentences []string

	leaks := len(r.res.TopLeaks)
	switch {
	case r.monthlyLeak > 0 && leaks > 0:
		sentences = append(sentences, fmt.Sprintf("We found %s a month in avoidable spending across %d %s.",
			numsafe.Currency(r.monthlyLeak, 2), leaks, plural(leaks, "spending leak", "spending leaks")))
	case r.monthlyLeak > 0:
		sentences = append(sentences, fmt.Sprintf("We found %s a month in avoidable spending.", numsafe.Currency(r.monthlyLeak, 2)))
	}

	if n := len(subs); n > 0 {
		var monthly float64
		for _, s := range subs {
			monthly += s.MonthlyCost
		}
		sentences = append(sentences, fmt.Sprintf("You are paying for %d recurring %s that cost %s a month.",
			n, plural(n, "subscription", "subscriptions"), numsafe.Currency(monthly, 2)))
	}

	if len(dives) > 0 && dives[0].Percent > 0 {
		sentences = append(sentences, fmt.Sprintf("%s is your largest category at %s%% of spending.",
			dives[0].Category, numsafe.Fixed(dives[0].Percent, 1, 0)))
	}

	if len(sentences) == 0 {
		sentences = append(sentences, "We did not find significant spending leaks in this period.")
	}
	sentences = append(sentences, fmt.Sprintf("Your financial health score is %s out of 100 (%s).",
		numsafe.Fixed(score, 0, 0), label))

	return strings.Join(sentences, " ")
}
