package report

import (
	"fmt"
	"sort"

	"spendreport-backend/internal/numsafe"
)

func (r *run) subscriptionInsights() []SubscriptionInsight {
	out := make([]SubscriptionInsight, 0, len(r.subs))
	if len(r.subs) == 0 {
		return out
	}

	var sum float64
	for _, s := range r.subs {
		sum += s.monthly
	}
	avg := r.w.Divide(sum, len(r.subs), 0, "subscriptions.average_monthly_cost")

	for _, s := range r.subs {
		usage := r.usageFor(s, avg)
		verdict := r.verdictFor(usage, s.monthly, avg)
		annual := numsafe.Round(s.monthly*12, 2, 0)
		out = append(out, SubscriptionInsight{
			Merchant:       s.merchant,
			MonthlyCost:    s.monthly,
			AnnualCost:     annual,
			UsageEstimate:  usage,
			ROILabel:       verdict,
			Recommendation: recommendation(s.merchant, s.monthly, annual, verdict),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnnualCost > out[j].AnnualCost })
	return out
}

func (r *run) usageFor(s subscription, avg float64) UsageEstimate {
	t := r.t
	outlier := avg > 0 && s.monthly > t.CostOutlierMultiplier*avg
	switch {
	case s.confidence >= t.HighUsageConfidence && s.occurrences >= t.HighUsageOccurrences:
		return UsageHigh
	case s.confidence >= t.MediumUsageConfidence && s.occurrences >= t.MediumUsageOccurrences:
		return UsageMedium
	case s.occurrences < t.MediumUsageOccurrences || (outlier && s.confidence < t.HighUsageConfidence):
		return UsageLow
	default:
		return UsageUnknown
	}
}

func (r *run) verdictFor(usage UsageEstimate, monthly, avg float64) ROILabel {
	reasonable := avg == 0 || monthly <= r.t.CostOutlierMultiplier*avg
	switch {
	case usage == UsageHigh && reasonable:
		return ROIGoodValue
	case usage == UsageLow:
		return ROIConsiderCancelling
	default:
		return ROIReviewUsage
	}
}

func recommendation(merchant string, monthly, annual float64, verdict ROILabel) string {
	m := numsafe.Currency(monthly, 2)
	a := numsafe.Currency(annual, 0)
	switch verdict {
	case ROIGoodValue:
		return fmt.Sprintf("%s costs %s/month and looks well used. Keep it.", merchant, m)
	case ROIConsiderCancelling:
		return fmt.Sprintf("%s shows light usage at %s/month. Cancelling would save %s a year.", merchant, m, a)
	default:
		return fmt.Sprintf("Check how often you use %s. At %s/month it costs %s a year.", merchant, m, a)
	}
}
