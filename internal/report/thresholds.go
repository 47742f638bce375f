package report

import "slices"

// Thresholds are the product-tuning constants behind the generator's
// heuristics. They can be overridden from configuration under the
// "thresholds" key.
type Thresholds struct {
	HighUsageConfidence    float64 `mapstructure:"high_usage_confidence"`
	HighUsageOccurrences   float64 `mapstructure:"high_usage_occurrences"`
	MediumUsageConfidence  float64 `mapstructure:"medium_usage_confidence"`
	MediumUsageOccurrences float64 `mapstructure:"medium_usage_occurrences"`
	CostOutlierMultiplier  float64 `mapstructure:"cost_outlier_multiplier"`

	ImpulseTransactionsPerMonth float64 `mapstructure:"impulse_transactions_per_month"`
	ImpulseAverageTicket        float64 `mapstructure:"impulse_average_ticket"`
	MaxImpulseMerchants         int     `mapstructure:"max_impulse_merchants"`

	TrendChangePercent        float64 `mapstructure:"trend_change_percent"`
	LargestCategoryShare      float64 `mapstructure:"largest_category_share"`
	HighFrequencyTransactions float64 `mapstructure:"high_frequency_transactions"`
	VelocityImprovingPercent  float64 `mapstructure:"velocity_improving_percent"`
	VelocityWarningPercent    float64 `mapstructure:"velocity_warning_percent"`

	SubscriptionAllowance    float64   `mapstructure:"subscription_allowance"`
	SubscriptionPenalty      float64   `mapstructure:"subscription_penalty"`
	SubscriptionCrowdLimit   float64   `mapstructure:"subscription_crowd_limit"`
	SubscriptionCrowdPenalty float64   `mapstructure:"subscription_crowd_penalty"`
	FeePenaltyCap            float64   `mapstructure:"fee_penalty_cap"`
	FeePenaltyDivisor        float64   `mapstructure:"fee_penalty_divisor"`
	DiningShareLimit         float64   `mapstructure:"dining_share_limit"`
	DiningPenaltyCap         float64   `mapstructure:"dining_penalty_cap"`
	LeakThresholds           []float64 `mapstructure:"leak_thresholds"`
	LeakPenalty              float64   `mapstructure:"leak_penalty"`
	PriceIncreasePenalty     float64   `mapstructure:"price_increase_penalty"`
	DuplicateGroupPenalty    float64   `mapstructure:"duplicate_group_penalty"`

	MaxTrendMonths          int `mapstructure:"max_trend_months"`
	MaxEvidenceTransactions int `mapstructure:"max_evidence_transactions"`
	MaxEvidenceOccurrences  int `mapstructure:"max_evidence_occurrences"`
}

// DefaultThresholds returns the documented constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighUsageConfidence:    0.9,
		HighUsageOccurrences:   10,
		MediumUsageConfidence:  0.8,
		MediumUsageOccurrences: 6,
		CostOutlierMultiplier:  1.5,

		ImpulseTransactionsPerMonth: 4,
		ImpulseAverageTicket:        20,
		MaxImpulseMerchants:         5,

		TrendChangePercent:        5,
		LargestCategoryShare:      20,
		HighFrequencyTransactions: 50,
		VelocityImprovingPercent:  -5,
		VelocityWarningPercent:    10,

		SubscriptionAllowance:    5,
		SubscriptionPenalty:      3,
		SubscriptionCrowdLimit:   8,
		SubscriptionCrowdPenalty: 5,
		FeePenaltyCap:            15,
		FeePenaltyDivisor:        30,
		DiningShareLimit:         15,
		DiningPenaltyCap:         10,
		LeakThresholds:           []float64{200, 400, 600},
		LeakPenalty:              5,
		PriceIncreasePenalty:     2,
		DuplicateGroupPenalty:    3,

		MaxTrendMonths:          36,
		MaxEvidenceTransactions: 50,
		MaxEvidenceOccurrences:  24,
	}
}

// Merge returns t with every zero field replaced by its default, so a
// partial override from configuration keeps the remaining constants.
func (t Thresholds) Merge() Thresholds {
	d := DefaultThresholds()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fillInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.HighUsageConfidence, d.HighUsageConfidence)
	fill(&t.HighUsageOccurrences, d.HighUsageOccurrences)
	fill(&t.MediumUsageConfidence, d.MediumUsageConfidence)
	fill(&t.MediumUsageOccurrences, d.MediumUsageOccurrences)
	fill(&t.CostOutlierMultiplier, d.CostOutlierMultiplier)
	fill(&t.ImpulseTransactionsPerMonth, d.ImpulseTransactionsPerMonth)
	fill(&t.ImpulseAverageTicket, d.ImpulseAverageTicket)
	fillInt(&t.MaxImpulseMerchants, d.MaxImpulseMerchants)
	fill(&t.TrendChangePercent, d.TrendChangePercent)
	fill(&t.LargestCategoryShare, d.LargestCategoryShare)
	fill(&t.HighFrequencyTransactions, d.HighFrequencyTransactions)
	fill(&t.VelocityImprovingPercent, d.VelocityImprovingPercent)
	fill(&t.VelocityWarningPercent, d.VelocityWarningPercent)
	fill(&t.SubscriptionAllowance, d.SubscriptionAllowance)
	fill(&t.SubscriptionPenalty, d.SubscriptionPenalty)
	fill(&t.SubscriptionCrowdLimit, d.SubscriptionCrowdLimit)
	fill(&t.SubscriptionCrowdPenalty, d.SubscriptionCrowdPenalty)
	fill(&t.FeePenaltyCap, d.FeePenaltyCap)
	fill(&t.FeePenaltyDivisor, d.FeePenaltyDivisor)
	fill(&t.DiningShareLimit, d.DiningShareLimit)
	fill(&t.DiningPenaltyCap, d.DiningPenaltyCap)
	if len(t.LeakThresholds) == 0 {
		t.LeakThresholds = d.LeakThresholds
	}
	t.LeakThresholds = slices.Clone(t.LeakThresholds)
	fill(&t.LeakPenalty, d.LeakPenalty)
	fill(&t.PriceIncreasePenalty, d.PriceIncreasePenalty)
	fill(&t.DuplicateGroupPenalty, d.DuplicateGroupPenalty)
	fillInt(&t.MaxTrendMonths, d.MaxTrendMonths)
	fillInt(&t.MaxEvidenceTransactions, d.MaxEvidenceTransactions)
	fillInt(&t.MaxEvidenceOccurrences, d.MaxEvidenceOccurrences)
	return t
}
