package validation

import "spendreport-backend/internal/report"

// Section names, as reported in FailedSections.
const (
	SectionGeneratedAt          = "generated_at"
	SectionPeriod               = "period"
	SectionExecutiveSummary     = "executive_summary"
	SectionMonthlyTrends        = "monthly_trends"
	SectionSubscriptionInsights = "subscription_insights"
	SectionSavingsProjection    = "savings_projection"
	SectionActionPlan           = "action_plan"
	SectionBehavioralInsights   = "behavioral_insights"
	SectionCategoryDeepDives    = "category_deep_dives"
	SectionEvidence             = "evidence"
)

// DefaultExecutiveSummary is the safe stand-in for an invalid summary.
func DefaultExecutiveSummary() report.ExecutiveSummary {
	return report.ExecutiveSummary{
		Headline:    "Your spending report is ready",
		Paragraph:   "We reviewed your spending for this period. Some details could not be summarised, so the sections below focus on what we could verify.",
		HealthScore: 50,
		HealthLabel: report.HealthLabelFor(50),
	}
}

func DefaultSavingsProjection() report.SavingsProjection {
	return report.SavingsProjection{
		Assumptions: []string{"Savings could not be projected for this period."},
	}
}

func DefaultBehavioralInsights() report.BehavioralInsights {
	return report.BehavioralInsights{
		PeakSpendingDay:     "Not enough data",
		TopImpulseMerchants: []string{},
		SpendingVelocity:    "Not enough history to measure spending velocity.",
	}
}

func DefaultEvidence() report.Evidence {
	return report.Evidence{
		SubscriptionTransactions: []report.EvidenceCharge{},
		Top50Transactions:        []report.EvidenceTransaction{},
	}
}
