// Package report derives a structured spending report from an upstream
// analysis result. Every numeric read goes through numsafe so the derived
// document never carries a non-finite number or a garbled string.
package report

import "math"

// HealthLabel is the band implied by a health score.
type HealthLabel string

const (
	HealthNeedsAttention HealthLabel = "Needs Attention"
	HealthFair           HealthLabel = "Fair"
	HealthGood           HealthLabel = "Good"
	HealthExcellent      HealthLabel = "Excellent"
)

// UsageEstimate is how heavily a subscription appears to be used.
type UsageEstimate string

const (
	UsageHigh    UsageEstimate = "High"
	UsageMedium  UsageEstimate = "Medium"
	UsageLow     UsageEstimate = "Low"
	UsageUnknown UsageEstimate = "Unknown"
)

// ROILabel is the verdict on a subscription.
type ROILabel string

const (
	ROIGoodValue          ROILabel = "Good value"
	ROIReviewUsage        ROILabel = "Review usage"
	ROIConsiderCancelling ROILabel = "Consider cancelling"
)

// Difficulty of carrying out an action.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Timeframe in which an action is expected to pay off.
type Timeframe string

const (
	TimeframeWeek    Timeframe = "This week"
	TimeframeMonth   Timeframe = "This month"
	TimeframeQuarter Timeframe = "Next 3 months"
)

// Trend of a category between the compared months.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ProReportData is the full report document.
type ProReportData struct {
	GeneratedAt          string                `json:"generated_at" validate:"safetext"`
	Period               Period                `json:"period"`
	ExecutiveSummary     ExecutiveSummary      `json:"executive_summary"`
	MonthlyTrends        []MonthlyTrend        `json:"monthly_trends"`
	SubscriptionInsights []SubscriptionInsight `json:"subscription_insights"`
	SavingsProjection    SavingsProjection     `json:"savings_projection"`
	ActionPlan           []Action              `json:"action_plan"`
	BehavioralInsights   BehavioralInsights    `json:"behavioral_insights"`
	CategoryDeepDives    []CategoryDeepDive    `json:"category_deep_dives"`
	Evidence             Evidence              `json:"evidence"`
}

// Period is the inclusive date range the report covers, as YYYY-MM-DD.
type Period struct {
	Start string `json:"start" validate:"required,isodate"`
	End   string `json:"end" validate:"required,isodate"`
}

type ExecutiveSummary struct {
	Headline    string      `json:"headline" validate:"required,safetext"`
	Paragraph   string      `json:"paragraph" validate:"required,safetext"`
	HealthScore float64     `json:"health_score" validate:"finite,gte=0,lte=100"`
	HealthLabel HealthLabel `json:"health_label" validate:"oneof='Needs Attention' Fair Good Excellent"`
}

type MonthlyTrend struct {
	Month      string             `json:"month" validate:"yearmonth"`
	TotalSpend float64            `json:"total_spend" validate:"finite,gte=0"`
	ByCategory map[string]float64 `json:"by_category" validate:"dive,keys,safetext,endkeys,finite,gte=0"`
}

type SubscriptionInsight struct {
	Merchant       string        `json:"merchant" validate:"required,safetext"`
	MonthlyCost    float64       `json:"monthly_cost" validate:"finite,gte=0"`
	AnnualCost     float64       `json:"annual_cost" validate:"finite,gte=0"`
	UsageEstimate  UsageEstimate `json:"usage_estimate" validate:"oneof=High Medium Low Unknown"`
	ROILabel       ROILabel      `json:"roi_label" validate:"oneof='Good value' 'Review usage' 'Consider cancelling'"`
	Recommendation string        `json:"recommendation" validate:"safetext"`
}

type SavingsProjection struct {
	Month3      float64  `json:"month_3" validate:"finite,gte=0"`
	Month6      float64  `json:"month_6" validate:"finite,gte=0"`
	Month12     float64  `json:"month_12" validate:"finite,gte=0"`
	Assumptions []string `json:"assumptions" validate:"dive,safetext"`
}

type Action struct {
	Priority                int        `json:"priority" validate:"gte=1"`
	Title                   string     `json:"title" validate:"required,safetext"`
	Description             string     `json:"description" validate:"safetext"`
	EstimatedMonthlySavings float64    `json:"estimated_monthly_savings" validate:"finite,gte=0"`
	EstimatedYearlySavings  float64    `json:"estimated_yearly_savings" validate:"finite,gte=0"`
	Difficulty              Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	Timeframe               Timeframe  `json:"timeframe" validate:"oneof='This week' 'This month' 'Next 3 months'"`
	Category                string     `json:"category" validate:"safetext"`
}

type BehavioralInsights struct {
	PeakSpendingDay      string   `json:"peak_spending_day" validate:"safetext"`
	AvgDailySpend        float64  `json:"avg_daily_spend" validate:"finite,gte=0"`
	AvgWeeklySpend       float64  `json:"avg_weekly_spend" validate:"finite,gte=0"`
	ImpulseSpendEstimate float64  `json:"impulse_spend_estimate" validate:"finite,gte=0"`
	TopImpulseMerchants  []string `json:"top_impulse_merchants" validate:"dive,safetext"`
	SpendingVelocity     string   `json:"spending_velocity" validate:"safetext"`
}

type CategoryDeepDive struct {
	Category       string          `json:"category" validate:"required,safetext"`
	Total          float64         `json:"total" validate:"finite,gte=0"`
	Percent        float64         `json:"percent" validate:"finite,gte=0,lte=100"`
	MonthlyAverage float64         `json:"monthly_average" validate:"finite,gte=0"`
	Trend          Trend           `json:"trend" validate:"oneof=increasing decreasing stable"`
	TrendPercent   float64         `json:"trend_percent" validate:"finite"`
	TopMerchants   []MerchantSpend `json:"top_merchants" validate:"dive"`
	Insight        string          `json:"insight" validate:"safetext"`
	Recommendation string          `json:"recommendation" validate:"safetext"`
}

type MerchantSpend struct {
	Name  string  `json:"name" validate:"required,safetext"`
	Total float64 `json:"total" validate:"finite,gte=0"`
}

type Evidence struct {
	SubscriptionTransactions []EvidenceCharge      `json:"subscription_transactions" validate:"dive"`
	Top50Transactions        []EvidenceTransaction `json:"top_50_transactions" validate:"max=50,dive"`
}

// EvidenceCharge is one reconstructed monthly subscription charge.
type EvidenceCharge struct {
	Merchant string  `json:"merchant" validate:"required,safetext"`
	Date     string  `json:"date" validate:"isodate"`
	Amount   float64 `json:"amount" validate:"finite,gte=0"`
}

// EvidenceTransaction is a top transaction copied from the input.
type EvidenceTransaction struct {
	Date     string  `json:"date" validate:"required,safetext"`
	Merchant string  `json:"merchant" validate:"required,safetext"`
	Amount   float64 `json:"amount" validate:"finite"`
	Category string  `json:"category" validate:"required,safetext"`
}

// HealthLabelFor maps a score to its band. Non-finite scores map to
// HealthNeedsAttention.
func HealthLabelFor(score float64) HealthLabel {
	switch {
	case math.IsNaN(score) || math.IsInf(score, 0):
		return HealthNeedsAttention
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthFair
	default:
		return HealthNeedsAttention
	}
}
