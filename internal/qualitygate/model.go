// Package qualitygate is the last stage of report delivery. It reduces a
// validated report to a redacted statistical summary, asks an advisory
// service whether any section should be held back, and applies the
// resulting omissions. Every failure of the advisory call degrades to a
// passing result with no omissions.
package qualitygate

import (
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

// Severity of the advisory verdict.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Check outcome values.
const (
	CheckOK   = "ok"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// RuleQaSkipped marks a result produced without a successful advisory call.
const RuleQaSkipped = "qa_skipped"

// OmittableSections are the only sections this stage may blank.
var OmittableSections = []string{
	validation.SectionMonthlyTrends,
	validation.SectionSubscriptionInsights,
	validation.SectionSavingsProjection,
	validation.SectionActionPlan,
	validation.SectionBehavioralInsights,
	validation.SectionEvidence,
}

// Check is one advisory finding.
type Check struct {
	Rule   string `json:"rule"`
	Result string `json:"result"`
	Detail string `json:"detail"`
}

// QaResult is the sanitized advisory verdict.
type QaResult struct {
	Pass             bool     `json:"pass"`
	Severity         Severity `json:"severity"`
	OmitSections     []string `json:"omitSections"`
	NotesForUser     string   `json:"notesForUser"`
	NarrativeBullets []string `json:"narrativeBullets"`
	Checks           []Check  `json:"checks"`
}

// Skipped reports whether r stands in for an advisory call that did not
// happen or did not succeed.
func (r QaResult) Skipped() bool {
	for _, c := range r.Checks {
		if c.Rule == RuleQaSkipped {
			return true
		}
	}
	return false
}

// FailOpen is the fixed result used whenever the advisory call is disabled
// or fails.
func FailOpen(reason string) QaResult {
	return QaResult{
		Pass:             true,
		Severity:         SeverityLow,
		OmitSections:     []string{},
		NotesForUser:     "",
		NarrativeBullets: []string{},
		Checks:           []Check{{Rule: RuleQaSkipped, Result: CheckOK, Detail: reason}},
	}
}

// Output is the deliverable produced by ApplyQaResult.
type Output struct {
	Report          report.ProReportData `json:"report"`
	OmittedSections []string             `json:"omittedSections"`
	QaResult        QaResult             `json:"qaResult"`
	IsSafeMode      bool                 `json:"isSafeMode"`
	QaSkipped       bool                 `json:"qaSkipped"`
}

// RedactedSummary is the only view of a report that leaves the process.
// It carries aggregates, labels of at most maxLabelRunes runes, and no
// dates.
type RedactedSummary struct {
	MonthTotals          []MonthTotal      `json:"monthTotals"`
	TopCategories        []CategoryStat    `json:"topCategories"`
	TopMerchants         []MerchantStat    `json:"topMerchants"`
	RecurringCharges     []RecurringCharge `json:"recurringCharges"`
	SubscriptionCount    int               `json:"subscriptionCount"`
	ActionCount          int               `json:"actionCount"`
	ProjectedSavings12Mo float64           `json:"projectedSavings12Mo"`
	HealthScore          float64           `json:"healthScore"`
	HealthLabel          string            `json:"healthLabel"`
	HasBehavioralData    bool              `json:"hasBehavioralData"`
	ValidationIssues     []string          `json:"validationIssues"`
}

// MonthTotal is a month's spend keyed by position, month_1 being the
// earliest.
type MonthTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type CategoryStat struct {
	Name    string  `json:"name"`
	Spend   float64 `json:"spend"`
	Percent float64 `json:"percent"`
}

type MerchantStat struct {
	Name  string  `json:"name"`
	Spend float64 `json:"spend"`
}

type RecurringCharge struct {
	Label       string  `json:"label"`
	MonthlyCost float64 `json:"monthlyCost"`
	Usage       string  `json:"usage"`
}
