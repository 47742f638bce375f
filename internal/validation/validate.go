// Package validation schema-checks a generated report section by section,
// repairs failing sections with safe defaults, and checks cross-field
// invariants on the repaired result.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"spendreport-backend/internal/report"
)

// Result is the outcome of validating one report.
type Result struct {
	Valid               bool                 `json:"valid"`
	SchemaErrors        []string             `json:"schemaErrors"`
	InvariantViolations []Violation          `json:"invariantViolations"`
	FailedSections      []string             `json:"failedSections"`
	SafeData            report.ProReportData `json:"safeData"`
}

// Validator checks reports. The zero value uses the wall clock when a
// period has to be rebuilt.
type Validator struct {
	Now func() time.Time
}

// Validate checks r with a zero Validator.
func Validate(r report.ProReportData) Result {
	return (&Validator{}).Validate(r)
}

// Validate checks r without modifying it. Failing singleton sections are
// replaced by their defaults; failing list entries are dropped individually.
func (v *Validator) Validate(in report.ProReportData) Result {
	now := time.Now
	if v != nil && v.Now != nil {
		now = v.Now
	}
	data := in.Clone()
	c := &checker{errs: []string{}, failed: []string{}}

	if !SafeText(data.GeneratedAt) || strings.TrimSpace(data.GeneratedAt) == "" {
		c.fail(SectionGeneratedAt, SectionGeneratedAt+": safetext")
		data.GeneratedAt = now().UTC().Format(time.RFC3339)
	}
	if c.singleton(SectionPeriod, data.Period) {
		data.Period = report.TrailingPeriod(now())
	}
	if c.singleton(SectionExecutiveSummary, data.ExecutiveSummary) {
		data.ExecutiveSummary = DefaultExecutiveSummary()
	}
	if c.singleton(SectionSavingsProjection, data.SavingsProjection) {
		data.SavingsProjection = DefaultSavingsProjection()
	}
	if c.singleton(SectionBehavioralInsights, data.BehavioralInsights) {
		data.BehavioralInsights = DefaultBehavioralInsights()
	}
	if c.singleton(SectionEvidence, data.Evidence) {
		data.Evidence = DefaultEvidence()
	}

	data.MonthlyTrends = filter(c, SectionMonthlyTrends, data.MonthlyTrends)
	data.SubscriptionInsights = filter(c, SectionSubscriptionInsights, data.SubscriptionInsights)
	data.ActionPlan = filter(c, SectionActionPlan, data.ActionPlan)
	data.CategoryDeepDives = filter(c, SectionCategoryDeepDives, data.CategoryDeepDives)

	normalizeLists(&data)

	violations := CheckInvariants(data)
	valid := len(c.errs) == 0
	for _, viol := range violations {
		if viol.Severity == SeverityError {
			valid = false
		}
	}

	return Result{
		Valid:               valid,
		SchemaErrors:        c.errs,
		InvariantViolations: violations,
		FailedSections:      c.failed,
		SafeData:            data,
	}
}

type checker struct {
	errs   []string
	failed []string
}

func (c *checker) fail(section string, errs ...string) {
	c.errs = append(c.errs, errs...)
	for _, s := range c.failed {
		if s == section {
			return
		}
	}
	c.failed = append(c.failed, section)
}

// singleton validates a section and reports whether it must be replaced.
func (c *checker) singleton(section string, value any) bool {
	errs := schemaErrors(section, value)
	if len(errs) == 0 {
		return false
	}
	c.fail(section, errs...)
	return true
}

// filter keeps the elements of a list section that pass on their own.
func filter[T any](c *checker, section string, items []T) []T {
	out := make([]T, 0, len(items))
	for i, item := range items {
		errs := schemaErrors(fmt.Sprintf("%s[%d]", section, i), item)
		if len(errs) > 0 {
			c.fail(section, errs...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// schemaErrors returns one "path: tag" string per failed constraint. Values
// are never included.
func schemaErrors(path string, value any) []string {
	err := structValidator.Struct(value)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{path + ": invalid"}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out = append(out, fmt.Sprintf("%s.%s: %s", path, field, fe.Tag()))
	}
	return out
}

func normalizeLists(r *report.ProReportData) {
	if r.SavingsProjection.Assumptions == nil {
		r.SavingsProjection.Assumptions = []string{}
	}
	if r.BehavioralInsights.TopImpulseMerchants == nil {
		r.BehavioralInsights.TopImpulseMerchants = []string{}
	}
	if r.Evidence.SubscriptionTransactions == nil {
		r.Evidence.SubscriptionTransactions = []report.EvidenceCharge{}
	}
	if r.Evidence.Top50Transactions == nil {
		r.Evidence.Top50Transactions = []report.EvidenceTransaction{}
	}
	for i := range r.CategoryDeepDives {
		if r.CategoryDeepDives[i].TopMerchants == nil {
			r.CategoryDeepDives[i].TopMerchants = []report.MerchantSpend{}
		}
	}
}
