package qualitygate

import (
	"slices"

	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

// ApplyQaResult blanks every omittable section named by the advisory or by
// the validator and returns the final deliverable. safeData is not
// modified. Names outside OmittableSections are ignored, so the executive
// summary and category deep dives always survive.
func ApplyQaResult(safeData report.ProReportData, qa QaResult, failedSections []string) Output {
	out := safeData.Clone()
	omit := map[string]bool{}
	for _, name := range qa.OmitSections {
		omit[name] = true
	}
	for _, name := range failedSections {
		omit[name] = true
	}

	omitted := []string{}
	for _, section := range OmittableSections {
		if !omit[section] {
			continue
		}
		blank(&out, section)
		omitted = append(omitted, section)
	}

	return Output{
		Report:          out,
		OmittedSections: omitted,
		QaResult:        cloneQa(qa),
		IsSafeMode:      !qa.Pass || qa.Severity == SeverityHigh,
		QaSkipped:       qa.Skipped(),
	}
}

func blank(r *report.ProReportData, section string) {
	switch section {
	case validation.SectionMonthlyTrends:
		r.MonthlyTrends = []report.MonthlyTrend{}
	case validation.SectionSubscriptionInsights:
		r.SubscriptionInsights = []report.SubscriptionInsight{}
	case validation.SectionSavingsProjection:
		r.SavingsProjection = validation.DefaultSavingsProjection()
	case validation.SectionActionPlan:
		r.ActionPlan = []report.Action{}
	case validation.SectionBehavioralInsights:
		r.BehavioralInsights = validation.DefaultBehavioralInsights()
	case validation.SectionEvidence:
		r.Evidence = validation.DefaultEvidence()
	}
}

func cloneQa(qa QaResult) QaResult {
	qa.OmitSections = slices.Clone(qa.OmitSections)
	qa.NarrativeBullets = slices.Clone(qa.NarrativeBullets)
	qa.Checks = slices.Clone(qa.Checks)
	return qa
}

func isOmittable(name string) bool {
	return slices.Contains(OmittableSections, name)
}
