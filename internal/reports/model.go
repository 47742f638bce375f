package reports

import (
	"time"

	"spendreport-backend/internal/numsafe"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/validation"
)

// Run holds the three independent values of one pipeline execution. The
// generated report, the validated safe data and the final output never
// share mutable state.
type Run struct {
	Generated  report.ProReportData
	Validation validation.Result
	Final      qualitygate.Output
	Warnings   []numsafe.Warning
	Duration   time.Duration
}

// Record is the persisted outcome of a run.
type Record struct {
	ID              string             `json:"id"`
	OwnerKey        string             `json:"-"`
	CreatedAt       time.Time          `json:"createdAt"`
	Valid           bool               `json:"valid"`
	FailedSections  []string           `json:"failedSections"`
	OmittedSections []string           `json:"omittedSections"`
	SafeMode        bool               `json:"isSafeMode"`
	QaSkipped       bool               `json:"qaSkipped"`
	WarningCount    int                `json:"warningCount"`
	ArchiveKey      string             `json:"archiveKey,omitempty"`
	Output          qualitygate.Output `json:"output"`
}

// Summary is the list view of a Record.
type Summary struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	Valid           bool      `json:"valid"`
	SafeMode        bool      `json:"isSafeMode"`
	QaSkipped       bool      `json:"qaSkipped"`
	OmittedSections []string  `json:"omittedSections"`
	HealthScore     float64   `json:"healthScore"`
}

func (r Record) summary() Summary {
	return Summary{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		Valid:           r.Valid,
		SafeMode:        r.SafeMode,
		QaSkipped:       r.QaSkipped,
		OmittedSections: nonNil(r.OmittedSections),
		HealthScore:     r.Output.Report.ExecutiveSummary.HealthScore,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
