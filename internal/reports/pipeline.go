// Package reports runs the generate, validate and review pipeline and
// records every run.
package reports

import (
	"context"
	"time"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/shared/metrics"
	"spendreport-backend/internal/shared/telemetry"
	"spendreport-backend/internal/validation"
)

// QaRunner reviews a validated report. *qualitygate.Gate satisfies it.
type QaRunner interface {
	RunReportQa(ctx context.Context, r report.ProReportData, v validation.Result) qualitygate.QaResult
}

// Pipeline chains the generator, the validator and the quality gate. The
// zero value, and a nil *Pipeline, use default thresholds and a disabled
// gate.
type Pipeline struct {
	Generator *report.Generator
	Validator *validation.Validator
	Gate      QaRunner
}

// NewPipeline returns a pipeline with the given thresholds and gate.
func NewPipeline(t report.Thresholds, gate QaRunner) *Pipeline {
	return &Pipeline{
		Generator: report.NewGenerator(t),
		Validator: &validation.Validator{},
		Gate:      gate,
	}
}

// Run executes every stage once. It never fails: numeric problems become
// warnings, schema problems become repaired sections and review failures
// become a fail-open result.
func (p *Pipeline) Run(ctx context.Context, res analysis.Result) Run {
	start := time.Now()

	gen := p.generator()
	generated, warnings := gen.GenerateWithWarnings(res)

	v := p.validator().Validate(generated)

	var qa qualitygate.QaResult
	if p != nil && p.Gate != nil {
		qa = p.Gate.RunReportQa(ctx, v.SafeData, v)
	} else {
		qa = qualitygate.FailOpen("report QA is disabled")
	}
	final := qualitygate.ApplyQaResult(v.SafeData, qa, v.FailedSections)

	run := Run{
		Generated:  generated,
		Validation: v,
		Final:      final,
		Warnings:   warnings,
		Duration:   time.Since(start),
	}
	record(ctx, run)
	return run
}

func (p *Pipeline) generator() *report.Generator {
	if p == nil || p.Generator == nil {
		return report.NewGenerator(report.DefaultThresholds())
	}
	return p.Generator
}

func (p *Pipeline) validator() *validation.Validator {
	if p == nil || p.Validator == nil {
		return &validation.Validator{}
	}
	return p.Validator
}

func record(ctx context.Context, run Run) {
	metrics.IncReportsGenerated()
	metrics.AddNumericWarnings(len(run.Warnings))
	metrics.ObserveReportDurationMs(float64(run.Duration.Milliseconds()))
	if !run.Validation.Valid {
		metrics.IncReportsInvalid()
	}
	if run.Final.IsSafeMode {
		metrics.IncReportsSafeMode()
	}
	if run.Final.QaSkipped {
		metrics.IncReportQaSkipped()
	}

	telemetry.Info("report.pipeline_complete", map[string]any{
		"valid":            run.Validation.Valid,
		"failed_sections":  run.Validation.FailedSections,
		"omitted_sections": run.Final.OmittedSections,
		"safe_mode":        run.Final.IsSafeMode,
		"qa_skipped":       run.Final.QaSkipped,
		"warnings":         len(run.Warnings),
		"duration_ms":      run.Duration.Milliseconds(),
		"request_id":       telemetry.RequestIDFrom(ctx),
	})
}
