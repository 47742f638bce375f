package qualitygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"spendreport-backend/internal/report"
	"spendreport-backend/internal/shared/telemetry"
	"spendreport-backend/internal/validation"
)

const (
	MinTimeout     = 15 * time.Second
	MaxTimeout     = 20 * time.Second
	DefaultTimeout = MinTimeout

	maxResponseBytes = 64 << 10
)

// Gate submits redacted summaries to the advisory endpoint. A nil or
// disabled Gate always fails open.
type Gate struct {
	Enabled    bool
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewGate returns a gate with its timeout clamped to the allowed window.
func NewGate(enabled bool, endpoint string, timeout time.Duration) *Gate {
	return &Gate{
		Enabled:    enabled,
		Endpoint:   strings.TrimSpace(endpoint),
		Timeout:    ClampTimeout(timeout),
		HTTPClient: &http.Client{},
	}
}

// ClampTimeout keeps d within [MinTimeout, MaxTimeout]. Zero selects the
// default.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	default:
		return d
	}
}

type qaRequest struct {
	Summary RedactedSummary `json:"summary"`
}

// RunReportQa asks the advisory endpoint to review r. It never returns an
// error: any failure yields FailOpen with the reason in its single check.
func (g *Gate) RunReportQa(ctx context.Context, r report.ProReportData, v validation.Result) QaResult {
	if g == nil || !g.Enabled {
		return FailOpen("report QA is disabled")
	}
	if g.Endpoint == "" {
		return FailOpen("report QA endpoint is not configured")
	}

	start := time.Now()
	qa, err := g.call(ctx, BuildRedactedSummary(r, v))
	fields := map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"request_id":  telemetry.RequestIDFrom(ctx),
	}
	if err != nil {
		fields["error"] = err.Error()
		telemetry.Warn("report_qa.skipped", fields)
		return FailOpen(err.Error())
	}
	fields["pass"] = qa.Pass
	fields["severity"] = string(qa.Severity)
	fields["omit_sections"] = len(qa.OmitSections)
	telemetry.Info("report_qa.complete", fields)
	return qa
}

func (g *Gate) call(ctx context.Context, summary RedactedSummary) (QaResult, error) {
	payload, err := json.Marshal(qaRequest{Summary: summary})
	if err != nil {
		return QaResult{}, fmt.Errorf("encode summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, ClampTimeout(g.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return QaResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := telemetry.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return QaResult{}, errors.New("advisory request timed out")
		}
		if errors.Is(err, context.Canceled) {
			return QaResult{}, errors.New("advisory request was cancelled")
		}
		return QaResult{}, fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return QaResult{}, fmt.Errorf("advisory returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return QaResult{}, errors.New("advisory request timed out")
		}
		return QaResult{}, fmt.Errorf("read advisory response: %w", err)
	}
	return SanitizeQaResult(body)
}
