// Package advisory is the HTTP proxy between the quality gate and the LLM
// provider. It accepts only a redacted summary, applies the fixed review
// instruction and returns a sanitized QA verdict.
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/llm"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/shared/metrics"
	"spendreport-backend/internal/shared/server/respond"
	"spendreport-backend/internal/shared/telemetry"
)

const (
	maxBodyBytes = 256 << 10
	// DefaultTimeout stays under the quality gate's minimum so the proxy
	// answers 504 before the caller gives up.
	DefaultTimeout = 14 * time.Second
)

// Handler serves POST /report-qa.
type Handler struct {
	LLM     llm.Completer
	Timeout time.Duration
}

// NewHandler constructs a Handler. A nil completer makes every request
// fail with 500.
func NewHandler(c llm.Completer, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{LLM: c, Timeout: timeout}
}

// RegisterRoutes attaches the advisory route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/report-qa", h.review)
}

type reviewRequest struct {
	Summary *qualitygate.RedactedSummary `json:"summary"`
}

func (h *Handler) review(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var req reviewRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil || req.Summary == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "body must be {\"summary\": {...}}", nil)
		return
	}
	if h.LLM == nil {
		respond.Error(c, http.StatusInternalServerError, "missing_credentials", "advisory model is not configured", nil)
		return
	}

	user, err := json.Marshal(req.Summary)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "summary could not be encoded", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout())
	defer cancel()

	start := time.Now()
	content, err := h.LLM.Complete(ctx, llm.ReportQAPrompt(), string(user))
	if err != nil {
		status, code := classify(err, ctx)
		metrics.IncAdvisoryFailed()
		telemetry.Warn("advisory.failed", map[string]any{
			"status":         status,
			"error":          err.Error(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"prompt_version": llm.ReportQAPromptVersion,
		})
		respond.Error(c, status, code, "advisory review failed", nil)
		return
	}

	qa, err := qualitygate.SanitizeQaResult([]byte(content))
	if err != nil {
		metrics.IncAdvisoryFailed()
		respond.Error(c, http.StatusBadGateway, "invalid_completion", "advisory model returned an invalid verdict", nil)
		return
	}

	telemetry.Info("advisory.complete", map[string]any{
		"pass":           qa.Pass,
		"severity":       string(qa.Severity),
		"omit_sections":  len(qa.OmitSections),
		"duration_ms":    time.Since(start).Milliseconds(),
		"prompt_version": llm.ReportQAPromptVersion,
	})
	respond.OK(c, qa)
}

func (h *Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return DefaultTimeout
	}
	return h.Timeout
}

func classify(err error, ctx context.Context) (int, string) {
	var se *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, llm.ErrNotConfigured):
		return http.StatusInternalServerError, "missing_credentials"
	case errors.Is(err, llm.ErrEmptyCompletion):
		return http.StatusBadGateway, "empty_completion"
	case errors.As(err, &se):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}
