package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/analysis"
	"spendreport-backend/internal/numsafe"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/report"
	"spendreport-backend/internal/shared/server/middleware"
	"spendreport-backend/internal/shared/server/respond"
	"spendreport-backend/internal/validation"
)

const maxBodyBytes = 5 << 20

// Handler wires report routes.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.create)
	rg.GET("/reports", h.list)
	rg.POST("/reports/validate", h.validate)
	rg.GET("/reports/:id", h.get)
}

type validationView struct {
	Valid               bool                   `json:"valid"`
	SchemaErrors        []string               `json:"schemaErrors"`
	InvariantViolations []validation.Violation `json:"invariantViolations"`
	FailedSections      []string               `json:"failedSections"`
}

type createResponse struct {
	ID string `json:"id"`
	qualitygate.Output
	Validation validationView    `json:"validation"`
	Warnings   []numsafe.Warning `json:"warnings"`
	Share      report.Share      `json:"share"`
}

type recordResponse struct {
	Record
	Share report.Share `json:"share"`
}

func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	res, err := analysis.Decode(c.Request.Body)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid analysis result", nil)
		return
	}

	rec, run, err := h.Svc.Create(c.Request.Context(), middleware.OwnerIDFromContext(c), res)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "could not store report", nil)
		return
	}
	c.Set("reportId", rec.ID)

	warnings := run.Warnings
	if warnings == nil {
		warnings = []numsafe.Warning{}
	}
	respond.Created(c, c.FullPath()+"/"+rec.ID, createResponse{
		ID:     rec.ID,
		Output: run.Final,
		Validation: validationView{
			Valid:               run.Validation.Valid,
			SchemaErrors:        nonNil(run.Validation.SchemaErrors),
			InvariantViolations: nonNilViolations(run.Validation.InvariantViolations),
			FailedSections:      nonNil(run.Validation.FailedSections),
		},
		Warnings: warnings,
		Share:    report.ShareSummary(run.Final.Report),
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)

	rec, err := h.Svc.Get(c.Request.Context(), middleware.OwnerIDFromContext(c), id)
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "report id must be a UUID", nil)
		return
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		return
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "storage_error", "could not load report", nil)
		return
	}
	respond.OK(c, recordResponse{Record: rec, Share: report.ShareSummary(rec.Output.Report)})
}

func (h *Handler) list(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	items, err := h.Svc.List(c.Request.Context(), middleware.OwnerIDFromContext(c), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "could not list reports", nil)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) validate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	var in report.ProReportData
	if err := json.NewDecoder(c.Request.Body).Decode(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid report body", nil)
		return
	}
	respond.OK(c, h.Svc.Validate(in))
}

func nonNilViolations(in []validation.Violation) []validation.Violation {
	if in == nil {
		return []validation.Violation{}
	}
	return in
}
