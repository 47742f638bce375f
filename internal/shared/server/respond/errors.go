package respond

import (
	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/shared/telemetry"
	"spendreport-backend/internal/shared/util"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"route":      c.FullPath(),
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	// Owner IDs are logged hashed, like every stored owner key.
	if ownerID := c.GetString("ownerId"); ownerID != "" {
		fields["owner_key"] = util.HashOwnerKey(ownerID)
	}
	if reportID := c.GetString("reportId"); reportID != "" {
		fields["report_id"] = reportID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
