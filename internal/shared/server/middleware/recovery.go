package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/shared/server/respond"
	"spendreport-backend/internal/shared/telemetry"
)

// Recovery turns a panic into a logged 500 with the standard error body.
// gin's own stderr dump is discarded in favour of one structured line.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		fields := map[string]any{
			"request_id": RequestIDFromContext(c),
			"error":      fmt.Sprint(rec),
			"stack":      string(debug.Stack()),
			"route":      c.FullPath(),
			"method":     c.Request.Method,
		}
		if reportID := c.GetString("reportId"); reportID != "" {
			fields["report_id"] = reportID
		}
		telemetry.Error("panic", fields)
		respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
	})
}
