package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/shared/telemetry"
	"spendreport-backend/internal/shared/util"
)

// Logging emits one request.complete line per request. The owner is logged
// as its hash and the route template stands in for the raw path.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		fields := map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"report_id":   c.GetString("reportId"),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if owner := OwnerIDFromContext(c); owner != "" {
			fields["owner_key"] = util.HashOwnerKey(owner)
		}
		telemetry.Info("request.complete", fields)
	}
}
