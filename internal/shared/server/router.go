package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/advisory"
	"spendreport-backend/internal/reports"
	"spendreport-backend/internal/services/health"
	"spendreport-backend/internal/shared/config"
	"spendreport-backend/internal/shared/metrics"
	"spendreport-backend/internal/shared/server/middleware"
	"spendreport-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts. Nil handlers are
// skipped.
type RouterDeps struct {
	Config          config.Config
	Health          *health.Service
	ReportsHandler  *reports.Handler
	AdvisoryHandler *advisory.Handler
	RateLimits      map[string]middleware.RateLimitRule
}

// Rate limit groups.
const (
	RateGroupRead     = "READ"
	RateGroupDefault  = "DEFAULT"
	RateGroupAdvisory = "ADVISORY"
)

// DefaultRateLimits returns per-owner limits for each route group.
func DefaultRateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		RateGroupRead:     {Rate: 5, Burst: 20},
		RateGroupDefault:  {Rate: 1, Burst: 5},
		RateGroupAdvisory: {Rate: 0.5, Burst: 3},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	limits := deps.RateLimits
	if limits == nil {
		limits = DefaultRateLimits()
	}

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Owner(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        limits,
			DefaultGroup: RateGroupDefault,
			GroupFor:     rateGroupFor,
		}),
	)
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.ReportsHandler != nil {
		deps.ReportsHandler.RegisterRoutes(api)
	}
	if deps.AdvisoryHandler != nil {
		deps.AdvisoryHandler.RegisterRoutes(api)
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	if strings.HasSuffix(c.FullPath(), "/report-qa") {
		return RateGroupAdvisory
	}
	if c.Request.Method == http.MethodGet {
		return RateGroupRead
	}
	return RateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
