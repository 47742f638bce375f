package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/advisory"
	"spendreport-backend/internal/llm"
	openai "spendreport-backend/internal/llm/openai"
	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/reports"
	"spendreport-backend/internal/services/health"
	"spendreport-backend/internal/shared/config"
	"spendreport-backend/internal/shared/server"
	"spendreport-backend/internal/shared/storage/db"
	"spendreport-backend/internal/shared/storage/object"
	localstore "spendreport-backend/internal/shared/storage/object/local"
	s3store "spendreport-backend/internal/shared/storage/object/s3"
	"spendreport-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Store           object.ObjectStore
	ReportsRepo     reports.Repo
	Pipeline        *reports.Pipeline
	ReportsService  *reports.Service
	ReportsHandler  *reports.Handler
	AdvisoryHandler *advisory.Handler
	Health          *health.Service
}

// Build prepares dependencies and the router for the API process.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.SetLevel(cfg.LogLevel)

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo reports.Repo = reports.NewMemoryRepo()
	if sqlDB != nil {
		repo = &reports.PGRepo{DB: sqlDB}
	}

	pipeline := BuildPipeline(cfg)
	svc := &reports.Service{Pipeline: pipeline, Repo: repo, Store: store}

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           store,
		ReportsRepo:     repo,
		Pipeline:        pipeline,
		ReportsService:  svc,
		ReportsHandler:  reports.NewHandler(svc),
		AdvisoryHandler: advisory.NewHandler(BuildCompleter(cfg), cfg.OpenAITimeout),
	}
	// A nil *sql.DB must not become a non-nil Pinger.
	var pinger health.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	app.Health = health.NewService(pinger, cfg.ReportQAEnabled, cfg.ObjectStoreType)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.Health,
		ReportsHandler:  app.ReportsHandler,
		AdvisoryHandler: app.AdvisoryHandler,
	})
	return app, nil
}

// BuildPipeline returns the report pipeline for cfg. The quality gate is
// attached only when report QA is enabled.
func BuildPipeline(cfg config.Config) *reports.Pipeline {
	var gate reports.QaRunner
	if cfg.ReportQAEnabled {
		gate = qualitygate.NewGate(true, cfg.ReportQAEndpoint, cfg.ReportQATimeout)
	}
	return reports.NewPipeline(cfg.Thresholds, gate)
}

// BuildCompleter returns the advisory model client, or nil when no
// credentials are configured so the proxy answers 500.
func BuildCompleter(cfg config.Config) llm.Completer {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil
	}
	client, err := openai.NewPromptClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAITimeout)
	if err != nil {
		telemetry.Warn("bootstrap.llm_unavailable", map[string]any{"error": err.Error()})
		return nil
	}
	return client
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database unavailable", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
