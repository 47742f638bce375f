package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendreport-backend/internal/qualitygate"
	"spendreport-backend/internal/reports"
	"spendreport-backend/internal/shared/config"
)

func TestBuildDevUsesMemory(t *testing.T) {
	cfg := config.Config{Env: "dev", LocalStoreDir: t.TempDir()}

	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database in dev without DATABASE_URL")
	}
	if _, ok := app.ReportsRepo.(*reports.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.ReportsRepo)
	}
	if app.AdvisoryHandler.LLM != nil {
		t.Fatalf("expected no completer without an API key")
	}
	if app.Health.DB != nil {
		t.Fatalf("expected nil pinger without a database, got %T", app.Health.DB)
	}
	if st := app.Health.Status(context.Background()); !st.OK || st.Database != "memory" {
		t.Fatalf("unexpected health status %+v", st)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	if _, err := Build(context.Background(), config.Config{Env: "production"}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildPipelineGate(t *testing.T) {
	off := BuildPipeline(config.Config{})
	if off.Gate != nil {
		t.Fatalf("expected no gate when QA is disabled")
	}

	on := BuildPipeline(config.Config{ReportQAEnabled: true, ReportQAEndpoint: "http://qa.local/api/v1/report-qa"})
	gate, ok := on.Gate.(*qualitygate.Gate)
	if !ok {
		t.Fatalf("expected a quality gate, got %T", on.Gate)
	}
	if gate.Timeout != qualitygate.DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", gate.Timeout)
	}
}

func TestBuildCompleter(t *testing.T) {
	if BuildCompleter(config.Config{}) != nil {
		t.Fatalf("expected nil completer without key")
	}
	if BuildCompleter(config.Config{OpenAIAPIKey: "k", LLMModel: "gpt-4o-mini"}) == nil {
		t.Fatalf("expected a completer with key and model")
	}
}
