package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendreport-backend/internal/llm"
	"spendreport-backend/internal/qualitygate"
)

type fakeCompleter struct {
	content string
	err     error
	wait    bool

	system string
	user   string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user
	if f.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.content, f.err
}

// unconfiguredCompleter stands in for a client built without credentials.
type unconfiguredCompleter struct{}

func (unconfiguredCompleter) Complete(context.Context, string, string) (string, error) {
	return "", llm.ErrNotConfigured
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func postQa(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/report-qa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

const validBody = `{"summary":{"monthTotals":[{"label":"month_1","total":1200}],"healthScore":62,"healthLabel":"Fair"}}`

func TestReviewReturnsSanitizedVerdict(t *testing.T) {
	fake := &fakeCompleter{content: `{"pass":false,"severity":"high","omitSections":["evidence","period"],"notesForUser":"Check totals.","narrativeBullets":["One","Two"],"checks":[{"rule":"totals","result":"fail"}]}`}
	router := newTestRouter(NewHandler(fake, time.Second))

	resp := postQa(router, validBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var qa qualitygate.QaResult
	if err := json.Unmarshal(resp.Body.Bytes(), &qa); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if qa.Pass || qa.Severity != qualitygate.SeverityHigh {
		t.Fatalf("unexpected verdict %+v", qa)
	}
	if len(qa.OmitSections) != 1 || qa.OmitSections[0] != "evidence" {
		t.Fatalf("expected only omittable sections, got %v", qa.OmitSections)
	}

	if fake.system != llm.ReportQAPrompt() {
		t.Fatalf("expected the review instruction as system message")
	}
	if !strings.Contains(fake.user, `"healthScore":62`) {
		t.Fatalf("expected summary JSON as user message, got %s", fake.user)
	}
}

func TestReviewRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(NewHandler(&fakeCompleter{content: `{"pass":true}`}, time.Second))

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `nope`},
		{name: "missing summary", body: `{}`},
		{name: "null summary", body: `{"summary":null}`},
		{name: "wrong type", body: `{"summary":[1,2]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			resp := postQa(router, tt.body)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.Code)
			}
		})
	}
}

func TestReviewUpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		completer  llm.Completer
		wantStatus int
		wantCode   string
	}{
		{name: "no client", completer: nil, wantStatus: http.StatusInternalServerError, wantCode: "missing_credentials"},
		{name: "unconfigured", completer: unconfiguredCompleter{}, wantStatus: http.StatusInternalServerError, wantCode: "missing_credentials"},
		{name: "timeout", completer: &fakeCompleter{err: llm.ErrTimeout}, wantStatus: http.StatusGatewayTimeout, wantCode: "upstream_timeout"},
		{name: "empty", completer: &fakeCompleter{err: llm.ErrEmptyCompletion}, wantStatus: http.StatusBadGateway, wantCode: "empty_completion"},
		{name: "upstream status", completer: &fakeCompleter{err: &llm.StatusError{Status: 429, Message: "slow down"}}, wantStatus: http.StatusBadGateway, wantCode: "upstream_error"},
		{name: "other error", completer: &fakeCompleter{err: errors.New("boom")}, wantStatus: http.StatusBadGateway, wantCode: "upstream_error"},
		{name: "non json", completer: &fakeCompleter{content: "Looks fine to me"}, wantStatus: http.StatusBadGateway, wantCode: "invalid_completion"},
		{name: "missing pass", completer: &fakeCompleter{content: `{"severity":"low"}`}, wantStatus: http.StatusBadGateway, wantCode: "invalid_completion"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{LLM: tt.completer, Timeout: time.Second}
			resp := postQa(newTestRouter(h), validBody)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, body.Error.Code)
			}
		})
	}
}

func TestReviewDeadline(t *testing.T) {
	router := newTestRouter(NewHandler(&fakeCompleter{wait: true}, 30*time.Millisecond))

	resp := postQa(router, validBody)
	if resp.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.Code)
	}
}
