package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRenderIncludesReportSeries(t *testing.T) {
	IncReportsGenerated()
	IncReportsSafeMode()
	AddNumericWarnings(3)
	AddNumericWarnings(-1)
	ObserveReportDurationMs(12)

	out := Render()
	for _, want := range []string{
		"# TYPE reports_generated_total counter",
		"reports_safe_mode_total ",
		"report_numeric_warnings_total ",
		"report_qa_skipped_total ",
		"advisory_failed_total ",
		`report_duration_ms_bucket{le="25"}`,
		`report_duration_ms_bucket{le="+Inf"}`,
		"report_duration_ms_count ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 2 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
	if snap.sum != 555 {
		t.Fatalf("expected sum 555, got %v", snap.sum)
	}
}

func TestHandlerContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", Handler())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
