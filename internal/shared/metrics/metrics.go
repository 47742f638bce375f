package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	reportsGeneratedTotal      atomic.Uint64
	reportsInvalidTotal        atomic.Uint64
	reportsSafeModeTotal       atomic.Uint64
	reportQaSkippedTotal       atomic.Uint64
	reportNumericWarningsTotal atomic.Uint64
	advisoryFailedTotal        atomic.Uint64

	reportDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 20000})
)

// IncReportsGenerated counts a completed pipeline run.
func IncReportsGenerated() {
	reportsGeneratedTotal.Add(1)
}

// IncReportsInvalid counts a run whose generated report failed validation.
func IncReportsInvalid() {
	reportsInvalidTotal.Add(1)
}

// IncReportsSafeMode counts a run delivered in safe mode.
func IncReportsSafeMode() {
	reportsSafeModeTotal.Add(1)
}

// IncReportQaSkipped counts a run whose advisory review failed open.
func IncReportQaSkipped() {
	reportQaSkippedTotal.Add(1)
}

// AddNumericWarnings adds the numeric warnings raised during generation.
func AddNumericWarnings(n int) {
	if n <= 0 {
		return
	}
	reportNumericWarningsTotal.Add(uint64(n))
}

// IncAdvisoryFailed counts a non-200 answer from the advisory proxy.
func IncAdvisoryFailed() {
	advisoryFailedTotal.Add(1)
}

// ObserveReportDurationMs records a pipeline duration in milliseconds.
func ObserveReportDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	reportDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "reports_generated_total", "Total reports generated", reportsGeneratedTotal.Load())
	writeCounter(&buf, "reports_invalid_total", "Total generated reports that failed validation", reportsInvalidTotal.Load())
	writeCounter(&buf, "reports_safe_mode_total", "Total reports delivered in safe mode", reportsSafeModeTotal.Load())
	writeCounter(&buf, "report_qa_skipped_total", "Total reports whose QA review was skipped", reportQaSkippedTotal.Load())
	writeCounter(&buf, "report_numeric_warnings_total", "Total numeric warnings raised during generation", reportNumericWarningsTotal.Load())
	writeCounter(&buf, "advisory_failed_total", "Total failed advisory reviews", advisoryFailedTotal.Load())
	writeHistogram(&buf, "report_duration_ms", "Report pipeline duration in milliseconds", reportDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
