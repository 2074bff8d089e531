package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	analysesTotal        atomic.Uint64
	generationsSucceeded atomic.Uint64
	generationsFailed    atomic.Uint64
	compileFailuresTotal atomic.Uint64
	sessionsExpiredTotal atomic.Uint64

	fallbacksTotal   = newCounterVec("stage")
	renderPathTotal  = newCounterVec("path")
	llmCallsTotal    = newCounterVec("provider", "purpose", "outcome")
	requestsTotal    = newCounterVec("method", "route", "status")
	generationMillis = newHistogram([]float64{500, 1000, 2500, 5000, 10000, 20000, 30000, 60000, 120000})
	requestMillis    = newHistogram([]float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000})
	keywordsGained   = newHistogram([]float64{0, 1, 2, 3, 5, 8, 13})
)

// IncAnalysis counts one completed analyze request.
func IncAnalysis() {
	analysesTotal.Add(1)
}

// IncGeneration counts a finished generation by outcome.
func IncGeneration(ok bool) {
	if ok {
		generationsSucceeded.Add(1)
		return
	}
	generationsFailed.Add(1)
}

// IncCompileFailure counts markup that the compiler rejected.
func IncCompileFailure() {
	compileFailuresTotal.Add(1)
}

// IncFallback counts a deterministic fallback taken at a pipeline stage.
func IncFallback(stage string) {
	fallbacksTotal.Inc(stage)
}

// IncRenderPath counts which markup path produced a document.
func IncRenderPath(path string) {
	renderPathTotal.Inc(path)
}

// IncLLMCall counts one provider round-trip; a nil err is an "ok" outcome.
func IncLLMCall(provider, purpose string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if purpose == "" {
		purpose = "unknown"
	}
	llmCallsTotal.Inc(provider, purpose, outcome)
}

// AddSessionsExpired counts entries purged by the sweeper.
func AddSessionsExpired(n int) {
	if n > 0 {
		sessionsExpiredTotal.Add(uint64(n))
	}
}

// ObserveGenerationDurationMs records a generation duration in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	generationMillis.Observe(value)
}

// ObserveKeywordsGained records how many job keywords an optimization added.
func ObserveKeywordsGained(n int) {
	keywordsGained.Observe(float64(n))
}

// HTTPObserver feeds request measurements from the logging middleware.
type HTTPObserver struct{}

// ObserveRequest implements middleware.Observer.
func (HTTPObserver) ObserveRequest(method, route string, status int, d time.Duration) {
	requestsTotal.Inc(method, route, strconv.Itoa(status))
	requestMillis.Observe(float64(d.Microseconds()) / 1000.0)
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
	writeCounter(&buf, "resume_analyses_total", "Total analyses completed", analysesTotal.Load())
	writeCounter(&buf, "resume_generations_succeeded_total", "Total generations that produced a document", generationsSucceeded.Load())
	writeCounter(&buf, "resume_generations_failed_total", "Total generations that failed", generationsFailed.Load())
	writeCounter(&buf, "resume_compile_failures_total", "Total markup documents rejected by the compiler", compileFailuresTotal.Load())
	writeCounter(&buf, "resume_sessions_expired_total", "Total session entries purged by the sweeper", sessionsExpiredTotal.Load())
	writeCounterVec(&buf, "resume_fallbacks_total", "Deterministic fallbacks taken per pipeline stage", fallbacksTotal)
	writeCounterVec(&buf, "resume_render_path_total", "Documents produced per markup path", renderPathTotal)
	writeCounterVec(&buf, "resume_llm_calls_total", "Model provider calls by purpose and outcome", llmCallsTotal)
	writeCounterVec(&buf, "http_requests_total", "HTTP requests by method, route and status", requestsTotal)
	writeHistogram(&buf, "resume_generation_duration_ms", "Generation duration in milliseconds", generationMillis.Snapshot())
	writeHistogram(&buf, "resume_keywords_gained", "Job keywords gained per optimization", keywordsGained.Snapshot())
	writeHistogram(&buf, "http_request_duration_ms", "HTTP request duration in milliseconds", requestMillis.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: make(map[string]uint64)}
}

func (v *counterVec) Inc(values ...string) {
	if len(values) != len(v.labels) {
		return
	}
	key := strings.Join(values, "\x00")
	v.mu.Lock()
	v.values[key]++
	v.mu.Unlock()
}

func (v *counterVec) snapshot() ([]string, map[string]uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	keys := make([]string, 0, len(v.values))
	for k, n := range v.values {
		out[k] = n
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, out
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
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, v *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := v.snapshot()
	for _, k := range keys {
		parts := strings.Split(k, "\x00")
		pairs := make([]string, len(parts))
		for i, p := range parts {
			pairs[i] = fmt.Sprintf("%s=%q", v.labels[i], p)
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", name, strings.Join(pairs, ","), values[k])
	}
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
