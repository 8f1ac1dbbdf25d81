package middleware

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects HTTP request metrics in Prometheus text exposition
// format. Counters keyed by method+status, duration summaries keyed by
// method+path pattern.
type Metrics struct {
	requestsTotal   sync.Map // "method:status" -> *int64
	requestDuration sync.Map // "method:path" -> *durationSummary
	activeRequests  int64
}

type durationSummary struct {
	mu    sync.Mutex
	sum   float64
	count int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			atomic.AddInt64(&m.activeRequests, 1)

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			atomic.AddInt64(&m.activeRequests, -1)

			key := fmt.Sprintf("%s:%d", r.Method, rw.status)
			counter, _ := m.requestsTotal.LoadOrStore(key, new(int64))
			atomic.AddInt64(counter.(*int64), 1)

			pathKey := r.Method + ":" + normalizePath(r.URL.Path)
			val, _ := m.requestDuration.LoadOrStore(pathKey, &durationSummary{})
			ds := val.(*durationSummary)
			ds.mu.Lock()
			ds.sum += time.Since(start).Seconds()
			ds.count++
			ds.mu.Unlock()
		})
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		fmt.Fprintf(w, "# HELP magazyn_http_active_requests Number of active HTTP requests.\n")
		fmt.Fprintf(w, "# TYPE magazyn_http_active_requests gauge\n")
		fmt.Fprintf(w, "magazyn_http_active_requests %d\n\n", atomic.LoadInt64(&m.activeRequests))

		fmt.Fprintf(w, "# HELP magazyn_http_requests_total Total number of HTTP requests.\n")
		fmt.Fprintf(w, "# TYPE magazyn_http_requests_total counter\n")
		for _, key := range sortedKeys(&m.requestsTotal) {
			val, _ := m.requestsTotal.Load(key)
			method, status, _ := strings.Cut(key, ":")
			fmt.Fprintf(w, "magazyn_http_requests_total{method=%q,status=%q} %d\n",
				method, status, atomic.LoadInt64(val.(*int64)))
		}

		fmt.Fprintf(w, "\n# HELP magazyn_http_request_duration_seconds HTTP request duration in seconds.\n")
		fmt.Fprintf(w, "# TYPE magazyn_http_request_duration_seconds summary\n")
		for _, key := range sortedKeys(&m.requestDuration) {
			val, _ := m.requestDuration.Load(key)
			ds := val.(*durationSummary)
			ds.mu.Lock()
			sum, count := ds.sum, ds.count
			ds.mu.Unlock()
			method, path, _ := strings.Cut(key, ":")
			fmt.Fprintf(w, "magazyn_http_request_duration_seconds_sum{method=%q,path=%q} %.6f\n", method, path, sum)
			fmt.Fprintf(w, "magazyn_http_request_duration_seconds_count{method=%q,path=%q} %d\n", method, path, count)
		}
	}
}

func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(key, _ interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// normalizePath collapses generated ids (dev_…, ret_…, user_…, serials)
// into {id} so one endpoint maps to one series.
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if isIDSegment(seg) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isIDSegment(s string) bool {
	for _, prefix := range []string{"dev_", "ret_", "log_", "inst_", "user_"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	if len(s) == 0 {
		return false
	}
	// plain numeric id
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
