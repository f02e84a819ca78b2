// Package metrics exposes Prometheus collectors for the HTTP registration
// surface, script execution, and the Trigger Loop.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "botengine",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botengine",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "botengine",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	scriptRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botengine",
		Subsystem: "script",
		Name:      "runs_total",
		Help:      "Total number of script executions, grouped by outcome.",
	}, []string{"status"})

	scriptDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "botengine",
		Subsystem: "script",
		Name:      "run_duration_seconds",
		Help:      "Duration of script executions.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"status"})

	automationDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "botengine",
		Subsystem: "automation",
		Name:      "dispatches_total",
		Help:      "Total number of Trigger Loop dispatches, grouped by automation ID and outcome.",
	}, []string{"automation_id", "status"})

	browserSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "botengine",
		Subsystem: "browser",
		Name:      "sessions_active",
		Help:      "Current number of leased browser pool sessions.",
	})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		scriptRuns,
		scriptDuration,
		automationDispatches,
		browserSessionsActive,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, r.URL.Path).Observe(duration.Seconds())
	})
}

// RecordScriptRun records the outcome and duration of one script execution.
func RecordScriptRun(success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "ok"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	scriptRuns.WithLabelValues(status).Inc()
	scriptDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAutomationDispatch records one Trigger Loop dispatch for an automation.
func RecordAutomationDispatch(automationID string, success bool) {
	if automationID == "" {
		automationID = "unknown"
	}
	status := "error"
	if success {
		status = "ok"
	}
	automationDispatches.WithLabelValues(automationID, status).Inc()
}

// SetBrowserSessionsActive reports the current number of leased browser
// sessions, for dashboards that want to watch the pool against its
// configured MaxSessions.
func SetBrowserSessionsActive(n int) {
	browserSessionsActive.Set(float64(n))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
