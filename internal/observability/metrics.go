package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specmcp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "specmcp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	sessionsConnected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specmcp",
			Subsystem: "session",
			Name:      "connected_total",
			Help:      "Sessions accepted by the registry.",
		},
		[]string{"protocol_version"},
	)
	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "specmcp",
			Subsystem: "session",
			Name:      "expired_total",
			Help:      "Sessions evicted by the liveness sweep.",
		},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "specmcp",
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently in the connected state.",
		},
	)
	heartbeats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specmcp",
			Subsystem: "session",
			Name:      "heartbeats_total",
			Help:      "Heartbeats processed, by whether the session was known.",
		},
		[]string{"known"},
	)
	promptRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "specmcp",
			Subsystem: "prompt",
			Name:      "renders_total",
			Help:      "Prompt renders served over HTTP, by outcome.",
		},
		[]string{"prompt", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			sessionsConnected, sessionsExpired, sessionsActive, heartbeats,
			promptRenders,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordSessionConnected(protocolVersion string) {
	RegisterMetrics()
	sessionsConnected.WithLabelValues(protocolVersion).Inc()
}

func RecordSessionsExpired(n int) {
	RegisterMetrics()
	sessionsExpired.Add(float64(n))
}

func SetActiveSessions(n int) {
	RegisterMetrics()
	sessionsActive.Set(float64(n))
}

func RecordHeartbeat(known bool) {
	RegisterMetrics()
	heartbeats.WithLabelValues(strconv.FormatBool(known)).Inc()
}

func RecordPromptRender(prompt, outcome string) {
	RegisterMetrics()
	promptRenders.WithLabelValues(prompt, outcome).Inc()
}
