package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/contacts-api/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session cache

	SessionCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contacts",
		Name:      "session_cache_lookups_total",
		Help:      "Bearer resolutions by cache result.",
	}, []string{"result"})

	// Notifications

	NotificationsEnqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contacts",
		Name:      "notifications_enqueued_total",
		Help:      "Email notifications handed to the queue, by kind and outcome.",
	}, []string{"kind", "outcome"})

	EmailsSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contacts",
		Name:      "emails_sent_total",
		Help:      "Emails delivered by the worker, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contacts",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "contacts",
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contacts",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contacts",
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"path"})
)

func Register() {
	prometheus.MustRegister(
		SessionCacheLookups,
		NotificationsEnqueuedTotal,
		EmailsSentTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		HTTPRequestsTotal,
		RateLimitedTotal,
	)
}

// NewServer exposes /metrics plus liveness and readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, res health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if res.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(res)
}
