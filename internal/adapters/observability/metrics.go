package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront", Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	ReviewOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "storefront", Name: "review_operations_total", Help: "Resolved review aggregator operations."},
		[]string{"class", "outcome", "kind"},
	)
	ReviewOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storefront", Name: "review_operation_duration_seconds",
			Help:    "Time from dispatch to resolution of review operations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "storefront", Name: "active_sessions", Help: "Viewer sessions currently held."},
	)
)

// Serve exposes reg on METRICS_ADDR when it is set.
func Serve(reg *prometheus.Registry) {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	srv := MetricsServer(addr, reg)

	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// MetricsServer is the standalone /metrics listener for reg.
func MetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, CacheEvents,
		ReviewOperations, ReviewOperationLatency, ActiveSessions)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

// ObserveOperation records one resolution; kind is the error kind or "none".
// A zero dur means the operation was rejected before dispatch.
func ObserveOperation(class, outcome, kind string, dur time.Duration) {
	ReviewOperations.WithLabelValues(class, outcome, kind).Inc()
	if dur > 0 {
		ReviewOperationLatency.WithLabelValues(class).Observe(dur.Seconds())
	}
}

func SetActiveSessions(n int) { ActiveSessions.Set(float64(n)) }
