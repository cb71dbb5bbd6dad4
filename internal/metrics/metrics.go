// Package metrics expone las métricas Prometheus del recomendador en
// GET /metrics.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineBuilds construcciones del motor por resultado (ok, error).
var EngineBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_engine_builds_total",
	Help: "Recommender engine builds by result.",
}, []string{"result"})

var EngineBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "animerec_engine_build_duration_seconds",
	Help:    "Time to load ratings, catalog and neighbor cache.",
	Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
})

// EngineReady 1 si hay un motor listo.
var EngineReady = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "animerec_engine_ready",
	Help: "Whether a ready recommender engine is held (1) or not (0).",
})

// Queries consultas por operación (similar, seen, titles) y resultado.
var Queries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_queries_total",
	Help: "Recommender queries by operation and result.",
}, []string{"op", "result"})

var QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "animerec_query_duration_seconds",
	Help:    "Recommender query latency in seconds.",
	Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
}, []string{"op"})

// NeighborLookups de dónde salió cada lista de vecinos (cache, fallback, memo).
var NeighborLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_neighbor_lookups_total",
	Help: "Neighbor list lookups by source.",
}, []string{"source"})

// ResponseCache aciertos y fallos del caché Redis de respuestas.
var ResponseCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_response_cache_total",
	Help: "Redis response cache lookups by result.",
}, []string{"result"})

var NeighborRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_neighbor_rebuilds_total",
	Help: "Neighbor cache rebuilds by result (ok, skipped, error).",
}, []string{"result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "animerec_http_requests_total",
	Help: "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "animerec_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveQuery registra una consulta terminada.
func ObserveQuery(op, result string, start time.Time) {
	Queries.WithLabelValues(op, result).Inc()
	QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Middleware usa el patrón de ruta de chi como label para no explotar la
// cardinalidad con query strings o ids.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack lo necesita el upgrade de WebSocket.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: el ResponseWriter no soporta Hijack")
	}
	rw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
