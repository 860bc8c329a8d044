// Package metrics exposes Prometheus instrumentation for the API.
//
//	router.Use(metrics.Middleware)
//	router.Handle("/metrics", metrics.Handler())
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buildmart"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "placed_total",
			Help:      "Orders placed, by payment method.",
		},
		[]string{"payment_method"},
	)

	OrderValue = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "total_amount",
		Help:      "Order totals in rupees.",
		Buckets:   []float64{500, 1_000, 5_000, 10_000, 50_000, 100_000, 500_000},
	})

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status changes, by target status.",
		},
		[]string{"status"},
	)

	NotificationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "failures_total",
		Help:      "Notifications that could not be stored.",
	})

	CatalogFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "fallbacks_total",
		Help:      "Product reads served from the sample catalog.",
	})

	CacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result.",
		},
		[]string{"result"}, // "hit" | "miss"
	)
)

// Registry holds every collector served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		OrdersPlaced,
		OrderValue,
		OrderTransitions,
		NotificationFailures,
		CatalogFallbacks,
		CacheResults,
	)
}

type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the recorder.
func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware records duration, count and in-flight requests. Routes are
// labelled by their mux template to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		status := strconv.Itoa(rec.status)
		RequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

// Handler serves the registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
