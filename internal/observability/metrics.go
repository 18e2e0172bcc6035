package observability

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream call rate per provider (countries, geocoding, weather) and status label.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency per provider. Watch for: p95 approaching the configured timeout.
	UpstreamDuration *prometheus.HistogramVec

	// Upstream failures by provider and error category.
	UpstreamErrorsTotal *prometheus.CounterVec

	// Aggregations by lookup kind (code, name) and outcome (success or error kind).
	SummariesTotal *prometheus.CounterVec

	// Name resolutions by answering tier (directory, live_search).
	CountryResolutionsTotal *prometheus.CounterVec

	// Per-country summary count (allow-list; others go to "other").
	SummariesByCountryTotal *prometheus.CounterVec

	// Circuit breaker state per upstream: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	// Circuit breaker transitions per upstream.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	trackedCountriesMu sync.RWMutex
	trackedCountries   map[string]struct{}
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of upstream API calls",
		},
		[]string{"upstream", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream API latency in seconds (per call)",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"upstream", "status"},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamErrorsTotal",
			Help: "Upstream API failures by error category",
		},
		[]string{"upstream", "category"},
	)
	SummariesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelSummariesTotal",
			Help: "Travel summary aggregations by lookup kind and outcome",
		},
		[]string{"lookup", "outcome"},
	)
	CountryResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "countryResolutionsTotal",
			Help: "Country name resolutions by answering tier",
		},
		[]string{"tier"},
	)
	SummariesByCountryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelSummariesByCountryTotal",
			Help: "Travel summaries by country code (allow-list; others use country=other)",
		},
		[]string{"country"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state per upstream (0 closed, 1 open, 2 half-open)",
		},
		[]string{"upstream"},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions per upstream",
		},
		[]string{"upstream", "from", "to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamErrorsTotal,
		SummariesTotal, CountryResolutionsTotal, SummariesByCountryTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
	)
}

// SetTrackedCountries sets the allow-list for per-country metrics. Others increment "other".
func SetTrackedCountries(codes []string) {
	trackedCountriesMu.Lock()
	defer trackedCountriesMu.Unlock()
	trackedCountries = make(map[string]struct{}, len(codes))
	for _, c := range codes {
		trackedCountries[normalizeCountryForMetrics(c)] = struct{}{}
	}
}

// MetricCountryLabel returns the label used for code: the normalized code when tracked, else "other".
func MetricCountryLabel(code string) string {
	c := normalizeCountryForMetrics(code)
	trackedCountriesMu.RLock()
	_, ok := trackedCountries[c] // nil map read is safe in Go
	trackedCountriesMu.RUnlock()
	if ok {
		return c
	}
	return "other"
}

// RecordSummary records one aggregation attempt.
func RecordSummary(lookup, outcome, countryCode string) {
	SummariesTotal.WithLabelValues(lookup, outcome).Inc()
	if countryCode != "" {
		SummariesByCountryTotal.WithLabelValues(MetricCountryLabel(countryCode)).Inc()
	}
}

// RecordCircuitBreakerTransition counts a breaker state change for upstream.
func RecordCircuitBreakerTransition(upstream, from, to string) {
	CircuitBreakerTransitionsTotal.WithLabelValues(upstream, from, to).Inc()
}

// SetCircuitBreakerStateGauge sets the breaker state gauge for upstream.
func SetCircuitBreakerStateGauge(upstream string, v float64) {
	CircuitBreakerState.WithLabelValues(upstream).Set(v)
}

func normalizeCountryForMetrics(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
