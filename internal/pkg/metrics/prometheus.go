package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sp3dr4/hexlink/config"
)

// PrometheusRegistry implements the Registry interface using Prometheus metrics
type PrometheusRegistry struct {
	registry *prometheus.Registry
	config   config.MetricsConfig

	// HTTP Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business Metrics
	urlsCreatedTotal         prometheus.Counter
	urlsDeduplicatedTotal    prometheus.Counter
	urlsResolvedTotal        *prometheus.CounterVec
	cacheLookupsTotal        *prometheus.CounterVec
	aliasCollisionsTotal     prometheus.Counter
	aliasGenerationExhausted prometheus.Counter
}

// NewPrometheusRegistry creates a new Prometheus metrics registry
func NewPrometheusRegistry(cfg config.MetricsConfig) (Registry, error) {
	registry := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	httpRequestsTotal := counterVec("http_requests_total", "Total number of HTTP requests",
		LabelMethod, LabelPath, LabelStatusCode)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath, LabelStatusCode},
	)

	httpRequestsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	p := &PrometheusRegistry{
		registry:                 registry,
		config:                   cfg,
		httpRequestsTotal:        httpRequestsTotal,
		httpRequestDuration:      httpRequestDuration,
		httpRequestsInFlight:     httpRequestsInFlight,
		urlsCreatedTotal:         counter("urls_created_total", "Total number of new short aliases issued"),
		urlsDeduplicatedTotal:    counter("urls_deduplicated_total", "Total number of shorten requests answered with an existing alias"),
		urlsResolvedTotal:        counterVec("urls_resolved_total", "Total number of aliases resolved, by lookup source", LabelSource),
		cacheLookupsTotal:        counterVec("cache_lookups_total", "Total number of cache lookups, by namespace and result", LabelNamespace, LabelResult),
		aliasCollisionsTotal:     counter("alias_collisions_total", "Total number of generated alias candidates that were already taken"),
		aliasGenerationExhausted: counter("alias_generation_exhausted_total", "Total number of shorten requests that ran out of alias attempts"),
	}

	// Register all metrics
	metricsCollectors := []prometheus.Collector{
		p.httpRequestsTotal,
		p.httpRequestDuration,
		p.httpRequestsInFlight,
		p.urlsCreatedTotal,
		p.urlsDeduplicatedTotal,
		p.urlsResolvedTotal,
		p.cacheLookupsTotal,
		p.aliasCollisionsTotal,
		p.aliasGenerationExhausted,
	}

	for _, collector := range metricsCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	// Register Go runtime metrics if enabled
	if cfg.CollectRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return p, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration
func (p *PrometheusRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelPath:       path,
		LabelStatusCode: statusCode,
	}
	p.httpRequestsTotal.With(labels).Inc()
	p.httpRequestDuration.With(labels).Observe(duration)
}

func (p *PrometheusRegistry) IncHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Inc()
}

func (p *PrometheusRegistry) DecHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Dec()
}

func (p *PrometheusRegistry) IncURLsCreated() {
	p.urlsCreatedTotal.Inc()
}

func (p *PrometheusRegistry) IncURLsDeduplicated() {
	p.urlsDeduplicatedTotal.Inc()
}

// IncURLsResolved counts a resolve answered from source ("cache" or "store")
func (p *PrometheusRegistry) IncURLsResolved(source string) {
	p.urlsResolvedTotal.WithLabelValues(source).Inc()
}

// RecordCacheLookup counts a cache lookup outcome ("hit", "miss", "unavailable")
func (p *PrometheusRegistry) RecordCacheLookup(namespace, result string) {
	p.cacheLookupsTotal.WithLabelValues(namespace, result).Inc()
}

func (p *PrometheusRegistry) IncAliasCollisions() {
	p.aliasCollisionsTotal.Inc()
}

func (p *PrometheusRegistry) IncAliasGenerationExhausted() {
	p.aliasGenerationExhausted.Inc()
}

// GetHandler returns an HTTP handler for the metrics endpoint
func (p *PrometheusRegistry) GetHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
