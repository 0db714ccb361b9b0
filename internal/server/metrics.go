package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/trustchain/pkg/buildinfo"
	tcerrors "github.com/matzehuels/trustchain/pkg/errors"
	"github.com/matzehuels/trustchain/pkg/observability"
)

const namespace = "trustchain"

// Metrics backs the observability hooks with Prometheus collectors.
// Each instance owns its registry so tests can create several.
type Metrics struct {
	reg *prometheus.Registry

	fetches         *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	compileDuration prometheus.Histogram
	graphNodes      prometheus.Histogram
	renders         *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	superseded      prometheus.Counter

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	upstreamErrors   prometheus.Counter

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_fetch_total",
			Help:      "Number of chain fetches by result code",
		}, []string{"code"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_fetch_duration_seconds",
			Help:      "Chain fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_compile_duration_seconds",
			Help:      "Chain to graph compile latency",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		graphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes per compiled graph",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Number of render passes by format and result",
		}, []string{"format", "result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render latency for all requested formats",
			Buckets:   prometheus.DefBuckets,
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_superseded_total",
			Help:      "Loads discarded because a newer load started",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookup_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Chain API responses by status code",
		}, []string{"host", "status"}),
		upstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Chain API request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		upstreamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Chain API requests that got no response",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route and status",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Served HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Version number and build info",
	}, []string{"version", "commit"})
	info.WithLabelValues(buildinfo.Version, buildinfo.Commit).Set(1)

	m.reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		info,
		m.fetches, m.fetchDuration, m.compileDuration, m.graphNodes,
		m.renders, m.renderDuration, m.superseded,
		m.cacheLookups, m.cacheBytes,
		m.upstreamRequests, m.upstreamDuration, m.upstreamErrors,
		m.requests, m.requestDuration,
	)
	return m
}

// Register installs m as the process-wide observability hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.reg, promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

func (m *Metrics) OnFetchStart(context.Context, string) {}

func (m *Metrics) OnFetchComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = string(tcerrors.GetCode(err))
		if code == "" {
			code = string(tcerrors.ErrCodeInternal)
		}
	}
	m.fetches.WithLabelValues(code).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCompileComplete(_ context.Context, _ string, _, nodes, _ int, d time.Duration) {
	m.compileDuration.Observe(d.Seconds())
	m.graphNodes.Observe(float64(nodes))
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	for _, f := range formats {
		m.renders.WithLabelValues(f, result).Inc()
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) OnSuperseded(context.Context, string) { m.superseded.Inc() }

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.upstreamRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.upstreamDuration.Observe(d.Seconds())
}

func (m *Metrics) OnError(context.Context, string, string, string, error) { m.upstreamErrors.Inc() }

func (m *Metrics) observeRequest(route string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}
