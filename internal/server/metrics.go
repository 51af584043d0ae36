package server

import (
	"net/http"

	"github.com/danielledeleo/seocms/internal/renderqueue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "seocms"

// Metrics are the server's Prometheus collectors. Each App owns a private
// registry so tests can build several apps in one process.
type Metrics struct {
	registry *prometheus.Registry

	PagesRendered   prometheus.Counter
	RenderDuration  prometheus.Histogram
	CacheLookups    *prometheus.CounterVec
	RedirectsServed *prometheus.CounterVec
	PagesPublished  prometheus.Counter
	PublishFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_rendered_total",
			Help:      "Pages run through the rendering pipeline.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering one page.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "page_cache_lookups_total",
			Help:      "Rendered page cache lookups by result.",
		}, []string{"result"}),
		RedirectsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "redirects_served_total",
			Help:      "Redirects answered by status code.",
		}, []string{"code"}),
		PagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_published_total",
			Help:      "Pages published by the publication batch.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "publish_failures_total",
			Help:      "Pages the publication batch moved to the error state.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PagesRendered,
		m.RenderDuration,
		m.CacheLookups,
		m.RedirectsServed,
		m.PagesPublished,
		m.PublishFailures,
	)
	return m
}

// watchQueue exports the render queue backlog per tier.
func (m *Metrics) watchQueue(q *renderqueue.Queue) {
	tiers := map[renderqueue.Tier]string{
		renderqueue.TierInteractive: "interactive",
		renderqueue.TierBackground:  "background",
	}
	for tier, name := range tiers {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "render_queue_pending",
			Help:        "Render jobs waiting for a worker.",
			ConstLabels: prometheus.Labels{"tier": name},
		}, func() float64 {
			return float64(q.Pending(tier))
		}))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
