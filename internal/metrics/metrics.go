// Package metrics exposes job, stage and degradation counters in Prometheus
// format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"videogen/internal/services"
)

const namespace = "videogen"

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	jobsTotal       *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	captionModes    *prometheus.CounterVec
	captionSources  *prometheus.CounterVec
	templateSources *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		jobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "jobs_total",
			Help:      "Finished jobs by operation and outcome",
		}, []string{"operation", "outcome"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "job_duration_seconds",
			Help:      "Wall time of finished jobs",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 600},
		}, []string{"operation"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2.5, 10),
		}, []string{"operation", "stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Failed pipeline stages by error kind",
		}, []string{"operation", "stage", "kind"}),
		captionModes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "captions",
			Name:      "mode_total",
			Help:      "Caption mode chosen for rendered videos",
		}, []string{"mode"}),
		captionSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "captions",
			Name:      "source_lookups_total",
			Help:      "Provider word timing lookups by outcome reason",
		}, []string{"reason"}),
		templateSources: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "template_source_total",
			Help:      "Background used for rendered videos and why",
		}, []string{"source", "reason"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStage records a stage duration and, on failure, its error kind.
func (m *Metrics) ObserveStage(operation, stage string, elapsed time.Duration, err error) {
	m.stageDuration.WithLabelValues(operation, stage).Observe(elapsed.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(operation, stage, services.Kind(err)).Inc()
	}
}

// ObserveJob records a finished job.
func (m *Metrics) ObserveJob(operation string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = services.Kind(err)
	}
	m.jobsTotal.WithLabelValues(operation, outcome).Inc()
	m.jobDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CaptionMode counts the caption mode used by a render.
func (m *Metrics) CaptionMode(mode string) {
	m.captionModes.WithLabelValues(mode).Inc()
}

// CaptionSource counts a provider lookup outcome.
func (m *Metrics) CaptionSource(reason string) {
	m.captionSources.WithLabelValues(reason).Inc()
}

// TemplateSource counts the background used by a render.
func (m *Metrics) TemplateSource(source, reason string) {
	m.templateSources.WithLabelValues(source, reason).Inc()
}

// ObserveHTTP counts a served request.
func (m *Metrics) ObserveHTTP(route string, status int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
