// Package metrics provides Prometheus instrumentation and a Redis-backed
// per-platform stats tracker for the automation service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all automation Prometheus metrics
type Metrics struct {
	// Publish step metrics
	PublishAttempts  *prometheus.CounterVec
	PublishSuccesses *prometheus.CounterVec
	PublishFailures  *prometheus.CounterVec
	PublishSkipped   *prometheus.CounterVec
	PublishDuration  *prometheus.HistogramVec

	// Campaign lifecycle metrics
	CampaignsCompleted prometheus.Counter
	CampaignsPaused    prometheus.Counter

	// Continuation queue metrics
	ContinuationsEnqueued prometheus.Counter
	ContinuationsClaimed  prometheus.Counter
	ContinuationsFailed   prometheus.Counter
	QueueDepth            prometheus.Gauge
	ContinuationLag       prometheus.Histogram
}

// Provider wraps telemetry providers
type Provider struct {
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics
func NewProvider() *Provider {
	return &Provider{
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initPublishMetrics(m)
	initCampaignMetrics(m)
	initContinuationMetrics(m)
	return m
}

func initPublishMetrics(m *Metrics) {
	m.PublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_publish_attempts_total",
		Help: "Total publish steps started per platform",
	}, []string{"platform"})

	m.PublishSuccesses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_publish_successes_total",
		Help: "Total successful publishes per platform",
	}, []string{"platform"})

	m.PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_publish_failures_total",
		Help: "Total failed publishes per platform",
	}, []string{"platform"})

	m.PublishSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "automation_publish_skipped_total",
		Help: "Total publish steps skipped because the platform already had a link",
	}, []string{"platform"})

	m.PublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "automation_publish_duration_seconds",
		Help:    "Time to complete one publish step including content generation",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"platform"})
}

func initCampaignMetrics(m *Metrics) {
	m.CampaignsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_campaigns_completed_total",
		Help: "Total campaigns that reached every enabled platform",
	})

	m.CampaignsPaused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_campaigns_paused_total",
		Help: "Total campaigns paused after a failed step",
	})
}

func initContinuationMetrics(m *Metrics) {
	m.ContinuationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_continuations_enqueued_total",
		Help: "Total continuations scheduled for a later step",
	})

	m.ContinuationsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_continuations_claimed_total",
		Help: "Total continuations claimed by the worker",
	})

	m.ContinuationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "automation_continuations_failed_total",
		Help: "Total continuations that ended in failure",
	})

	m.QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "automation_continuation_queue_depth",
		Help: "Current pending continuations",
	})

	m.ContinuationLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "automation_continuation_lag_seconds",
		Help:    "Time between a continuation becoming due and its claim",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
	})
}

// RecordPublish records metrics for one publish step.
func (p *Provider) RecordPublish(platform string, success bool, duration time.Duration) {
	p.Metrics.PublishAttempts.WithLabelValues(platform).Inc()
	p.Metrics.PublishDuration.WithLabelValues(platform).Observe(duration.Seconds())
	if success {
		p.Metrics.PublishSuccesses.WithLabelValues(platform).Inc()
	} else {
		p.Metrics.PublishFailures.WithLabelValues(platform).Inc()
	}
}

// RecordSkip records an idempotent re-trigger that published nothing.
func (p *Provider) RecordSkip(platform string) {
	p.Metrics.PublishSkipped.WithLabelValues(platform).Inc()
}

// RecordCompletion records a campaign reaching the completed state.
func (p *Provider) RecordCompletion() {
	p.Metrics.CampaignsCompleted.Inc()
}

// RecordPause records a campaign paused on failure.
func (p *Provider) RecordPause() {
	p.Metrics.CampaignsPaused.Inc()
}

// RecordEnqueue records a scheduled continuation.
func (p *Provider) RecordEnqueue() {
	p.Metrics.ContinuationsEnqueued.Inc()
}

// RecordClaim records a claimed continuation and its scheduling lag.
func (p *Provider) RecordClaim(runAt time.Time) {
	p.Metrics.ContinuationsClaimed.Inc()
	if lag := time.Since(runAt); lag > 0 {
		p.Metrics.ContinuationLag.Observe(lag.Seconds())
	}
}

// RecordContinuationFailure records a continuation that failed.
func (p *Provider) RecordContinuationFailure() {
	p.Metrics.ContinuationsFailed.Inc()
}

// SetQueueDepth sets the current pending continuation count.
func (p *Provider) SetQueueDepth(depth int64) {
	p.Metrics.QueueDepth.Set(float64(depth))
}
