// Package metrics exposes Prometheus instrumentation for the pipeline
// stages and queue outcomes, plus an HTTP handler to serve them, ported
// from the teacher's metrics registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "condenser_messages_received_total",
		Help: "Total number of report-batch messages pulled from the queue",
	})

	messagesAcked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "condenser_messages_acked_total",
		Help: "Total number of messages acknowledged after a successful publish",
	})

	messagesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "condenser_messages_rejected_total",
		Help: "Total number of messages rejected, by requeue decision and reason",
	}, []string{"requeue", "reason"})

	analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "condenser_analysis_stage_duration_seconds",
		Help:    "Duration of each analysis stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	publishOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "condenser_publish_outcomes_total",
		Help: "Total HTTP POST outcomes to the downstream API, by status class",
	}, []string{"outcome"})

	hurstValues = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "condenser_hurst_value",
		Help:    "Distribution of reported Hurst exponent values",
		Buckets: []float64{0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0, 1.2, 1.5},
	}, []string{"direction", "estimator"})

	usageValues = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "condenser_usage_value",
		Help:    "Distribution of reported per-direction usage values",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"direction"})

	qualityValues = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "condenser_quality_value",
		Help:    "Distribution of reported per-direction quality values",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"direction"})

	hostCPUPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "condenser_host_cpu_percent",
		Help: "Process CPU usage percentage sampled periodically",
	})

	hostMemoryBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "condenser_host_memory_bytes",
		Help: "Process resident memory sampled periodically",
	})
)

func init() {
	prometheus.MustRegister(
		messagesReceived,
		messagesAcked,
		messagesRejected,
		analysisDuration,
		publishOutcomes,
		hurstValues,
		usageValues,
		qualityValues,
		hostCPUPercent,
		hostMemoryBytes,
	)
}

// RecordMessageReceived increments the received-message counter.
func RecordMessageReceived() {
	messagesReceived.Inc()
}

// RecordMessageAcked increments the acked-message counter.
func RecordMessageAcked() {
	messagesAcked.Inc()
}

// RecordMessageRejected increments the rejected-message counter, labeled by
// whether the message was requeued and the triggering reason tag.
func RecordMessageRejected(requeued bool, reason string) {
	messagesRejected.WithLabelValues(boolLabel(requeued), reason).Inc()
}

// ObserveStageDuration records how long an analysis stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	analysisDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordPublishOutcome records the outcome of an HTTP POST to the
// downstream API ("success", "transient", "configuration").
func RecordPublishOutcome(outcome string) {
	publishOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveHurst records a reported Hurst value for a direction/estimator
// pair ("upstream"/"downstream", "rs"/"wavelet").
func ObserveHurst(direction, estimator string, value float64) {
	hurstValues.WithLabelValues(direction, estimator).Observe(value)
}

// ObserveUsage records a reported usage value for a direction.
func ObserveUsage(direction string, value float64) {
	usageValues.WithLabelValues(direction).Observe(value)
}

// ObserveQuality records a reported quality value for a direction.
func ObserveQuality(direction string, value float64) {
	qualityValues.WithLabelValues(direction).Observe(value)
}

// SetHostResourceUsage updates the periodic host-resource gauges.
func SetHostResourceUsage(cpuPercent float64, memoryBytes uint64) {
	hostCPUPercent.Set(cpuPercent)
	hostMemoryBytes.Set(float64(memoryBytes))
}

// Handler returns the HTTP handler serving the Prometheus exposition
// format at the configured metrics address.
func Handler() http.Handler {
	return promhttp.Handler()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
