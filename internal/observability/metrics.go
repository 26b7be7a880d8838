package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alert-to-announcement pipeline.
type Metrics struct {
	AlertsFetched   prometheus.Counter
	AlertsRejected  *prometheus.CounterVec // label: reason
	AlertsAnnounced prometheus.Counter
	AudioFailures   prometheus.Counter
	PipelineRunning prometheus.Gauge

	PollDuration prometheus.Histogram

	// Sequencer metrics.
	QueueDepth          prometheus.Gauge
	AnnounceDuration    prometheus.Histogram
	DeviceCommandErrors prometheus.Counter
	IdleWaitTimeouts    prometheus.Counter

	// Audit publishing metrics.
	AuditPublished prometheus.Counter
	AuditErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AlertsFetched,
		m.AlertsRejected,
		m.AlertsAnnounced,
		m.AudioFailures,
		m.PipelineRunning,
		m.PollDuration,
		m.QueueDepth,
		m.AnnounceDuration,
		m.DeviceCommandErrors,
		m.IdleWaitTimeouts,
		m.AuditPublished,
		m.AuditErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics backed by an unregistered collector set
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "alerts_fetched_total",
			Help:      "Total alerts received from the feed, including repeats.",
		}),
		AlertsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "alerts_rejected_total",
			Help:      "Alerts skipped before header synthesis, by rejection reason.",
		}, []string{"reason"}),
		AlertsAnnounced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "alerts_announced_total",
			Help:      "Alerts handed to the announcement sequencer.",
		}),
		AudioFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "audio_failures_total",
			Help:      "Announcements abandoned because audio generation failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eas_alert",
			Name:      "pipeline_running",
			Help:      "1 when the poll loop is active, 0 when shut down.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eas_alert",
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-dispatch cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eas_alert",
			Name:      "queue_depth",
			Help:      "Announcement jobs waiting in the sequencer queue.",
		}),
		AnnounceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eas_alert",
			Name:      "announce_duration_seconds",
			Help:      "Wall time from play command to device idle, per job.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		DeviceCommandErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "device_command_errors_total",
			Help:      "Failed play commands to output devices.",
		}),
		IdleWaitTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "idle_wait_timeouts_total",
			Help:      "Jobs completed via the idle-wait ceiling instead of device idle.",
		}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "audit_published_total",
			Help:      "Announcement audit events published to Kafka.",
		}),
		AuditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eas_alert",
			Name:      "audit_errors_total",
			Help:      "Failed audit event publishes.",
		}),
	}
}
