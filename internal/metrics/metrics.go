package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for engine activity. Everything is
// registered on a private registry so tests can create instances freely.
type Metrics struct {
	registry *prometheus.Registry

	ReadingsGenerated prometheus.Counter
	AlertsRaised      *prometheus.CounterVec
	RuleFirings       prometheus.Counter
	ActionFailures    prometheus.Counter
	Predictions       prometheus.Counter

	ActiveSensors      prometheus.Gauge
	OnlineDevices      prometheus.Gauge
	ActiveAlerts       prometheus.Gauge
	TrainingQueueDepth prometheus.Gauge

	TickDuration prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReadingsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_readings_generated_total",
			Help: "Synthetic sensor readings generated.",
		}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "facility_alerts_raised_total",
			Help: "Alerts raised, by severity.",
		}, []string{"severity"}),
		RuleFirings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_rule_firings_total",
			Help: "Automation rule executions.",
		}),
		ActionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_action_failures_total",
			Help: "Failed automation actions.",
		}),
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "facility_predictions_total",
			Help: "Predictions generated by the predictive subsystem.",
		}),
		ActiveSensors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "facility_active_sensors",
			Help: "Sensors currently active.",
		}),
		OnlineDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "facility_online_devices",
			Help: "Devices currently online.",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "facility_active_alerts",
			Help: "Alerts currently active.",
		}),
		TrainingQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "facility_training_queue_depth",
			Help: "Readings queued for predictive training.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "facility_tick_duration_seconds",
			Help:    "Duration of one scheduler tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.ReadingsGenerated, m.AlertsRaised, m.RuleFirings, m.ActionFailures,
		m.Predictions, m.ActiveSensors, m.OnlineDevices, m.ActiveAlerts,
		m.TrainingQueueDepth, m.TickDuration,
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
