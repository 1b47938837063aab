package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "robotzoo"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Metrics holds the bot counters.
type Metrics struct {
	PlatformCalls    *prometheus.CounterVec
	PlatformDuration *prometheus.HistogramVec
	StatusesPosted   *prometheus.CounterVec
	PostsInspected   *prometheus.CounterVec
	Commands         *prometheus.CounterVec
	AlarmsSet        prometheus.Counter
	AlarmsFired      *prometheus.CounterVec
	QueueDepth       prometheus.Gauge
}

// New creates and registers the bot metrics on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PlatformCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "platform_calls_total",
			Help:      "Outbound platform calls, by operation and result.",
		}, []string{"op", "result"}),
		PlatformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "platform_call_duration_seconds",
			Help:      "Duration of outbound platform calls in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		StatusesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statuses_posted_total",
			Help:      "Scheduled statuses posted, by kind and result.",
		}, []string{"kind", "result"}),
		PostsInspected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_inspected_total",
			Help:      "Firehose posts inspected, by verdict.",
		}, []string{"verdict"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Admin commands handled, by command.",
		}, []string{"command"}),
		AlarmsSet: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_set_total",
			Help:      "Alarms parsed from mentions.",
		}),
		AlarmsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_fired_total",
			Help:      "Alarm replies sent, by result.",
		}, []string{"result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inspect_queue_depth",
			Help:      "Posts waiting for inspection.",
		}),
	}

	reg.MustRegister(
		m.PlatformCalls, m.PlatformDuration, m.StatusesPosted, m.PostsInspected,
		m.Commands, m.AlarmsSet, m.AlarmsFired, m.QueueDepth,
	)
	return m
}

// NewNop returns metrics registered on a throwaway registry
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Result maps an error onto the "result" label
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
