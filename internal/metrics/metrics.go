// Package metrics exposes the Job Engine's Prometheus collectors on a
// package-local registry, optionally served over HTTP by cmd/lv's
// `worker` subcommand.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	JobsDone = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lv_jobs_done_total",
		Help: "Total layer jobs completed successfully.",
	})
	JobsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lv_jobs_failed_total",
		Help: "Total layer jobs that recorded a permanent failure.",
	})
	JobsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lv_jobs_active",
		Help: "Number of layer jobs currently being processed.",
	})
	JobsTurbo = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lv_jobs_turbo",
		Help: "1 when the job engine is in turbo throttling mode, else 0.",
	})
	JobsPerMinute = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lv_jobs_per_minute",
		Help: "Rolling estimate of completed jobs per minute.",
	})
)

func init() {
	registry.MustRegister(JobsDone, JobsFailed, JobsActive, JobsTurbo, JobsPerMinute)
}

// Handler returns the HTTP handler serving this package's registry in the
// Prometheus exposition format, for an optional `/metrics` endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
