package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	SubmissionsAccepted = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobs_submitted_total", Help: "Jobs accepted and dispatched"})
	AdmissionRejects    = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobs_rejected_total", Help: "Submissions rejected by the concurrency limit"})
	Completions         = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobs_completed_total", Help: "Jobs transitioned to COMPLETED"})
	DispatchFailures    = prometheus.NewCounter(prometheus.CounterOpts{Name: "jobs_dispatch_failures_total", Help: "Dispatches that failed after the record was persisted"})
	ActiveJobsGauge     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "jobs_active", Help: "ACTIVE jobs observed at the last admission check"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			SubmissionsAccepted,
			AdmissionRejects,
			Completions,
			DispatchFailures,
			ActiveJobsGauge,
		)
	})
	return promhttp.Handler()
}
