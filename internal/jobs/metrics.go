// Package jobmetrics instruments the asynq jobs of the worker.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every job.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stores   *prometheus.CounterVec
	flagged  *prometheus.CounterVec
}

var (
	fallbackOnce sync.Once
	fallback     *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer shares
// one set registered on the default Prometheus registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	fallbackOnce.Do(func() {
		fallback = register(prometheus.DefaultRegisterer)
	})
	return fallback
}

// Tracker measures one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts measuring a run of job. It is safe on a nil Metrics.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the outcome and hands err back so it can be used in a deferred
// assignment to the named result.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, outcome).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveScan records how many stores a scan visited and how many items it
// flagged per kind, e.g. "expired" or "reorder".
func (m *Metrics) ObserveScan(job string, stores int, flagged map[string]int) {
	if m == nil {
		return
	}
	if stores > 0 {
		m.stores.WithLabelValues(job).Add(float64(stores))
	}
	for kind, n := range flagged {
		if n > 0 {
			m.flagged.WithLabelValues(job, kind).Add(float64(n))
		}
	}
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_total",
			Help: "Job runs by job type and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_failures_total",
			Help: "Failed job runs by job type.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "odyssey_job_duration_seconds",
			Help:    "Job run duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_stores_processed_total",
			Help: "Stores visited by scan jobs.",
		}, []string{"job"}),
		flagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odyssey_jobs_items_flagged_total",
			Help: "Inventory items flagged by scan jobs, by kind.",
		}, []string{"job", "kind"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.stores, m.flagged)
	return m
}
