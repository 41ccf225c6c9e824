// Package jobs runs periodic maintenance such as search log retention.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const MetricJobRunsTotal = "prepwise_job_runs_total"

// Job is one unit of periodic work.
type Job interface {
	Run(ctx context.Context) error
}

// Metrics counts job runs by worker and outcome.
type Metrics struct {
	runs *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricJobRunsTotal,
			Help: "Background job runs by worker and outcome",
		}, []string{"worker", "outcome"}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	return reg.Register(m.runs)
}

func (m *Metrics) observe(worker string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(worker, outcome).Inc()
}

type WorkerConfig struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single run. Zero lets a run take the whole interval.
	Timeout time.Duration
	Metrics *Metrics
}

// Worker runs a Job once at start and then on every tick until ctx is done
// or Stop is called. Runs never overlap.
type Worker struct {
	cfg    WorkerConfig
	job    Job
	logger *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(job Job, cfg WorkerConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 || cfg.Timeout > cfg.Interval {
		cfg.Timeout = cfg.Interval
	}
	return &Worker{
		cfg:    cfg,
		job:    job,
		logger: logger.With("worker", cfg.Name),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("worker started", "interval", w.cfg.Interval)
	w.run(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped", "reason", "context done")
			return
		case <-w.stop:
			w.logger.Info("worker stopped", "reason", "stop requested")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	err := w.job.Run(runCtx)
	w.cfg.Metrics.observe(w.cfg.Name, err)
	if err != nil {
		w.logger.Error("job run failed", "error", err)
	}
}

// Stop signals the loop and waits for the current run to finish. Safe to
// call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
