// Copyright (c) 2025 BVK Chaitanya

// Package metrics exports refresh run statistics as prometheus metrics. Runs
// are short lived, so the metrics are pushed to a pushgateway after every
// run instead of being scraped.
package metrics

import (
	"context"
	"fmt"

	"github.com/bvk/refresher/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the pushgateway job label.
const JobName = "refresher"

type Recorder struct {
	Tasks          *prometheus.CounterVec
	CancelPolls    prometheus.Counter
	CreateAttempts prometheus.Counter
	LastRun        *prometheus.GaugeVec
	RunFailures    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a recorder with an isolated registry.
func New() *Recorder {
	r := &Recorder{
		Tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresher_tasks_total",
			Help: "Order workflows completed by run mode and final state.",
		}, []string{"mode", "state"}),
		CancelPolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refresher_cancel_polls_total",
			Help: "Order status queries made while confirming cancellations.",
		}),
		CreateAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refresher_create_attempts_total",
			Help: "Order creation requests sent to the exchange.",
		}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "refresher_last_run_timestamp_seconds",
			Help: "Finish time of the last run by mode.",
		}, []string{"mode"}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refresher_run_failures_total",
			Help: "Runs that failed with a fatal error by mode.",
		}, []string{"mode"}),
		registry: prometheus.NewRegistry(),
	}
	r.registry.MustRegister(r.Tasks, r.CancelPolls, r.CreateAttempts, r.LastRun, r.RunFailures)
	return r
}

// Registry returns the registry holding all refresher metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Record updates the metrics with the result of a run. Report can be nil when
// the run has failed.
func (r *Recorder) Record(mode refresh.Mode, report *refresh.Report, runErr error) {
	if runErr != nil {
		r.RunFailures.WithLabelValues(string(mode)).Inc()
	}
	if report == nil {
		return
	}
	for _, out := range report.Outcomes {
		r.Tasks.WithLabelValues(string(mode), string(out.State)).Inc()
		r.CancelPolls.Add(float64(out.CancelPolls))
		r.CreateAttempts.Add(float64(out.CreateAttempts))
	}
	if !report.FinishedAt.IsZero() {
		r.LastRun.WithLabelValues(string(mode)).Set(float64(report.FinishedAt.Unix()))
	}
}

// Push sends all metrics to the pushgateway at the given url.
func (r *Recorder) Push(ctx context.Context, url string) error {
	if err := push.New(url, JobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("could not push metrics to %q: %w", url, err)
	}
	return nil
}
