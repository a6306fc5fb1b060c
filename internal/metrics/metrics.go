// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the extraction pipeline.
//
// Call sites record steps, rows and statements through the package functions;
// a concrete system (Pushgateway, DogStatsD) is installed once at startup via
// SetBackend. The default backend discards everything, so instrumentation is
// always safe to call.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal       = "doc2db_step_total"
	StepDuration    = "doc2db_step_duration_seconds"
	RowsTotal       = "doc2db_rows_total"
	StatementsTotal = "doc2db_statements_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a pipeline step and records its latency.
// Steps: extract, oracle, select, apply_schema, ingest, preview.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow counts ingested rows of a kind ("inserted", "skipped").
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordStatements counts schema statements of a kind ("executed",
// "skipped", "failed").
func RecordStatements(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(StatementsTotal, float64(delta), Labels{"job": job, "kind": kind})
}
