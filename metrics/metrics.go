// Package metrics provides Prometheus metrics for a consolidation run.
//
// A run is a short-lived process, so metrics are kept in a private
// registry and exported once at the end in the node_exporter textfile
// format rather than served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"consolidate/models"
)

const namespace = "consolidate"

// Command result label values.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultTimedOut  = "timed_out"
)

// Metrics holds the collectors for one run.
type Metrics struct {
	Registry *prometheus.Registry

	clips              prometheus.Counter
	sources            prometheus.Counter
	commands           *prometheus.CounterVec
	conversionFailures prometheus.Counter
	commandDuration    prometheus.Histogram
	exitStatus         prometheus.Gauge
	lastRun            prometheus.Gauge
}

// New creates a Metrics with every collector registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		clips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clips_total",
			Help:      "Video clip references read from the timeline",
		}),
		sources: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_total",
			Help:      "Distinct source files after consolidation",
		}),
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "External commands executed, by result",
		}, []string{"result"}),
		conversionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_failures_total",
			Help:      "Sources whose frame rate could not be determined",
		}),
		commandDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time of each external command",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		exitStatus: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_exit_status",
			Help:      "Exit status of the most recent run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the most recent run finished",
		}),
	}
}

// AddClips counts clip references read from the timeline.
func (m *Metrics) AddClips(n int) {
	m.clips.Add(float64(n))
}

// AddSources counts distinct consolidated sources.
func (m *Metrics) AddSources(n int) {
	m.sources.Add(float64(n))
}

// AddConversionFailures counts sources that could not be converted to frames.
func (m *Metrics) AddConversionFailures(n int) {
	m.conversionFailures.Add(float64(n))
}

// ObserveOutcome records one command outcome.
func (m *Metrics) ObserveOutcome(o models.CommandOutcome) {
	m.commands.WithLabelValues(resultLabel(o)).Inc()
	m.commandDuration.Observe(o.Duration.Seconds())
}

// RecordExit records the run's exit status and completion time.
func (m *Metrics) RecordExit(status int, at time.Time) {
	m.exitStatus.Set(float64(status))
	m.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func resultLabel(o models.CommandOutcome) string {
	switch {
	case o.Succeeded:
		return ResultSucceeded
	case o.TimedOut:
		return ResultTimedOut
	default:
		return ResultFailed
	}
}
