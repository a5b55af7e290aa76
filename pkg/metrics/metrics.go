// Package metrics collects counters for one train or predict run and writes
// them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flowguard"

// Metrics holds the collectors of a single run on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Files        *prometheus.CounterVec
	Flows        *prometheus.CounterVec
	DroppedRows  prometheus.Counter
	TrainingRows *prometheus.GaugeVec
	Accuracy     prometheus.Gauge
	Duration     *prometheus.GaugeVec
	LastRun      *prometheus.GaugeVec
}

// New creates and registers the run collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Capture files processed, by result",
			},
			[]string{"result"},
		),
		Flows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flows_total",
				Help:      "Flows classified, by predicted label",
			},
			[]string{"label"},
		),
		DroppedRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_rows_total",
				Help:      "Rows discarded because a feature could not be parsed",
			},
		),
		TrainingRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "training_rows",
				Help:      "Rows per class in each split of the last training run",
			},
			[]string{"split", "label"},
		),
		Accuracy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_accuracy",
				Help:      "Test split accuracy of the last trained model",
			},
		),
		Duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of the last run, by command",
			},
			[]string{"command"},
		),
		LastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished, by command",
			},
			[]string{"command"},
		),
	}

	m.registry.MustRegister(m.Files, m.Flows, m.DroppedRows, m.TrainingRows, m.Accuracy, m.Duration, m.LastRun)
	return m
}

// Finish records the duration and completion time of a command
func (m *Metrics) Finish(command string, started time.Time) {
	now := time.Now()
	m.Duration.WithLabelValues(command).Set(now.Sub(started).Seconds())
	m.LastRun.WithLabelValues(command).Set(float64(now.Unix()))
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every collected metric to path. An empty path is a
// no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
