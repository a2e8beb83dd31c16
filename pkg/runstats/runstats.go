// Package runstats counts script runs and their output for the
// session's Observer hook and exports them as Prometheus metrics.
package runstats

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/runner"
)

// Stats implements session.Observer. Methods are called on the GUI
// thread; the underlying collectors are safe to scrape concurrently.
type Stats struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	lines    *prometheus.CounterVec
	errors   prometheus.Counter
	duration prometheus.Histogram
	active   prometheus.Gauge
}

// New creates Stats backed by a fresh registry.
func New() *Stats {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Stats{
		registry: reg,
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kscratch_runs_total",
				Help: "Finished script runs by outcome",
			},
			[]string{"outcome"},
		),
		lines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kscratch_output_lines_total",
				Help: "Interpreter output lines by kind",
			},
			[]string{"kind"},
		),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "kscratch_error_marker_lines_total",
			Help: "Output lines mentioning error:",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "kscratch_run_duration_seconds",
			Help:    "Wall time from spawn to exit",
			Buckets: prometheus.DefBuckets,
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "kscratch_run_active",
			Help: "1 while a script is running",
		}),
	}
}

// Registry exposes the collectors, for example to an HTTP handler.
func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Stats) RunStarted() {
	s.active.Set(1)
}

func (s *Stats) LineObserved(entry diagnostic.Entry) {
	s.lines.WithLabelValues(entry.Kind.String()).Inc()
	if diagnostic.ContainsErrorMarker(entry.Text) {
		s.errors.Inc()
	}
}

func (s *Stats) RunFinished(res runner.Result) {
	s.active.Set(0)
	outcome := res.Outcome.String()
	if res.Outcome == runner.ExitedNormally && res.Cancelled {
		outcome = "cancelled"
	}
	s.runs.WithLabelValues(outcome).Inc()
	if res.Outcome != runner.StartFailed {
		s.duration.Observe(res.Duration.Seconds())
	}
}

// WriteTextfile writes the metrics in the text exposition format for
// the node_exporter textfile collector. The file is replaced atomically.
func (s *Stats) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
