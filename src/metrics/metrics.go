// Package metrics records per-build counters and writes them in the
// Prometheus text exposition format for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eshtab/traffic-delay-2022-analysis/src/models"
)

const namespace = "delayreport"

// Drop reasons used as the "reason" label of rows_dropped_total.
const (
	ReasonOutOfRange = "out_of_range"
)

// BuildMetrics holds the collectors of one process. Builds add to the
// counters; gauges describe the latest build.
type BuildMetrics struct {
	registry *prometheus.Registry

	Builds         *prometheus.CounterVec
	RowsLoaded     prometheus.Gauge
	RowsKept       prometheus.Gauge
	RowsDropped    *prometheus.CounterVec
	ChartsRendered prometheus.Gauge
	BuildDuration  prometheus.Gauge
	LastSuccess    prometheus.Gauge
}

func New() *BuildMetrics {
	m := &BuildMetrics{
		registry: prometheus.NewRegistry(),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Report builds by outcome.",
		}, []string{"outcome"}),
		RowsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_loaded",
			Help:      "Rows read from the raw dataset by the last build.",
		}),
		RowsKept: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_kept",
			Help:      "Rows left after cleaning in the last build.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows removed by the cleaner, by reason.",
		}, []string{"reason"}),
		ChartsRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "charts_rendered",
			Help:      "Charts written by the last build.",
		}),
		BuildDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last build.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
	}
	m.registry.MustRegister(
		m.Builds, m.RowsLoaded, m.RowsKept, m.RowsDropped,
		m.ChartsRendered, m.BuildDuration, m.LastSuccess,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *BuildMetrics) Registry() *prometheus.Registry { return m.registry }

// ObserveClean records the row counts of one cleaning pass.
func (m *BuildMetrics) ObserveClean(loaded, kept, outOfRange int) {
	m.RowsLoaded.Set(float64(loaded))
	m.RowsKept.Set(float64(kept))
	m.RowsDropped.WithLabelValues(ReasonOutOfRange).Add(float64(outOfRange))
}

// ObserveBuild records the end of a build. err == nil marks a success.
func (m *BuildMetrics) ObserveBuild(started time.Time, charts int, err error) {
	m.BuildDuration.Set(time.Since(started).Seconds())
	if err != nil {
		m.Builds.WithLabelValues("failure").Inc()
		return
	}
	m.Builds.WithLabelValues("success").Inc()
	m.ChartsRendered.Set(float64(charts))
	m.LastSuccess.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes all metrics to path. An empty path is a no-op.
func (m *BuildMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: metrics textfile: %v", models.ErrIO, err)
	}
	return nil
}
