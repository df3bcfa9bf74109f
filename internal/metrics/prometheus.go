package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder on a private registry so a single
// batch run can be exported as a node-exporter textfile.
type PrometheusRecorder struct {
	registry        *prometheus.Registry
	filesTotal      *prometheus.CounterVec
	fileDuration    *prometheus.HistogramVec
	archivesTotal   *prometheus.CounterVec
	archiveDuration prometheus.Histogram
	archiveOutputs  prometheus.Gauge
	lastRun         prometheus.Gauge
}

// NewPrometheusRecorder creates a new PrometheusRecorder and registers metrics
func NewPrometheusRecorder() *PrometheusRecorder {
	recorder := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docswap_files_total",
				Help: "Total number of files dispatched to a format handler",
			},
			[]string{"format", "success"},
		),
		fileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docswap_file_duration_seconds",
				Help:    "Duration of single file substitutions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),
		archivesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docswap_archives_total",
				Help: "Total number of archives processed",
			},
			[]string{"success"},
		),
		archiveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docswap_archive_duration_seconds",
				Help:    "Duration of whole archive runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		archiveOutputs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docswap_archive_outputs",
				Help: "Number of modified files packed by the last archive run",
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docswap_last_run_timestamp_seconds",
				Help: "Unix time of the last recorded run",
			},
		),
	}

	recorder.registry.MustRegister(
		recorder.filesTotal,
		recorder.fileDuration,
		recorder.archivesTotal,
		recorder.archiveDuration,
		recorder.archiveOutputs,
		recorder.lastRun,
	)

	return recorder
}

// RecordFile records one dispatched file with its format and outcome
func (r *PrometheusRecorder) RecordFile(format string, success bool, duration time.Duration) {
	format = strings.TrimPrefix(format, ".")
	r.filesTotal.WithLabelValues(format, successLabel(success)).Inc()
	r.fileDuration.WithLabelValues(format).Observe(duration.Seconds())
	r.lastRun.SetToCurrentTime()
}

// RecordArchive records one archive run and the number of outputs it produced
func (r *PrometheusRecorder) RecordArchive(success bool, outputs int, duration time.Duration) {
	r.archivesTotal.WithLabelValues(successLabel(success)).Inc()
	r.archiveDuration.Observe(duration.Seconds())
	r.archiveOutputs.Set(float64(outputs))
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all gathered metrics to path in the text exposition format.
func (r *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func successLabel(success bool) string {
	if success {
		return "true"
	}
	return "false"
}

var _ Recorder = (*PrometheusRecorder)(nil)
