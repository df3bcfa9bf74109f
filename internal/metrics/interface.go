package metrics

import "time"

// Recorder defines the interface for recording run metrics
type Recorder interface {
	// RecordFile records one dispatched file with its format and outcome
	RecordFile(format string, success bool, duration time.Duration)

	// RecordArchive records one archive run and the number of outputs it produced
	RecordArchive(success bool, outputs int, duration time.Duration)
}

// NopRecorder discards all metrics
type NopRecorder struct{}

func (NopRecorder) RecordFile(string, bool, time.Duration) {}
func (NopRecorder) RecordArchive(bool, int, time.Duration) {}

var _ Recorder = NopRecorder{}
