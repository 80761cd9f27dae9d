package monitor

import (
	"sync"
	"time"

	"github.com/inaups/inaups/pkg/types"
)

// Recorder keeps the last N samples.
type Recorder struct {
	MaxRecordCount int
	samples        []types.Sample
	mu             *sync.Mutex
}

// NewRecorder returns a new Recorder.
func NewRecorder(maxRecordCount int) *Recorder {
	return &Recorder{
		MaxRecordCount: maxRecordCount,
		samples:        make([]types.Sample, 0),
		mu:             &sync.Mutex{},
	}
}

// Add adds a new sample.
func (r *Recorder) Add(s types.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Strip monotonic clock reading.
	s.Time = s.Time.Round(0)

	if len(r.samples) >= r.MaxRecordCount {
		r.samples = r.samples[1:]
	}
	r.samples = append(r.samples, s)
}

// Samples returns a copy of all samples, oldest first.
func (r *Recorder) Samples() []types.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]types.Sample(nil), r.samples...)
}

// SamplesSince returns the samples taken at or after t, oldest first.
func (r *Recorder) SamplesSince(t time.Time) []types.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := len(r.samples)
	for i > 0 && !r.samples[i-1].Time.Before(t) {
		i--
	}
	return append([]types.Sample(nil), r.samples[i:]...)
}

