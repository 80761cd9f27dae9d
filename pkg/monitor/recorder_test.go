package monitor

import (
	"testing"
	"time"

	"github.com/inaups/inaups/pkg/types"
)

func TestRecorder(t *testing.T) {
	now := time.Now()
	r := NewRecorder(3)
	for i := 4; i >= 0; i-- {
		r.Add(types.Sample{Time: now.Add(-time.Duration(i) * 10 * time.Second), Percentage: float64(100 - i)})
	}

	samples := r.Samples()
	if len(samples) != 3 {
		t.Fatalf("len(Samples()) = %d, want 3", len(samples))
	}
	if samples[0].Percentage != 98 {
		t.Errorf("oldest sample = %v, want 98", samples[0].Percentage)
	}
	if samples[2].Percentage != 100 {
		t.Errorf("newest sample = %v, want 100", samples[2].Percentage)
	}

	tests := []struct {
		name  string
		since time.Time
		want  int
	}{
		{"all", now.Add(-time.Hour), 3},
		{"last two", now.Add(-15 * time.Second), 2},
		{"boundary is inclusive", now.Add(-10 * time.Second), 2},
		{"none", now.Add(time.Second), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(r.SamplesSince(tt.since)); got != tt.want {
				t.Errorf("SamplesSince() = %v, want %v", got, tt.want)
			}
		})
	}
}
