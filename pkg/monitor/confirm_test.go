package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(ps ...float64) (Sampler, *int) {
	n := 0
	return func() (float64, error) {
		i := n
		if i >= len(ps) {
			i = len(ps) - 1
		}
		n++
		return ps[i], nil
	}, &n
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name      string
		samples   []float64
		window    time.Duration
		want      bool
		wantCalls int
	}{
		{"sustained low", []float64{15}, 5 * time.Second, true, 5},
		{"at threshold counts as low", []float64{20}, 5 * time.Second, true, 5},
		{"recovers on first sample", []float64{21}, 5 * time.Second, false, 1},
		{"recovers on last sample", []float64{15, 15, 15, 15, 25}, 5 * time.Second, false, 5},
		{"short window", []float64{15}, 1500 * time.Millisecond, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := newSteppingClock()
			sample, calls := sequence(tt.samples...)

			got, err := Confirm(context.Background(), clk, sample, 20, tt.window)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, *calls)
		})
	}
}

func TestConfirmErrors(t *testing.T) {
	clk := newSteppingClock()
	boom := errors.New("boom")

	_, err := Confirm(context.Background(), clk, func() (float64, error) { return 0, boom }, 20, 5*time.Second)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sample, _ := sequence(10)
	ok, err := Confirm(ctx, clk, sample, 20, 5*time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseSampleMode(t *testing.T) {
	m, err := ParseSampleMode("")
	require.NoError(t, err)
	assert.Equal(t, SampleLive, m)

	m, err = ParseSampleMode("snapshot")
	require.NoError(t, err)
	assert.Equal(t, SampleSnapshot, m)

	_, err = ParseSampleMode("average")
	assert.Error(t, err)
}
