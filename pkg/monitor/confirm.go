package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// SampleInterval is the spacing of samples inside a confirmation window.
const SampleInterval = time.Second

// SampleMode selects what the confirmation window looks at.
type SampleMode string

const (
	// SampleLive reads the device again for every sample.
	SampleLive SampleMode = "live"
	// SampleSnapshot re-checks the percentage that opened the window, so
	// the window can only end in a confirmed shutdown.
	SampleSnapshot SampleMode = "snapshot"
)

// ParseSampleMode validates s. An empty string selects SampleLive.
func ParseSampleMode(s string) (SampleMode, error) {
	switch SampleMode(s) {
	case "", SampleLive:
		return SampleLive, nil
	case SampleSnapshot:
		return SampleSnapshot, nil
	default:
		return "", fmt.Errorf("unknown sample mode %q", s)
	}
}

// Sampler returns the current charge percentage.
type Sampler func() (float64, error)

// Confirm watches sample for up to window, once per SampleInterval. It
// returns false as soon as a sample is above threshold and true when the
// whole window passed without one. Sampler errors and context cancellation
// abort the window with the error.
func Confirm(ctx context.Context, clk clock.Clock, sample Sampler, threshold int, window time.Duration) (bool, error) {
	start := clk.Now()
	for clk.Since(start) < window {
		p, err := sample()
		if err != nil {
			return false, err
		}
		if p > float64(threshold) {
			return false, nil
		}

		if err := ctx.Err(); err != nil {
			return false, err
		}
		clk.Sleep(SampleInterval)
	}
	return true, nil
}
