package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/events"
	"github.com/inaups/inaups/pkg/power"
	"github.com/inaups/inaups/pkg/types"
)

// steppingClock advances the mock clock instead of blocking in Sleep.
type steppingClock struct {
	*clock.Mock
}

func (c steppingClock) Sleep(d time.Duration) { c.Add(d) }

func newSteppingClock() steppingClock {
	return steppingClock{Mock: clock.NewMock()}
}

// fakeSensor returns the queued voltages in order and repeats the last one.
type fakeSensor struct {
	volts []float64
	reads int
	err   error
}

func (s *fakeSensor) BusVoltageVolts() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	i := s.reads
	if i >= len(s.volts) {
		i = len(s.volts) - 1
	}
	s.reads++
	return s.volts[i], nil
}

func (s *fakeSensor) Telemetry() (*types.Telemetry, error) {
	v, err := s.BusVoltageVolts()
	if err != nil {
		return nil, err
	}
	return &types.Telemetry{BusVoltageVolts: v}, nil
}

type fixture struct {
	sensor    *fakeSensor
	board     *display.Board
	clock     steppingClock
	shutdowns int
	monitor   *Monitor
}

func newFixture(cfg Config, volts ...float64) *fixture {
	f := &fixture{
		sensor: &fakeSensor{volts: volts},
		board:  display.NewBoard(nil),
		clock:  newSteppingClock(),
	}
	shutdowner := power.Func(func() error {
		f.shutdowns++
		return nil
	})
	f.monitor = New(f.sensor, f.board, shutdowner, cfg, WithClock(f.clock))
	f.monitor.Setup()
	return f
}

func (f *fixture) value(t *testing.T, key string) string {
	e, ok := f.board.Get(key)
	require.True(t, ok, "element %s missing", key)
	return e.Value
}

func TestSetup(t *testing.T) {
	f := newFixture(Config{
		Threshold:    20,
		UPSPosition:  display.Position{X: 150, Y: 0},
		VoltPosition: display.Position{X: 150, Y: 10},
	}, 4.0)

	ups, ok := f.board.Get(ElementUPS)
	require.True(t, ok)
	assert.Equal(t, "UPS", ups.Label)
	assert.Equal(t, "-", ups.Value)
	assert.Equal(t, display.Position{X: 150, Y: 0}, ups.Position)

	volt, ok := f.board.Get(ElementVolt)
	require.True(t, ok)
	assert.Equal(t, "VOL", volt.Label)
	assert.Equal(t, display.Position{X: 150, Y: 10}, volt.Position)
}

func TestTickAboveThreshold(t *testing.T) {
	f := newFixture(Config{Threshold: 20}, 3.6, 3.71)

	require.NoError(t, f.monitor.Tick(context.Background()))

	assert.Equal(t, "50%", f.value(t, ElementUPS))
	assert.Equal(t, "3.71v", f.value(t, ElementVolt))
	assert.Equal(t, StateNormal, f.monitor.State())
	assert.Equal(t, 2, f.sensor.reads)
	assert.Equal(t, 0, f.shutdowns)

	st := f.monitor.Status()
	assert.InDelta(t, 50, st.Percentage, 1e-9)
	assert.InDelta(t, 3.71, st.VoltageVolts, 1e-9)
	assert.Equal(t, 20, st.ShutdownThreshold)
	assert.Len(t, f.monitor.History(0), 1)
}

func TestTickSustainedLowBatteryShutsDown(t *testing.T) {
	hub := events.NewEventHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// 3.18V is 15%.
	f := newFixture(Config{Threshold: 20}, 3.18)
	f.monitor = New(f.sensor, f.board, power.Func(func() error {
		f.shutdowns++
		return nil
	}), Config{Threshold: 20}, WithClock(f.clock), WithEventHub(hub))
	start := f.clock.Now()

	require.NoError(t, f.monitor.Tick(context.Background()))

	assert.Equal(t, 1, f.shutdowns)
	assert.Equal(t, ShutdownMessage, f.board.Status())
	assert.Equal(t, StateShutdown, f.monitor.State())
	assert.Equal(t, "15%", f.value(t, ElementUPS))
	// Two readings for the tick and one per second of the window.
	assert.Equal(t, 2+5, f.sensor.reads)
	assert.Equal(t, DefaultDelay+DefaultGrace, f.clock.Now().Sub(start))

	var names []string
	for len(ch) > 0 {
		names = append(names, (<-ch).Name)
	}
	assert.Equal(t, []string{events.BatteryState, events.BatteryShutdown, events.BatteryState}, names)

	// Terminal: no further ticks touch the device or power off again.
	err := f.monitor.Tick(context.Background())
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Equal(t, 1, f.shutdowns)
	assert.Equal(t, 7, f.sensor.reads)
}

func TestTickRecoveryAbortsShutdown(t *testing.T) {
	// Low for the tick and two samples, then back above the threshold.
	f := newFixture(Config{Threshold: 20}, 3.18, 3.18, 3.18, 3.18, 3.9)
	start := f.clock.Now()

	require.NoError(t, f.monitor.Tick(context.Background()))

	assert.Equal(t, 0, f.shutdowns)
	assert.Equal(t, StateNormal, f.monitor.State())
	assert.Empty(t, f.board.Status())
	assert.Equal(t, 2*time.Second, f.clock.Now().Sub(start))
}

func TestTickSnapshotModeIgnoresRecovery(t *testing.T) {
	f := newFixture(Config{Threshold: 20, SampleMode: SampleSnapshot}, 3.18, 3.18, 3.9)

	require.NoError(t, f.monitor.Tick(context.Background()))

	assert.Equal(t, 1, f.shutdowns)
	// The window never reads the device.
	assert.Equal(t, 2, f.sensor.reads)
}

func TestTickThresholdEdges(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		volts     float64
		shutdown  bool
	}{
		{"at threshold", 50, 3.6, true},
		{"empty with zero threshold", 0, 2.0, true},
		{"negative threshold never triggers", -1, 2.0, false},
		{"threshold above 100 always triggers", 101, 5.0, true},
		{"full at 100", 100, 4.2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(Config{Threshold: tt.threshold}, tt.volts)
			require.NoError(t, f.monitor.Tick(context.Background()))
			assert.Equal(t, tt.shutdown, f.shutdowns == 1)
		})
	}
}

func TestTickSensorError(t *testing.T) {
	f := newFixture(Config{Threshold: 20}, 4.0)
	f.sensor.err = errors.New("remote I/O error")

	err := f.monitor.Tick(context.Background())
	require.Error(t, err)
	assert.Contains(t, f.monitor.Status().LastError, "remote I/O error")
	assert.Equal(t, "-", f.value(t, ElementUPS))

	f.sensor.err = nil
	require.NoError(t, f.monitor.Tick(context.Background()))
	assert.Empty(t, f.monitor.Status().LastError)
}

func TestTickShutdownFailure(t *testing.T) {
	f := newFixture(Config{Threshold: 20}, 3.0)
	f.monitor = New(f.sensor, f.board, power.Func(func() error {
		f.shutdowns++
		return errors.New("access denied")
	}), Config{Threshold: 20}, WithClock(f.clock))

	err := f.monitor.Tick(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateShutdown, f.monitor.State())

	assert.ErrorIs(t, f.monitor.Tick(context.Background()), ErrShutdown)
	assert.Equal(t, 1, f.shutdowns)
}

func TestSetThreshold(t *testing.T) {
	f := newFixture(Config{Threshold: 20}, 3.6)
	f.monitor.SetThreshold(60)
	assert.Equal(t, 60, f.monitor.Status().ShutdownThreshold)

	require.NoError(t, f.monitor.Tick(context.Background()))
	assert.Equal(t, 1, f.shutdowns)
}
