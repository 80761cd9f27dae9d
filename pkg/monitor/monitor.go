// Package monitor turns bus voltage readings into a charge estimate and
// powers the host off once the charge has stayed at or below the shutdown
// threshold for a whole confirmation window.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/events"
	"github.com/inaups/inaups/pkg/power"
	"github.com/inaups/inaups/pkg/types"
)

// State of the shutdown state machine.
type State string

const (
	StateNormal             State = "normal"
	StateConfirmingShutdown State = "confirming_shutdown"
	// StateShutdown is terminal.
	StateShutdown State = "shutdown"
)

// Display keys and the final status line.
const (
	ElementUPS      = "ups"
	ElementVolt     = "volt"
	ShutdownMessage = "Battery exhausted, bye ..."
)

const (
	DefaultThreshold   = 5
	DefaultDelay       = 5 * time.Second
	DefaultGrace       = 5 * time.Second
	DefaultHistorySize = 360
)

// ErrShutdown is returned by Tick once the host has been told to power off.
var ErrShutdown = errors.New("host shutdown already initiated")

var elementStyle = display.Style{
	Color:     "black",
	LabelFont: "bold",
	TextFont:  "medium",
}

// Sensor is the part of the INA219 driver the monitor needs.
type Sensor interface {
	BusVoltageVolts() (float64, error)
	Telemetry() (*types.Telemetry, error)
}

// Config holds the monitor settings.
type Config struct {
	// Threshold is the shutdown threshold in percent. Values outside
	// [0, 100] either never or always trigger, since the estimate is
	// clamped first.
	Threshold int
	// Delay is the length of the confirmation window.
	Delay time.Duration
	// Grace is how long the shutdown message stays on screen before the
	// host is powered off.
	Grace        time.Duration
	SampleMode   SampleMode
	UPSPosition  display.Position
	VoltPosition display.Position
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	if c.SampleMode == "" {
		c.SampleMode = SampleLive
	}
	return c
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

// WithEventHub publishes state changes on hub.
func WithEventHub(hub *events.EventHub) Option {
	return func(m *Monitor) { m.hub = hub }
}

// WithRecorder replaces the sample recorder.
func WithRecorder(r *Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// Monitor owns the sensor for its whole lifetime.
type Monitor struct {
	sensor     Sensor
	display    display.Display
	shutdowner power.Shutdowner
	clock      clock.Clock
	hub        *events.EventHub
	recorder   *Recorder

	// tickMu serializes ticks and every other use of the sensor.
	tickMu sync.Mutex

	mu     sync.RWMutex
	cfg    Config
	status types.BatteryStatus
}

// New returns a Monitor in StateNormal.
func New(sensor Sensor, disp display.Display, shutdowner power.Shutdowner, cfg Config, opts ...Option) *Monitor {
	cfg = cfg.withDefaults()
	m := &Monitor{
		sensor:     sensor,
		display:    disp,
		shutdowner: shutdowner,
		clock:      clock.New(),
		recorder:   NewRecorder(DefaultHistorySize),
		cfg:        cfg,
		status: types.BatteryStatus{
			State:             string(StateNormal),
			ShutdownThreshold: cfg.Threshold,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Setup adds the battery and voltage elements to the display.
func (m *Monitor) Setup() {
	cfg := m.config()

	m.display.AddElement(ElementUPS, display.Element{
		Label:    "UPS",
		Value:    "-",
		Position: cfg.UPSPosition,
		Style:    elementStyle,
	})
	m.display.AddElement(ElementVolt, display.Element{
		Label:    "VOL",
		Value:    "-",
		Position: cfg.VoltPosition,
		Style:    elementStyle,
	})

	logrus.Debug("battery display elements added")
}

// Tick takes one reading, updates the display and, when the estimate is at
// or below the threshold, blocks for the confirmation window. A confirmed
// low battery powers the host off; after that every Tick returns
// ErrShutdown.
func (m *Monitor) Tick(ctx context.Context) error {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	if m.State() == StateShutdown {
		return ErrShutdown
	}

	cfg := m.config()

	busVoltage, err := m.sensor.BusVoltageVolts()
	if err != nil {
		return m.fail(pkgerrors.Wrap(err, "failed to read bus voltage"))
	}
	p := Percentage(busVoltage)
	m.display.Set(ElementUPS, FormatPercentage(p))

	voltage, err := m.sensor.BusVoltageVolts()
	if err != nil {
		return m.fail(pkgerrors.Wrap(err, "failed to read bus voltage"))
	}
	m.display.Set(ElementVolt, FormatVoltage(voltage))

	now := m.clock.Now()
	m.recorder.Add(types.Sample{Time: now, Percentage: p, VoltageVolts: voltage})

	m.mu.Lock()
	m.status.Percentage = p
	m.status.VoltageVolts = voltage
	m.status.LastTick = now
	m.status.LastError = ""
	m.mu.Unlock()

	if p > float64(cfg.Threshold) {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"percentage": p,
		"threshold":  cfg.Threshold,
		"window":     cfg.Delay,
		"sampleMode": cfg.SampleMode,
	}).Infof("battery at or below shutdown threshold (<= %d%%), checking for sustained low battery", cfg.Threshold)
	m.transition(StateConfirmingShutdown, p)

	confirmed, err := Confirm(ctx, m.clock, m.sampler(cfg.SampleMode, p), cfg.Threshold, cfg.Delay)
	if err != nil {
		m.transition(StateNormal, p)
		return m.fail(pkgerrors.Wrap(err, "shutdown confirmation aborted"))
	}
	if !confirmed {
		logrus.Info("battery level recovered, shutdown aborted")
		m.transition(StateNormal, p)
		return nil
	}

	return m.shutdown(cfg, p)
}

func (m *Monitor) sampler(mode SampleMode, snapshot float64) Sampler {
	if mode == SampleSnapshot {
		return func() (float64, error) { return snapshot, nil }
	}
	return func() (float64, error) {
		v, err := m.sensor.BusVoltageVolts()
		if err != nil {
			return 0, err
		}
		return Percentage(v), nil
	}
}

// shutdown cannot be interrupted once started.
func (m *Monitor) shutdown(cfg Config, p float64) error {
	logrus.WithField("percentage", p).Infof("empty battery (<= %d%%): shutting down", cfg.Threshold)

	m.display.SetStatus(ShutdownMessage)
	m.hub.Publish(events.BatteryShutdown, events.BatteryShutdownEvent{
		Message:   ShutdownMessage,
		Threshold: cfg.Threshold,
		Ts:        m.clock.Now().Unix(),
	})

	m.clock.Sleep(cfg.Grace)
	m.transition(StateShutdown, p)

	if err := m.shutdowner.Shutdown(); err != nil {
		return m.fail(pkgerrors.Wrap(err, "host shutdown failed"))
	}
	return nil
}

func (m *Monitor) transition(to State, p float64) {
	m.mu.Lock()
	from := State(m.status.State)
	m.status.State = string(to)
	m.mu.Unlock()

	if from == to {
		return
	}

	logrus.WithFields(logrus.Fields{
		"from":       from,
		"to":         to,
		"percentage": p,
	}).Debug("battery state changed")

	m.hub.Publish(events.BatteryState, events.BatteryStateEvent{
		From:       string(from),
		To:         string(to),
		Percentage: p,
		Ts:         m.clock.Now().Unix(),
	})
}

func (m *Monitor) fail(err error) error {
	m.mu.Lock()
	m.status.LastError = err.Error()
	m.mu.Unlock()
	return err
}

func (m *Monitor) config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State(m.status.State)
}

// Status returns a copy of the status after the last tick.
func (m *Monitor) Status() types.BatteryStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetThreshold changes the shutdown threshold from the next tick on.
func (m *Monitor) SetThreshold(threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Threshold = threshold
	m.status.ShutdownThreshold = threshold
}

// Reconfigure replaces the settings from the next tick on.
func (m *Monitor) Reconfigure(cfg Config) {
	cfg = cfg.withDefaults()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.status.ShutdownThreshold = cfg.Threshold
}

// Telemetry reads all registers. It waits for a running tick to finish.
func (m *Monitor) Telemetry() (*types.Telemetry, error) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()
	return m.sensor.Telemetry()
}

// History returns the samples recorded within the last duration. A
// non-positive duration returns everything.
func (m *Monitor) History(last time.Duration) []types.Sample {
	if last <= 0 {
		return m.recorder.Samples()
	}
	return m.recorder.SamplesSince(m.clock.Now().Add(-last))
}
