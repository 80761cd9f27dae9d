package config

import (
	"time"

	"github.com/inaups/inaups/pkg/display"
)

type Config interface {
	// Bus is the I2C bus name, e.g. "1" for /dev/i2c-1.
	Bus() string
	Address() uint16
	// ShutdownThreshold is the battery percentage at or below which the
	// host is shut down.
	ShutdownThreshold() int
	Delay() time.Duration
	Grace() time.Duration
	// PollInterval is a cron spec, e.g. "@every 10s".
	PollInterval() string
	SampleMode() string
	ShutdownMethod() string
	ShutdownCommand() []string
	AllowNonRootAccess() bool
	UPSPosition() display.Position
	VoltPosition() display.Position

	SetShutdownThreshold(int)
	SetAllowNonRootAccess(bool)

	// Validate checks the values for consistency.
	Validate() error
	// Load reads the configuration from the source.
	Load() error
	// Reload is Load that keeps the current values when the source does
	// not validate.
	Reload() error
	// Save saves the configuration to the source.
	Save() error
}
