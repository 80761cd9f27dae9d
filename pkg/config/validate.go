package config

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/inaups/inaups/pkg/monitor"
	"github.com/inaups/inaups/pkg/power"
)

// ScheduleParser parses PollInterval. Seconds are optional.
var ScheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (f *File) Validate() error {
	if t := f.ShutdownThreshold(); t < 0 || t > 100 {
		return pkgerrors.Errorf("shutdown threshold must be between 0 and 100, got %d", t)
	}

	// 7-bit addresses outside the reserved ranges.
	if a := f.Address(); a < 0x03 || a > 0x77 {
		return pkgerrors.Errorf("address 0x%02x is not a valid 7-bit I2C address", a)
	}

	if f.Bus() == "" {
		return pkgerrors.New("bus must not be empty")
	}

	if d := f.Delay(); d < time.Second {
		return pkgerrors.Errorf("delay must be at least 1s, got %s", d)
	}

	if g := f.Grace(); g < time.Second {
		return pkgerrors.Errorf("grace must be at least 1s, got %s", g)
	}

	if _, err := ScheduleParser.Parse(f.PollInterval()); err != nil {
		return pkgerrors.Wrapf(err, "invalid poll interval %q", f.PollInterval())
	}

	if _, err := monitor.ParseSampleMode(f.SampleMode()); err != nil {
		return err
	}

	if _, err := power.New(f.ShutdownMethod(), f.ShutdownCommand()); err != nil {
		return err
	}

	return nil
}
