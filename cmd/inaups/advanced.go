package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inaups/inaups/pkg/config"
	"github.com/inaups/inaups/pkg/events"
	"github.com/inaups/inaups/pkg/ina219"
	"github.com/inaups/inaups/pkg/monitor"
)

type deviceFlags struct {
	bus     string
	address uint16
	mock    float64
}

func (f *deviceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.bus, "bus", "", "I2C bus name, defaults to the config value")
	flags.Uint16Var(&f.address, "address", 0, "I2C address, defaults to the config value")
	flags.Float64Var(&f.mock, "mock", 0, "Read a simulated INA219 reporting this bus voltage")
}

// open opens the device directly, bypassing the daemon. Running it while
// the daemon polls the same device is safe on Linux, since each register
// access is a single I2C transaction.
func (f *deviceFlags) open() (*ina219.INA219, error) {
	if f.mock > 0 {
		d, mock := ina219.NewMock(nil)
		mock.SetBusVoltage(f.mock)
		return d, nil
	}

	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, err
	}

	bus, address := conf.Bus(), conf.Address()
	if f.bus != "" {
		bus = f.bus
	}
	if f.address != 0 {
		address = f.address
	}

	logrus.WithFields(logrus.Fields{
		"bus":     bus,
		"address": fmt.Sprintf("0x%02x", address),
	}).Debug("opening INA219")

	d, err := ina219.Open(bus, address)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open INA219 at bus %s address 0x%02x", bus, address)
	}
	return d, nil
}

func NewReadCommand() *cobra.Command {
	df := &deviceFlags{}

	cmd := &cobra.Command{
		Use:         "read",
		Short:       "Read the INA219 once, without the daemon",
		GroupID:     gAdvanced,
		Annotations: localCommand,
		Long: `Calibrate the INA219 and take one set of readings.

This talks to the device directly and works without a running daemon, which is
useful to check the wiring and the address. You usually need to be root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := df.open()
			if err != nil {
				return err
			}
			defer d.Close()

			tel, err := d.Telemetry()
			if err != nil {
				return err
			}

			p := monitor.Percentage(tel.BusVoltageVolts)

			cmd.Printf("Bus voltage:   %s\n", bold("%.3f V", tel.BusVoltageVolts))
			cmd.Printf("Shunt voltage: %s\n", bold("%.2f mV", tel.ShuntVoltageMilliVolts))
			cmd.Printf("Load voltage:  %s\n", bold("%.3f V", tel.LoadVoltageVolts))
			cmd.Printf("Current:       %s\n", bold("%.1f mA", tel.CurrentMilliAmps))
			cmd.Printf("Power:         %s\n", bold("%.3f W", tel.PowerWatts))
			cmd.Printf("Charge:        %s\n", bold("%s", monitor.FormatPercentage(p)))
			return nil
		},
	}

	df.register(cmd)

	return cmd
}

func NewRegistersCommand() *cobra.Command {
	df := &deviceFlags{}

	cmd := &cobra.Command{
		Use:         "registers",
		Short:       "Dump the raw INA219 registers, without the daemon",
		GroupID:     gAdvanced,
		Annotations: localCommand,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := df.open()
			if err != nil {
				return err
			}
			defer d.Close()

			regs, err := d.DumpRegisters()
			if err != nil {
				return err
			}

			for _, reg := range ina219.AllRegisters {
				v := regs[reg]
				cmd.Printf("0x%02x %-14s 0x%04x %6d\n", uint8(reg), reg, v, ina219.ToSigned(v))
			}

			cw := ina219.UnpackConfigWord(regs[ina219.RegConfig])
			cmd.Println()
			cmd.Println(bold("CONFIG:"))
			cmd.Printf("  Bus voltage range: %s\n", cw.BusVoltageRange)
			cmd.Printf("  Gain: %s\n", cw.Gain)
			cmd.Printf("  Bus ADC: %s\n", cw.BusADCResolution)
			cmd.Printf("  Shunt ADC: %s\n", cw.ShuntADCResolution)
			cmd.Printf("  Mode: %s\n", cw.Mode)
			return nil
		},
	}

	df.register(cmd)

	return cmd
}

func NewHistoryCommand() *cobra.Command {
	last := time.Hour

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show recent battery readings",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			samples, err := apiClient.GetHistory(last)
			if err != nil {
				return err
			}

			if len(samples) == 0 {
				cmd.Println("No readings yet.")
				return nil
			}

			for _, s := range samples {
				cmd.Printf("%s  %4s  %s\n",
					s.Time.Local().Format(time.DateTime),
					monitor.FormatPercentage(s.Percentage),
					monitor.FormatVoltage(s.VoltageVolts),
				)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&last, "last", last, "How far back to look, 0 for everything")

	return cmd
}

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Follow display and state changes",
		GroupID: gAdvanced,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			ch, err := apiClient.SubscribeEvents(ctx)
			if err != nil {
				return err
			}

			for ev := range ch {
				printEvent(cmd, ev)
			}
			return nil
		},
	}
}

func printEvent(cmd *cobra.Command, ev events.Event) {
	now := time.Now().Format(time.TimeOnly)

	switch ev.Name {
	case events.DisplayUpdate:
		p, err := events.DecodeAs[events.DisplayUpdateEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode display.update event")
			return
		}
		cmd.Printf("%s  %s = %s\n", now, p.Key, bold("%s", p.Value))
	case events.BatteryState:
		p, err := events.DecodeAs[events.BatteryStateEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode battery.state event")
			return
		}
		cmd.Printf("%s  state %s -> %s (%d%%)\n", now, p.From, bold("%s", p.To), int(p.Percentage))
	case events.BatteryShutdown:
		p, err := events.DecodeAs[events.BatteryShutdownEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode battery.shutdown event")
			return
		}
		cmd.Printf("%s  %s\n", now, bold("%s", p.Message))
	default:
		logrus.WithField("event", ev.Name).Debug("ignoring event")
	}
}
