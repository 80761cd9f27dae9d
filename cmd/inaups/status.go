package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/inaups/inaups/pkg/config"
	"github.com/inaups/inaups/pkg/display"
	"github.com/inaups/inaups/pkg/monitor"
	"github.com/inaups/inaups/pkg/types"
)

type statusData struct {
	battery   *types.BatteryStatus
	telemetry *types.Telemetry
	display   *display.Snapshot
	config    *config.RawFileConfig
}

// fetchStatusData gathers all data required for the status command from the daemon.
func fetchStatusData() (*statusData, error) {
	bat, err := apiClient.GetBattery()
	if err != nil {
		return nil, fmt.Errorf("failed to get battery status: %w", err)
	}

	// The device may be unreachable while the daemon is fine, so a
	// telemetry failure only hides that section.
	tel, _ := apiClient.GetTelemetry()

	snap, err := apiClient.GetDisplay()
	if err != nil {
		return nil, fmt.Errorf("failed to get display: %w", err)
	}

	conf, err := apiClient.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return &statusData{
		battery:   bat,
		telemetry: tel,
		display:   snap,
		config:    conf,
	}, nil
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Get the current status of inaups",
		Long:    `Get battery status, live INA219 readings, and configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := fetchStatusData()
			if err != nil {
				return err
			}

			cfg := config.NewFileFromConfig(data.config, "")

			if asJSON {
				return printStatusJSON(cmd, data, cfg)
			}

			bat := data.battery

			// Battery.
			cmd.Println(bold("Battery status:"))
			if bat.LastTick.IsZero() {
				cmd.Println("  No reading yet.")
			} else {
				cmd.Printf("  Current charge: %s\n", percentColor(bat.Percentage, bat.ShutdownThreshold))
				cmd.Printf("  Voltage: %s\n", bold("%.2f V", bat.VoltageVolts))
				cmd.Printf("  Last reading: %s\n", bat.LastTick.Local().Format("15:04:05"))
			}

			state := bat.State
			switch monitor.State(bat.State) {
			case monitor.StateNormal:
				state = color.GreenString("normal")
			case monitor.StateConfirmingShutdown:
				state = color.YellowString("confirming shutdown")
			case monitor.StateShutdown:
				state = color.RedString("shutting down")
			}
			cmd.Printf("  State: %s\n", bold("%s", state))
			if bat.LastError != "" {
				cmd.Printf("  Last error: %s\n", color.RedString(bat.LastError))
			}
			if data.display.Status != "" {
				cmd.Printf("  Message: %s\n", bold("%s", data.display.Status))
			}

			cmd.Println()

			// Live readings.
			if tel := data.telemetry; tel != nil {
				cmd.Println(bold("INA219 readings:"))
				cmd.Printf("  Bus voltage: %s\n", bold("%.3f V", tel.BusVoltageVolts))
				cmd.Printf("  Shunt voltage: %s\n", bold("%.2f mV", tel.ShuntVoltageMilliVolts))
				cmd.Printf("  Load voltage: %s\n", bold("%.3f V", tel.LoadVoltageVolts))

				// Positive current charges the battery.
				var currentStr string
				switch {
				case tel.CurrentMilliAmps > 0:
					currentStr = color.New(color.Bold, color.FgGreen).Sprintf("%+.0f mA", tel.CurrentMilliAmps)
				case tel.CurrentMilliAmps < 0:
					currentStr = color.New(color.Bold, color.FgRed).Sprintf("%+.0f mA", tel.CurrentMilliAmps)
				default:
					currentStr = bold("%+.0f mA", tel.CurrentMilliAmps)
				}
				cmd.Printf("  Current: %s\n", currentStr)
				cmd.Printf("  Power: %s\n", bold("%.2f W", tel.PowerWatts))
				cmd.Println()
			}

			// Config.
			cmd.Println(bold("Configuration:"))
			cmd.Printf("  Device: %s\n", bold("bus %s, address 0x%02x", cfg.Bus(), cfg.Address()))
			cmd.Printf("  Shutdown threshold: %s\n", bold("%d%%", bat.ShutdownThreshold))
			cmd.Printf("  Confirmation window: %s (%s samples)\n", bold("%s", cfg.Delay()), cfg.SampleMode())
			cmd.Printf("  Grace period: %s\n", bold("%s", cfg.Grace()))
			cmd.Printf("  Poll interval: %s\n", bold("%s", cfg.PollInterval()))
			cmd.Printf("  Shutdown method: %s\n", bold("%s", cfg.ShutdownMethod()))
			cmd.Printf("  Allow non-root users to access the daemon: %s\n", bool2Text(cfg.AllowNonRootAccess()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")

	return cmd
}
