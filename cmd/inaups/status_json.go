package main

import (
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/inaups/inaups/pkg/config"
)

type statusJSON struct {
	Battery statusBatteryJSON `json:"battery"`
	// Readings is omitted when the device could not be read.
	Readings      *statusReadingsJSON `json:"readings,omitempty"`
	Display       map[string]string   `json:"display"`
	Message       string              `json:"message,omitempty"`
	Configuration statusConfigJSON    `json:"configuration"`
}

type statusBatteryJSON struct {
	State          string     `json:"state"`
	ChargePercent  int        `json:"chargePercent"`
	VoltageVolts   float64    `json:"voltageVolts"`
	LastReadingAt  *time.Time `json:"lastReadingAt"`
	LastError      string     `json:"lastError,omitempty"`
	BelowThreshold bool       `json:"belowThreshold"`
}

type statusReadingsJSON struct {
	BusVoltageVolts        float64 `json:"busVoltageVolts"`
	ShuntVoltageMilliVolts float64 `json:"shuntVoltageMilliVolts"`
	LoadVoltageVolts       float64 `json:"loadVoltageVolts"`
	CurrentMilliAmps       float64 `json:"currentMilliAmps"`
	PowerWatts             float64 `json:"powerWatts"`
}

type statusConfigJSON struct {
	Bus                      string `json:"bus"`
	Address                  uint16 `json:"address"`
	ShutdownThresholdPercent int    `json:"shutdownThresholdPercent"`
	DelaySeconds             int    `json:"delaySeconds"`
	GraceSeconds             int    `json:"graceSeconds"`
	PollInterval             string `json:"pollInterval"`
	SampleMode               string `json:"sampleMode"`
	ShutdownMethod           string `json:"shutdownMethod"`
	AllowNonRootAccess       bool   `json:"allowNonRootAccess"`
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

func printStatusJSON(cmd *cobra.Command, data *statusData, cfg *config.File) error {
	bat := data.battery

	out := statusJSON{
		Battery: statusBatteryJSON{
			State:          bat.State,
			ChargePercent:  int(bat.Percentage),
			VoltageVolts:   round(bat.VoltageVolts, 2),
			LastError:      bat.LastError,
			BelowThreshold: !bat.LastTick.IsZero() && bat.Percentage <= float64(bat.ShutdownThreshold),
		},
		Display: map[string]string{},
		Message: data.display.Status,
		Configuration: statusConfigJSON{
			Bus:                      cfg.Bus(),
			Address:                  cfg.Address(),
			ShutdownThresholdPercent: bat.ShutdownThreshold,
			DelaySeconds:             int(cfg.Delay() / time.Second),
			GraceSeconds:             int(cfg.Grace() / time.Second),
			PollInterval:             cfg.PollInterval(),
			SampleMode:               cfg.SampleMode(),
			ShutdownMethod:           cfg.ShutdownMethod(),
			AllowNonRootAccess:       cfg.AllowNonRootAccess(),
		},
	}

	if !bat.LastTick.IsZero() {
		out.Battery.LastReadingAt = &bat.LastTick
	}

	for _, e := range data.display.Elements {
		out.Display[e.Key] = e.Value
	}

	if tel := data.telemetry; tel != nil {
		out.Readings = &statusReadingsJSON{
			BusVoltageVolts:        round(tel.BusVoltageVolts, 3),
			ShuntVoltageMilliVolts: round(tel.ShuntVoltageMilliVolts, 2),
			LoadVoltageVolts:       round(tel.LoadVoltageVolts, 3),
			CurrentMilliAmps:       round(tel.CurrentMilliAmps, 1),
			PowerWatts:             round(tel.PowerWatts, 3),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
