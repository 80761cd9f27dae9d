package types

import "time"

// BatteryStatus is the monitor's view of the battery after the last tick.
type BatteryStatus struct {
	State             string    `json:"state"`
	Percentage        float64   `json:"percentage"`
	VoltageVolts      float64   `json:"voltage_v"`
	ShutdownThreshold int       `json:"shutdown_threshold"`
	LastTick          time.Time `json:"last_tick"`
	LastError         string    `json:"last_error,omitempty"`
}

// Sample is a single recorded battery reading.
type Sample struct {
	Time         time.Time `json:"time"`
	Percentage   float64   `json:"percentage"`
	VoltageVolts float64   `json:"voltage_v"`
}
