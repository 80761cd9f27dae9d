package types

import "time"

// Telemetry holds one set of readings from the current-sense monitor.
// This struct is shared between the daemon and client packages.
type Telemetry struct {
	ShuntVoltageMilliVolts float64   `json:"shunt_voltage_mv"`
	BusVoltageVolts        float64   `json:"bus_voltage_v"`
	LoadVoltageVolts       float64   `json:"load_voltage_v"`
	CurrentMilliAmps       float64   `json:"current_ma"`
	PowerWatts             float64   `json:"power_w"`
	SampledAt              time.Time `json:"sampled_at"`
}
