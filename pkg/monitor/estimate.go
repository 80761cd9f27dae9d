package monitor

import (
	"fmt"
	"math"
)

// Usable voltage band of the single-cell pack behind the UPS HAT.
const (
	EmptyVolts = 3.0
	FullVolts  = 4.2
)

// Percentage estimates the charge from the bus voltage, linear between
// EmptyVolts (0%) and FullVolts (100%) and clamped to [0, 100].
func Percentage(volts float64) float64 {
	p := (volts - EmptyVolts) / (FullVolts - EmptyVolts) * 100
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

// FormatPercentage renders p as a zero-padded integer, e.g. "07%".
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%02d%%", int(p))
}

// FormatVoltage renders v with two decimals, e.g. "3.71v".
func FormatVoltage(v float64) string {
	return fmt.Sprintf("%.2fv", v)
}
