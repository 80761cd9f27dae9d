package ina219

import "fmt"

// Register is a pointer into the INA219 register file. Every register is a
// 16-bit word transferred high byte first.
type Register uint8

// INA219 register map.
const (
	RegConfig       Register = 0x00 // R/W
	RegShuntVoltage Register = 0x01 // R
	RegBusVoltage   Register = 0x02 // R
	RegPower        Register = 0x03 // R
	RegCurrent      Register = 0x04 // R
	RegCalibration  Register = 0x05 // R/W
)

// AllRegisters lists the register map in address order.
var AllRegisters = []Register{
	RegConfig,
	RegShuntVoltage,
	RegBusVoltage,
	RegPower,
	RegCurrent,
	RegCalibration,
}

var registerNames = map[Register]string{
	RegConfig:       "CONFIG",
	RegShuntVoltage: "SHUNT_VOLTAGE",
	RegBusVoltage:   "BUS_VOLTAGE",
	RegPower:        "POWER",
	RegCurrent:      "CURRENT",
	RegCalibration:  "CALIBRATION",
}

func (r Register) String() string {
	if n, ok := registerNames[r]; ok {
		return n
	}
	return fmt.Sprintf("0x%02x", uint8(r))
}

// Scales of the fixed-LSB registers.
const (
	ShuntVoltageLSB = 0.01  // mV/bit
	BusVoltageLSB   = 0.004 // V/bit
)

// DefaultAddress is the chip's power-on address with A0/A1 tied low. The
// Waveshare UPS HAT (C) straps it to 0x43.
const DefaultAddress uint16 = 0x40
