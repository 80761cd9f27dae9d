package ina219

import "fmt"

// BusVoltageRange selects the full-scale bus voltage, bits [15:13].
type BusVoltageRange uint8

const (
	Range16V BusVoltageRange = 0x00
	Range32V BusVoltageRange = 0x01 // chip default
)

// Gain selects the PGA gain and shunt range, bits [12:11].
type Gain uint8

const (
	GainDiv1_40mV  Gain = 0x00
	GainDiv2_80mV  Gain = 0x01
	GainDiv4_160mV Gain = 0x02
	GainDiv8_320mV Gain = 0x03
)

// ADCResolution selects resolution and averaging for one ADC, bits [10:7]
// for the bus ADC and [6:3] for the shunt ADC.
type ADCResolution uint8

const (
	ADCRes9Bit1S    ADCResolution = 0x00 // 84us
	ADCRes10Bit1S   ADCResolution = 0x01 // 148us
	ADCRes11Bit1S   ADCResolution = 0x02 // 276us
	ADCRes12Bit1S   ADCResolution = 0x03 // 532us
	ADCRes12Bit2S   ADCResolution = 0x09 // 1.06ms
	ADCRes12Bit4S   ADCResolution = 0x0A // 2.13ms
	ADCRes12Bit8S   ADCResolution = 0x0B // 4.26ms
	ADCRes12Bit16S  ADCResolution = 0x0C // 8.51ms
	ADCRes12Bit32S  ADCResolution = 0x0D // 17.02ms
	ADCRes12Bit64S  ADCResolution = 0x0E // 34.05ms
	ADCRes12Bit128S ADCResolution = 0x0F // 68.10ms
)

// Mode selects the operating mode, bits [2:0].
type Mode uint8

const (
	ModePowerDown             Mode = 0x00
	ModeShuntTriggered        Mode = 0x01
	ModeBusTriggered          Mode = 0x02
	ModeShuntAndBusTriggered  Mode = 0x03
	ModeADCOff                Mode = 0x04
	ModeShuntContinuous       Mode = 0x05
	ModeBusContinuous         Mode = 0x06
	ModeShuntAndBusContinuous Mode = 0x07
)

const (
	rangeShift     = 13
	gainShift      = 11
	busADCShift    = 7
	shuntADCShift  = 3
	rangeMask      = 0x07
	gainMask       = 0x03
	resolutionMask = 0x0F
	modeMask       = 0x07
)

// ConfigWord is the unpacked form of the CONFIG register. It has to be
// written to the device again whenever one of its fields changes.
type ConfigWord struct {
	BusVoltageRange    BusVoltageRange `json:"busVoltageRange"`
	Gain               Gain            `json:"gain"`
	BusADCResolution   ADCResolution   `json:"busADCResolution"`
	ShuntADCResolution ADCResolution   `json:"shuntADCResolution"`
	Mode               Mode            `json:"mode"`
}

// DefaultConfigWord is the configuration written by Calibrate: 16V bus
// range, /2 gain (80mV), 12-bit 32-sample averaging on both ADCs and
// continuous shunt and bus sampling.
func DefaultConfigWord() ConfigWord {
	return ConfigWord{
		BusVoltageRange:    Range16V,
		Gain:               GainDiv2_80mV,
		BusADCResolution:   ADCRes12Bit32S,
		ShuntADCResolution: ADCRes12Bit32S,
		Mode:               ModeShuntAndBusContinuous,
	}
}

// Pack encodes c into the 16-bit register value. Fields wider than their
// bitfield are truncated.
func (c ConfigWord) Pack() uint16 {
	return uint16(c.BusVoltageRange&rangeMask)<<rangeShift |
		uint16(c.Gain&gainMask)<<gainShift |
		uint16(c.BusADCResolution&resolutionMask)<<busADCShift |
		uint16(c.ShuntADCResolution&resolutionMask)<<shuntADCShift |
		uint16(c.Mode&modeMask)
}

// UnpackConfigWord decodes a CONFIG register value.
func UnpackConfigWord(v uint16) ConfigWord {
	return ConfigWord{
		BusVoltageRange:    BusVoltageRange((v >> rangeShift) & rangeMask),
		Gain:               Gain((v >> gainShift) & gainMask),
		BusADCResolution:   ADCResolution((v >> busADCShift) & resolutionMask),
		ShuntADCResolution: ADCResolution((v >> shuntADCShift) & resolutionMask),
		Mode:               Mode(v & modeMask),
	}
}

func (r BusVoltageRange) String() string {
	switch r {
	case Range16V:
		return "16V"
	case Range32V:
		return "32V"
	default:
		return fmt.Sprintf("BusVoltageRange(0x%02x)", uint8(r))
	}
}

func (g Gain) String() string {
	switch g {
	case GainDiv1_40mV:
		return "/1 40mV"
	case GainDiv2_80mV:
		return "/2 80mV"
	case GainDiv4_160mV:
		return "/4 160mV"
	case GainDiv8_320mV:
		return "/8 320mV"
	default:
		return fmt.Sprintf("Gain(0x%02x)", uint8(g))
	}
}

func (a ADCResolution) String() string {
	switch {
	case a <= ADCRes12Bit1S:
		return fmt.Sprintf("%d-bit", 9+int(a))
	case a <= 0x08:
		// 0b01xx is reserved and reads as 12-bit, 0x08 is 12-bit single.
		return "12-bit"
	case a <= ADCRes12Bit128S:
		return fmt.Sprintf("12-bit %d samples", 1<<(a-0x08))
	default:
		return fmt.Sprintf("ADCResolution(0x%02x)", uint8(a))
	}
}

func (m Mode) String() string {
	switch m {
	case ModePowerDown:
		return "power-down"
	case ModeShuntTriggered:
		return "shunt, triggered"
	case ModeBusTriggered:
		return "bus, triggered"
	case ModeShuntAndBusTriggered:
		return "shunt and bus, triggered"
	case ModeADCOff:
		return "ADC off"
	case ModeShuntContinuous:
		return "shunt, continuous"
	case ModeBusContinuous:
		return "bus, continuous"
	case ModeShuntAndBusContinuous:
		return "shunt and bus, continuous"
	default:
		return fmt.Sprintf("Mode(0x%02x)", uint8(m))
	}
}
