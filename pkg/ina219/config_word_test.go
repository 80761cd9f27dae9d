package ina219

import "testing"

func TestConfigWordPack(t *testing.T) {
	tests := []struct {
		name string
		cw   ConfigWord
		want uint16
	}{
		{
			name: "32V range",
			cw: ConfigWord{
				BusVoltageRange:    0x01,
				Gain:               0x01,
				BusADCResolution:   0x0D,
				ShuntADCResolution: 0x0D,
				Mode:               0x07,
			},
			want: (0x01 << 13) | (0x01 << 11) | (0x0D << 7) | (0x0D << 3) | 0x07,
		},
		{
			name: "default",
			cw:   DefaultConfigWord(),
			want: 0x0EEF,
		},
		{
			name: "power down",
			cw:   ConfigWord{},
			want: 0,
		},
		{
			name: "oversized fields are truncated",
			cw: ConfigWord{
				BusVoltageRange:    0xFF,
				Gain:               0xFF,
				BusADCResolution:   0xFF,
				ShuntADCResolution: 0xFF,
				Mode:               0xFF,
			},
			want: 0xFFFF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cw.Pack(); got != tt.want {
				t.Errorf("Pack() = 0x%04x, want 0x%04x", got, tt.want)
			}
		})
	}
}

func TestUnpackConfigWord(t *testing.T) {
	if got := UnpackConfigWord(0x2EEF); got != (ConfigWord{Range32V, GainDiv2_80mV, ADCRes12Bit32S, ADCRes12Bit32S, ModeShuntAndBusContinuous}) {
		t.Errorf("UnpackConfigWord(0x2EEF) = %+v", got)
	}

	// The chip's power-on value.
	if got := UnpackConfigWord(0x399F).Pack(); got != 0x399F {
		t.Errorf("UnpackConfigWord(0x399F).Pack() = 0x%04x", got)
	}
}

func TestConfigWordString(t *testing.T) {
	cw := DefaultConfigWord()
	tests := []struct {
		got  string
		want string
	}{
		{cw.BusVoltageRange.String(), "16V"},
		{cw.Gain.String(), "/2 80mV"},
		{cw.BusADCResolution.String(), "12-bit 32 samples"},
		{ADCRes9Bit1S.String(), "9-bit"},
		{ADCRes12Bit1S.String(), "12-bit"},
		{ADCRes12Bit128S.String(), "12-bit 128 samples"},
		{cw.Mode.String(), "shunt and bus, continuous"},
		{Mode(0x09).String(), "Mode(0x09)"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
