package ina219

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSigned(t *testing.T) {
	for r := 0; r <= 0xFFFF; r++ {
		got := ToSigned(uint16(r))
		if r <= 32767 {
			if got != r {
				t.Fatalf("ToSigned(%d) = %d, want %d", r, got, r)
			}
			continue
		}
		if got != r-65535 {
			t.Fatalf("ToSigned(%d) = %d, want %d", r, got, r-65535)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	conn := NewMockConnection(nil)
	d := New(conn, "mock", DefaultAddress)

	for _, v := range []uint16{0x0000, 0x0001, 0x00FF, 0x0100, 0x1234, 0x7FFF, 0x8000, 0xABCD, 0xFFFF} {
		require.NoError(t, d.Write(RegCalibration, v))
		got, err := d.Read(RegCalibration)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestWriteSendsHighByteFirst(t *testing.T) {
	conn := NewMockConnection(nil)
	d := New(conn, "mock", DefaultAddress)

	require.NoError(t, d.Write(RegConfig, 0x2EEF))

	b, err := conn.ReadBlock(RegConfig, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2E, 0xEF}, b)
}

func TestCalibrate(t *testing.T) {
	d, conn := NewMock(nil)

	assert.Equal(t, uint16(26868), conn.Get(RegCalibration))
	assert.Equal(t, DefaultConfigWord().Pack(), conn.Get(RegConfig))
	assert.Equal(t, Calibration16V5A, d.Calibration())

	ops := conn.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, Op{Write: true, Reg: RegCalibration, Value: 26868}, ops[0])
	assert.Equal(t, Op{Write: true, Reg: RegConfig, Value: 0x0EEF}, ops[1])
}

func TestBusVoltageVolts(t *testing.T) {
	d, conn := NewMock(nil)
	// 900 * 4mV = 3.6V, with CNVR and OVF set.
	conn.Set(RegBusVoltage, 900<<3|0x3)
	conn.ResetOps()

	v, err := d.BusVoltageVolts()
	require.NoError(t, err)
	assert.InDelta(t, 3.6, v, 1e-9)

	assert.Equal(t, []Op{
		{Write: true, Reg: RegCalibration, Value: 26868},
		{Reg: RegBusVoltage, Value: 900<<3 | 0x3},
		{Reg: RegBusVoltage, Value: 900<<3 | 0x3},
	}, conn.Ops())
}

func TestSignedReadings(t *testing.T) {
	tests := []struct {
		name    string
		reg     Register
		raw     uint16
		read    func(d *INA219) (float64, error)
		want    float64
		rearmed bool
	}{
		{
			name:    "positive shunt voltage",
			reg:     RegShuntVoltage,
			raw:     1000,
			read:    (*INA219).ShuntVoltageMilliVolts,
			want:    10,
			rearmed: true,
		},
		{
			name:    "negative shunt voltage",
			reg:     RegShuntVoltage,
			raw:     65535 - 1000,
			read:    (*INA219).ShuntVoltageMilliVolts,
			want:    -10,
			rearmed: true,
		},
		{
			name: "charging current",
			reg:  RegCurrent,
			raw:  1000,
			read: (*INA219).CurrentMilliAmps,
			want: 152.4,
		},
		{
			name: "discharging current",
			reg:  RegCurrent,
			raw:  0xFFFF,
			read: (*INA219).CurrentMilliAmps,
			want: 0,
		},
		{
			name:    "power",
			reg:     RegPower,
			raw:     500,
			read:    (*INA219).PowerWatts,
			want:    1.524,
			rearmed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, conn := NewMock(map[Register]uint16{tt.reg: tt.raw})
			conn.ResetOps()

			got, err := tt.read(d)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)

			ops := conn.Ops()
			if tt.rearmed {
				require.Len(t, ops, 2)
				assert.Equal(t, Op{Write: true, Reg: RegCalibration, Value: 26868}, ops[0])
			} else {
				require.Len(t, ops, 1)
			}
		})
	}
}

func TestBusErrorPropagates(t *testing.T) {
	d, conn := NewMock(nil)
	timeout := errors.New("i2c timeout")
	conn.FailWith(timeout)

	_, err := d.BusVoltageVolts()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBus)
	assert.ErrorIs(t, err, timeout)

	_, err = d.Telemetry()
	assert.ErrorIs(t, err, ErrBus)

	err = d.Calibrate()
	assert.ErrorIs(t, err, ErrBus)
}

func TestTelemetry(t *testing.T) {
	d, conn := NewMock(map[Register]uint16{
		RegShuntVoltage: 500,
		RegCurrent:      100,
		RegPower:        200,
	})
	conn.SetBusVoltage(4.0)

	tel, err := d.Telemetry()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, tel.ShuntVoltageMilliVolts, 1e-9)
	assert.InDelta(t, 4.0, tel.BusVoltageVolts, 1e-9)
	assert.InDelta(t, 4.005, tel.LoadVoltageVolts, 1e-9)
	assert.InDelta(t, 15.24, tel.CurrentMilliAmps, 1e-9)
	assert.InDelta(t, 0.6096, tel.PowerWatts, 1e-9)
	assert.False(t, tel.SampledAt.IsZero())
}

func TestDumpRegisters(t *testing.T) {
	d, _ := NewMock(map[Register]uint16{RegCurrent: 42})

	regs, err := d.DumpRegisters()
	require.NoError(t, err)
	assert.Len(t, regs, len(AllRegisters))
	assert.Equal(t, uint16(42), regs[RegCurrent])
	assert.Equal(t, uint16(26868), regs[RegCalibration])

	cw, err := d.ReadConfigWord()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigWord(), cw)
}
