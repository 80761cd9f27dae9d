package ina219

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/types"
)

// ErrBus is matched by every error caused by a failed bus transaction, e.g.
// an absent device or a bus timeout.
var ErrBus = errors.New("bus transaction failed")

// BusError describes a failed register transaction.
type BusError struct {
	Op  string
	Reg Register
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

func (e *BusError) Is(target error) bool { return target == ErrBus }

// Calibration couples the CALIBRATION register value with the LSB scales it
// implies. The three values are derived from the shunt resistor and the
// expected maximum current and must be changed together.
type Calibration struct {
	Value      uint16  `json:"value"`
	CurrentLSB float64 `json:"currentLSB"` // mA/bit
	PowerLSB   float64 `json:"powerLSB"`   // W/bit
}

// Calibration16V5A is the 16V/5A profile of the Waveshare UPS HAT.
var Calibration16V5A = Calibration{
	Value:      26868,
	CurrentLSB: 0.1524,
	PowerLSB:   0.003048,
}

// INA219 is a handle to a single INA219 on a register bus. It does not cache
// anything: every reading is a fresh bus transaction.
type INA219 struct {
	conn    Connection
	bus     string
	address uint16

	cal    Calibration
	config ConfigWord
}

// New wraps an already opened connection. Call Calibrate before taking
// current or power readings.
func New(conn Connection, bus string, address uint16) *INA219 {
	return &INA219{
		conn:    conn,
		bus:     bus,
		address: address,
	}
}

// Open opens the I2C bus, binds the device at address and calibrates it.
func Open(bus string, address uint16) (*INA219, error) {
	conn, err := OpenI2C(bus, address)
	if err != nil {
		return nil, err
	}

	d := New(conn, bus, address)
	if err := d.Calibrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return d, nil
}

// NewMock returns a calibrated INA219 backed by a MockConnection.
func NewMock(prefill map[Register]uint16) (*INA219, *MockConnection) {
	conn := NewMockConnection(prefill)
	d := New(conn, "mock", DefaultAddress)
	if err := d.Calibrate(); err != nil {
		panic(err)
	}
	return d, conn
}

// Close closes the underlying connection.
func (d *INA219) Close() error {
	return d.conn.Close()
}

// Bus returns the bus name the device was opened on.
func (d *INA219) Bus() string { return d.bus }

// Address returns the device address.
func (d *INA219) Address() uint16 { return d.address }

// Calibration returns the active calibration.
func (d *INA219) Calibration() Calibration { return d.cal }

// ConfigWord returns the configuration written during calibration.
func (d *INA219) ConfigWord() ConfigWord { return d.config }

// Read reads a 16-bit register.
func (d *INA219) Read(reg Register) (uint16, error) {
	logrus.WithFields(logrus.Fields{
		"reg": reg,
	}).Trace("Trying to read from INA219")

	b, err := d.conn.ReadBlock(reg, 2)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	if len(b) != 2 {
		return 0, &BusError{Op: "read", Reg: reg, Err: fmt.Errorf("incorrect data length %d!=2", len(b))}
	}

	v := uint16(b[0])*256 + uint16(b[1])

	logrus.WithFields(logrus.Fields{
		"reg": reg,
		"val": v,
	}).Trace("Read from INA219 succeed")

	return v, nil
}

// Write writes a 16-bit register, high byte first.
func (d *INA219) Write(reg Register, value uint16) error {
	logrus.WithFields(logrus.Fields{
		"reg": reg,
		"val": value,
	}).Trace("Trying to write to INA219")

	data := []byte{byte((value >> 8) & 0xFF), byte(value & 0xFF)}
	if err := d.conn.WriteBlock(reg, data); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"reg": reg,
		"val": value,
	}).Trace("Write to INA219 succeed")

	return nil
}

// Calibrate programs the 16V/5A profile: the calibration register first,
// then the default config word.
func (d *INA219) Calibrate() error {
	logrus.Tracef("Calibrate called")

	return d.calibrate(Calibration16V5A, DefaultConfigWord())
}

func (d *INA219) calibrate(cal Calibration, config ConfigWord) error {
	d.cal = cal
	if err := d.Write(RegCalibration, cal.Value); err != nil {
		return pkgerrors.Wrap(err, "failed to write calibration register")
	}

	d.config = config
	if err := d.Write(RegConfig, config.Pack()); err != nil {
		return pkgerrors.Wrap(err, "failed to write config register")
	}

	logrus.WithFields(logrus.Fields{
		"calibration": cal.Value,
		"config":      fmt.Sprintf("0x%04x", config.Pack()),
	}).Debug("INA219 calibrated")

	return nil
}

// rearm rewrites the calibration register. The chip loses it on a power
// glitch, after which current and power read as zero.
func (d *INA219) rearm() error {
	return d.Write(RegCalibration, d.cal.Value)
}

// ToSigned converts a raw register value to a signed reading. Values above
// 32767 have 65535 subtracted, one less than two's complement; existing
// readings depend on this and it is kept as is.
func ToSigned(raw uint16) int {
	v := int(raw)
	if v > 32767 {
		v -= 65535
	}
	return v
}

func (d *INA219) readSigned(reg Register) (int, error) {
	raw, err := d.Read(reg)
	if err != nil {
		return 0, err
	}
	return ToSigned(raw), nil
}

// ShuntVoltageMilliVolts returns the voltage across the shunt in mV.
func (d *INA219) ShuntVoltageMilliVolts() (float64, error) {
	logrus.Tracef("ShuntVoltageMilliVolts called")

	if err := d.rearm(); err != nil {
		return 0, err
	}

	v, err := d.readSigned(RegShuntVoltage)
	if err != nil {
		return 0, err
	}

	return float64(v) * ShuntVoltageLSB, nil
}

// BusVoltageVolts returns the bus voltage in V. The register is read twice
// and the first value dropped, since the content is only settled on the
// second read after a write.
func (d *INA219) BusVoltageVolts() (float64, error) {
	logrus.Tracef("BusVoltageVolts called")

	if err := d.rearm(); err != nil {
		return 0, err
	}

	if _, err := d.Read(RegBusVoltage); err != nil {
		return 0, err
	}
	raw, err := d.Read(RegBusVoltage)
	if err != nil {
		return 0, err
	}

	// Bits [2:0] are the CNVR and OVF flags.
	return float64(raw>>3) * BusVoltageLSB, nil
}

// CurrentMilliAmps returns the current through the shunt in mA.
func (d *INA219) CurrentMilliAmps() (float64, error) {
	logrus.Tracef("CurrentMilliAmps called")

	v, err := d.readSigned(RegCurrent)
	if err != nil {
		return 0, err
	}

	return float64(v) * d.cal.CurrentLSB, nil
}

// PowerWatts returns the power delivered to the load in W.
func (d *INA219) PowerWatts() (float64, error) {
	logrus.Tracef("PowerWatts called")

	if err := d.rearm(); err != nil {
		return 0, err
	}

	v, err := d.readSigned(RegPower)
	if err != nil {
		return 0, err
	}

	return float64(v) * d.cal.PowerLSB, nil
}

// ReadConfigWord reads back and decodes the CONFIG register.
func (d *INA219) ReadConfigWord() (ConfigWord, error) {
	v, err := d.Read(RegConfig)
	if err != nil {
		return ConfigWord{}, err
	}
	return UnpackConfigWord(v), nil
}

// DumpRegisters reads every register once, without re-arming calibration.
func (d *INA219) DumpRegisters() (map[Register]uint16, error) {
	ret := make(map[Register]uint16, len(AllRegisters))
	for _, reg := range AllRegisters {
		v, err := d.Read(reg)
		if err != nil {
			return nil, err
		}
		ret[reg] = v
	}
	return ret, nil
}

// Telemetry takes all four readings and derives the load voltage.
func (d *INA219) Telemetry() (*types.Telemetry, error) {
	shunt, err := d.ShuntVoltageMilliVolts()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read shunt voltage")
	}
	bus, err := d.BusVoltageVolts()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read bus voltage")
	}
	current, err := d.CurrentMilliAmps()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read current")
	}
	power, err := d.PowerWatts()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read power")
	}

	return &types.Telemetry{
		ShuntVoltageMilliVolts: shunt,
		BusVoltageVolts:        bus,
		LoadVoltageVolts:       bus + shunt/1000,
		CurrentMilliAmps:       current,
		PowerWatts:             power,
		SampledAt:              time.Now(),
	}, nil
}
