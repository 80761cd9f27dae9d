package ina219

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type i2cConnection struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// OpenI2C opens the named I2C bus ("1", "/dev/i2c-1", or "" for the first
// one found) and binds a connection to addr.
func OpenI2C(busName string, addr uint16) (Connection, error) {
	if _, err := host.Init(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to initialize host drivers")
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open i2c bus %q", busName)
	}

	logrus.WithFields(logrus.Fields{
		"bus":     bus.String(),
		"address": fmt.Sprintf("0x%02x", addr),
	}).Debug("i2c bus opened")

	return &i2cConnection{
		bus: bus,
		dev: &i2c.Dev{Bus: bus, Addr: addr},
	}, nil
}

// ReadBlock sends the register pointer and reads n bytes back in the same
// transaction (repeated start), like SMBus block reads.
func (c *i2cConnection) ReadBlock(reg Register, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.dev.Tx([]byte{byte(reg)}, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *i2cConnection) WriteBlock(reg Register, data []byte) error {
	w := make([]byte, 0, len(data)+1)
	w = append(w, byte(reg))
	w = append(w, data...)
	return c.dev.Tx(w, nil)
}

func (c *i2cConnection) Close() error {
	return c.bus.Close()
}
