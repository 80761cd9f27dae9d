package ina219

// Connection is a register-addressed transport bound to a single device.
type Connection interface {
	// ReadBlock reads n bytes starting at reg.
	ReadBlock(reg Register, n int) ([]byte, error)
	// WriteBlock writes data starting at reg.
	WriteBlock(reg Register, data []byte) error
	Close() error
}
