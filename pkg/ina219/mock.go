package ina219

import (
	"fmt"
	"sync"
)

// Op is one transaction seen by a MockConnection.
type Op struct {
	Write bool
	Reg   Register
	Value uint16
}

func (o Op) String() string {
	if o.Write {
		return fmt.Sprintf("W %s=0x%04x", o.Reg, o.Value)
	}
	return fmt.Sprintf("R %s", o.Reg)
}

// MockConnection is an in-memory register file. Registers that were never
// written read back as zero.
type MockConnection struct {
	mu   sync.Mutex
	regs map[Register][2]byte
	ops  []Op
	err  error
}

// NewMockConnection returns a MockConnection with the given register values.
func NewMockConnection(prefill map[Register]uint16) *MockConnection {
	m := &MockConnection{regs: make(map[Register][2]byte)}
	for reg, v := range prefill {
		m.regs[reg] = [2]byte{byte(v >> 8), byte(v)}
	}
	return m
}

func (m *MockConnection) ReadBlock(reg Register, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if n != 2 {
		return nil, fmt.Errorf("mock: unsupported block length %d", n)
	}

	b := m.regs[reg]
	m.ops = append(m.ops, Op{Reg: reg, Value: uint16(b[0])<<8 | uint16(b[1])})
	return []byte{b[0], b[1]}, nil
}

func (m *MockConnection) WriteBlock(reg Register, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	if len(data) != 2 {
		return fmt.Errorf("mock: unsupported block length %d", len(data))
	}

	m.regs[reg] = [2]byte{data[0], data[1]}
	m.ops = append(m.ops, Op{Write: true, Reg: reg, Value: uint16(data[0])<<8 | uint16(data[1])})
	return nil
}

func (m *MockConnection) Close() error {
	return nil
}

// Set stores v into reg without recording a transaction.
func (m *MockConnection) Set(reg Register, v uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[reg] = [2]byte{byte(v >> 8), byte(v)}
}

// Get returns the stored value of reg without recording a transaction.
func (m *MockConnection) Get(reg Register) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.regs[reg]
	return uint16(b[0])<<8 | uint16(b[1])
}

// SetBusVoltage stores a bus voltage reading with the status bits cleared.
func (m *MockConnection) SetBusVoltage(volts float64) {
	m.Set(RegBusVoltage, uint16(volts/BusVoltageLSB+0.5)<<3)
}

// FailWith makes every following transaction return err. A nil err restores
// normal operation.
func (m *MockConnection) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Ops returns the recorded transactions.
func (m *MockConnection) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.ops...)
}

// ResetOps clears the transaction log.
func (m *MockConnection) ResetOps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}
