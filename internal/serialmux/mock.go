package serialmux

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

// MockSerialPort implements SerialPorter by appending everything written to
// a file, so dev-mode output can be inspected with tail -f.
type MockSerialPort struct {
	io.WriteCloser
}

// NewMockLink creates a Link backed by a temporary file in dir standing in for
// the companion device.
func NewMockLink(dir string, opts ...Option) (*Link[*MockSerialPort], error) {
	f, err := os.CreateTemp(dir, "mock_serial_port")
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Writing mock serial port output at %s", f.Name())
	return NewLink(&MockSerialPort{WriteCloser: f}, opts...), nil
}

// TestableSerialPort implements SerialPorter with configurable behaviour for
// testing. It captures every write and can refuse to report readiness.
type TestableSerialPort struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// Writes records each Write call's payload separately
	Writes [][]byte

	// WriteError is returned by every Write call while set
	WriteError error

	// FailAfter makes Write fail once this many writes have succeeded; 0 disables it
	FailAfter int

	// ShortWrite makes Write report one byte fewer than it was given
	ShortWrite bool

	// NotReady makes TxReady report false
	NotReady bool

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadyCalls records the number of TxReady calls
	ReadyCalls int
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{WriteBuffer: bytes.NewBuffer(nil)}
}

// Write appends p to the write buffer unless an error is configured.
func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		return 0, t.WriteError
	}
	if t.FailAfter > 0 && len(t.Writes) >= t.FailAfter {
		return 0, errors.New("serial port write failed")
	}

	t.Writes = append(t.Writes, append([]byte(nil), p...))
	n, _ := t.WriteBuffer.Write(p)
	if t.ShortWrite && n > 0 {
		n--
	}
	return n, nil
}

// TxReady implements TxReadier.
func (t *TestableSerialPort) TxReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadyCalls++
	return !t.NotReady
}

// SetReady toggles the readiness reported by TxReady.
func (t *TestableSerialPort) SetReady(ready bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.NotReady = !ready
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return t.CloseError
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

// WriteCount returns the number of successful Write calls.
func (t *TestableSerialPort) WriteCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Writes)
}

// Reset clears all buffers and resets state.
func (t *TestableSerialPort) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteBuffer.Reset()
	t.Writes = nil
	t.WriteError = nil
	t.FailAfter = 0
	t.ShortWrite = false
	t.NotReady = false
	t.CloseError = nil
	t.Closed = false
	t.ReadyCalls = 0
}
