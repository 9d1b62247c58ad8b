package serialmux

import (
	"io"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.Writer
	io.Closer
}

// Drainer is implemented by ports that can block until their transmit
// buffer has been flushed to the wire. go.bug.st/serial ports do.
type Drainer interface {
	Drain() error
}

// TxReadier is implemented by ports that can report directly whether their
// transmit buffer has full capacity available.
type TxReadier interface {
	TxReady() bool
}

// txReady reports whether port can take a whole frame. Ports that can say so
// directly are asked; ports that can only drain are ready once the drain
// succeeds; anything else is assumed ready.
func txReady(port SerialPorter) bool {
	switch p := port.(type) {
	case TxReadier:
		return p.TxReady()
	case Drainer:
		return p.Drain() == nil
	default:
		return true
	}
}
