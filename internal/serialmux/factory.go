package serialmux

import (
	"fmt"

	"go.bug.st/serial"
)

// NewRealLink creates a Link backed by a real serial port at the given path
// using the provided serial options.
func NewRealLink(path string, opts PortOptions, linkOpts ...Option) (*Link[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return NewLink[serial.Port](port, linkOpts...), nil
}
