package serialport

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens the real serial port at path using the provided options and
// applies the read timeout. It satisfies Opener.
func Open(path string, opts PortOptions) (Port, error) {
	opts, err := opts.Normalise()
	if err != nil {
		return nil, err
	}
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	return port, nil
}

var _ Opener = Open
