// Package serialport wraps the serial link to the analyser: opening and
// configuring the port, driving the DTR line used to reset the board and
// reading line-delimited records with read-timeout semantics.
package serialport

import (
	"io"
	"time"
)

// Port defines the subset of a serial port used by the analyser client.
// go.bug.st/serial ports satisfy it directly; tests supply scripted ports.
type Port interface {
	io.ReadWriteCloser

	// SetDTR drives the data-terminal-ready line. Toggling it resets the
	// Arduino.
	SetDTR(dtr bool) error

	// SetReadTimeout bounds how long a single Read blocks. A Read that
	// times out returns 0 bytes and a nil error.
	SetReadTimeout(timeout time.Duration) error

	// ResetInputBuffer discards anything received but not yet read.
	ResetInputBuffer() error
}

// Opener is a function type for opening serial ports. It allows the real
// opener to be swapped for a scripted one in tests and dev mode.
type Opener func(path string, opts PortOptions) (Port, error)
