package arduinosa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/arduinosa/internal/monitoring"
	"github.com/banshee-data/arduinosa/internal/serialport"
	"github.com/banshee-data/arduinosa/internal/timeutil"
)

const (
	// DefaultResetPulse is how long DTR is held asserted to reset the board.
	DefaultResetPulse = 100 * time.Millisecond

	// DefaultHandshakeTimeout bounds the wait for the first line after a
	// reset. The bootloader runs for about a second before the sketch prints.
	DefaultHandshakeTimeout = 5 * time.Second
)

// Device is an open, validated connection to an ArduinoSA. It is owned by a
// single goroutine; none of its methods are safe for concurrent use.
type Device struct {
	path       string
	protocol   Protocol
	clock      timeutil.Clock
	resetPulse time.Duration
	sweepEnd   int

	handshakeTimeout time.Duration
	readTimeout      time.Duration

	port      serialport.Port
	closed    bool
	lines     *serialport.LineReader
	state     State
	handshake Handshake
	dropped   int
}

// Option configures a Device.
type Option func(*Device)

// WithProtocol selects the wire protocol. The default is ProtocolJSON.
func WithProtocol(p Protocol) Option {
	return func(d *Device) {
		d.protocol = p
	}
}

// WithClock sets the clock used for the reset pulse.
func WithClock(c timeutil.Clock) Option {
	return func(d *Device) {
		d.clock = c
	}
}

// WithResetPulse sets how long DTR is held asserted during a reset.
func WithResetPulse(pulse time.Duration) Option {
	return func(d *Device) {
		d.resetPulse = pulse
	}
}

// WithHandshakeTimeout sets the read timeout used for the line that follows
// a reset. The port's own read timeout applies to every other line.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		d.handshakeTimeout = timeout
	}
}

// WithSweepEnd sets the frequency whose sample completes a sweep assembled
// from single-sample JSON records.
func WithSweepEnd(freqMHz int) Option {
	return func(d *Device) {
		d.sweepEnd = freqMHz
	}
}

// Connect opens the port at path, resets the board and validates its
// identity handshake. The returned Device is Ready. When the handshake is
// missing or does not carry IdentityKey the port is closed and the error
// wraps ErrNotArduinoSA. The text protocol has no handshake, so Connect only
// opens the port for it.
func Connect(ctx context.Context, open serialport.Opener, path string, opts serialport.PortOptions, options ...Option) (*Device, error) {
	d := &Device{
		path:       path,
		protocol:   ProtocolJSON,
		clock:      timeutil.RealClock{},
		resetPulse: DefaultResetPulse,
		sweepEnd:   SweepEndMHz,
		state:      Disconnected,

		handshakeTimeout: DefaultHandshakeTimeout,
		readTimeout:      opts.ReadTimeout,
	}
	for _, option := range options {
		option(d)
	}
	if d.readTimeout <= 0 {
		d.readTimeout = serialport.DefaultReadTimeout
	}

	d.setState(Connecting)
	port, err := open(path, opts)
	if err != nil {
		d.setState(Disconnected)
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	d.port = port
	d.lines = serialport.NewLineReader(port)

	if d.protocol == ProtocolText {
		d.setState(Ready)
		monitoring.Logf("opened %s (text protocol)", path)
		return d, nil
	}

	if err := d.Reset(); err != nil {
		d.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}
	d.setState(IdentityUnverified)

	line, err := d.readAfterReset(ctx)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("connect %s: reading handshake: %w", path, err)
	}

	handshake, err := Identify(line)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.handshake = handshake
	d.setState(Ready)
	monitoring.Logf("connected to ArduinoSA %s on %s", handshake.Firmware(), path)

	return d, nil
}

// Reset restarts the board by asserting then clearing DTR and discards any
// input received before the reset.
func (d *Device) Reset() error {
	if err := d.port.SetDTR(true); err != nil {
		return fmt.Errorf("assert DTR: %w", err)
	}
	d.clock.Sleep(d.resetPulse)
	if err := d.port.SetDTR(false); err != nil {
		return fmt.Errorf("clear DTR: %w", err)
	}
	if err := d.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("flush input: %w", err)
	}
	d.lines.Discard()
	return nil
}

// resync recovers from a malformed line: the board is reset and the next
// line, normally its boot handshake, is discarded.
func (d *Device) resync(ctx context.Context, line string, cause error) error {
	d.dropped++
	d.setState(Resetting)
	monitoring.Debugf("dropped line %q from %s: %v", line, d.path, cause)

	if err := d.Reset(); err != nil {
		return fmt.Errorf("resync %s: %w", d.path, err)
	}
	if _, err := d.readAfterReset(ctx); err != nil {
		return err
	}
	return nil
}

// readAfterReset reads the board's boot line under the handshake timeout,
// then puts the port back on its normal read timeout.
func (d *Device) readAfterReset(ctx context.Context) (string, error) {
	if d.handshakeTimeout > 0 {
		if err := d.port.SetReadTimeout(d.handshakeTimeout); err != nil {
			return "", fmt.Errorf("set handshake timeout: %w", err)
		}
	}
	line, err := d.lines.ReadLine(ctx)
	if d.handshakeTimeout > 0 {
		if rerr := d.port.SetReadTimeout(d.readTimeout); rerr != nil && err == nil {
			err = fmt.Errorf("restore read timeout: %w", rerr)
		}
	}
	return line, err
}

func (d *Device) sendCommand(command byte) error {
	n, err := d.port.Write([]byte{command})
	if err != nil {
		return fmt.Errorf("write %q to %s: %w", command, d.path, err)
	}
	if n != 1 {
		return fmt.Errorf("write %q to %s: short write", command, d.path)
	}
	return nil
}

func (d *Device) setState(next State) {
	if d.state == next {
		return
	}
	if !CanTransition(d.state, next) {
		monitoring.Debugf("unexpected state transition %s -> %s on %s", d.state, next, d.path)
	} else {
		monitoring.Debugf("%s: %s -> %s", d.path, d.state, next)
	}
	d.state = next
}

// State returns the current connection state.
func (d *Device) State() State {
	return d.state
}

// Path returns the serial device path.
func (d *Device) Path() string {
	return d.path
}

// Protocol returns the wire protocol in use.
func (d *Device) Protocol() Protocol {
	return d.protocol
}

// Handshake returns the identity record read by Connect. It is nil for the
// text protocol.
func (d *Device) Handshake() Handshake {
	return d.handshake
}

// Dropped returns how many malformed JSON lines triggered a resync.
func (d *Device) Dropped() int {
	return d.dropped
}

// Close closes the serial port. Closing twice is a no-op.
func (d *Device) Close() error {
	d.setState(Disconnected)
	if d.port == nil || d.closed {
		return nil
	}
	d.closed = true
	err := d.port.Close()
	if errors.Is(err, serialport.ErrPortClosed) {
		return nil
	}
	return err
}
