package serialport

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrPortClosed is returned by TestablePort operations after Close.
var ErrPortClosed = errors.New("serial port closed")

const defaultIdleDelay = time.Millisecond

// TestablePort implements Port as a scripted device. Each read with an empty
// receive buffer transmits the next script line; when the script is exhausted
// reads behave like a timed-out serial read (0 bytes, nil error).
type TestablePort struct {
	mu sync.Mutex

	// Script holds the lines the device will transmit, in order.
	Script []string

	// BootLine is transmitted first after every DTR reset when non-empty.
	BootLine string

	// Loop restarts the script from the beginning once it is exhausted.
	Loop bool

	// LineDelay is slept before each line is transmitted.
	LineDelay time.Duration

	// IdleDelay is slept by a read that finds nothing to transmit. It stands
	// in for the serial read timeout and defaults to one millisecond.
	IdleDelay time.Duration

	// ReadBuffer holds transmitted bytes that have not been read yet.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port.
	WriteBuffer *bytes.Buffer

	// ReadError is returned by the next Read call if set.
	ReadError error

	// WriteError is returned by the next Write call if set.
	WriteError error

	// CloseError is returned by Close if set.
	CloseError error

	Closed       bool
	ReadCalls    int
	WriteCalls   int
	ReadTimeout  time.Duration
	DTRHistory   []bool
	Resets       int
	InputFlushes int

	// TimeoutHistory lists every SetReadTimeout call in order.
	TimeoutHistory []time.Duration

	original []string
	dtr      bool
}

// NewTestablePort creates a TestablePort that will transmit the given lines.
func NewTestablePort(lines ...string) *TestablePort {
	return &TestablePort{
		Script:      append([]string(nil), lines...),
		original:    append([]string(nil), lines...),
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
}

// Read returns transmitted bytes, transmitting the next script line first
// when nothing is pending.
func (t *TestablePort) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, ErrPortClosed
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.ReadBuffer.Len() == 0 {
		if !t.transmitLocked() {
			delay := t.IdleDelay
			if delay == 0 {
				delay = defaultIdleDelay
			}
			t.mu.Unlock()
			time.Sleep(delay)
			t.mu.Lock()
			return 0, nil
		}
	}

	return t.ReadBuffer.Read(p)
}

func (t *TestablePort) transmitLocked() bool {
	if len(t.Script) == 0 && t.Loop && len(t.original) > 0 {
		t.Script = append(t.Script, t.original...)
	}
	if len(t.Script) == 0 {
		return false
	}

	line := t.Script[0]
	t.Script = t.Script[1:]

	if t.LineDelay > 0 {
		t.mu.Unlock()
		time.Sleep(t.LineDelay)
		t.mu.Lock()
	}

	t.ReadBuffer.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		t.ReadBuffer.WriteByte('\n')
	}
	return true
}

// Write records data written to the port.
func (t *TestablePort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, ErrPortClosed
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed.
func (t *TestablePort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	return t.CloseError
}

// SetDTR records the transition. Clearing DTR after asserting it reboots the
// simulated board: unread bytes are lost and BootLine is queued first.
func (t *TestablePort) SetDTR(dtr bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return ErrPortClosed
	}

	t.DTRHistory = append(t.DTRHistory, dtr)
	if t.dtr && !dtr {
		t.Resets++
		t.ReadBuffer.Reset()
		if t.BootLine != "" {
			t.Script = append([]string{t.BootLine}, t.Script...)
		}
	}
	t.dtr = dtr
	return nil
}

// SetReadTimeout records the timeout.
func (t *TestablePort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	t.TimeoutHistory = append(t.TimeoutHistory, timeout)
	return nil
}

// ResetInputBuffer drops transmitted but unread bytes.
func (t *TestablePort) ResetInputBuffer() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.InputFlushes++
	t.ReadBuffer.Reset()
	return nil
}

// AddLines appends lines to the script.
func (t *TestablePort) AddLines(lines ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Script = append(t.Script, lines...)
}

// GetWrittenData returns all data written to the port.
func (t *TestablePort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]byte(nil), t.WriteBuffer.Bytes()...)
}

// ResetCount returns the number of DTR resets observed.
func (t *TestablePort) ResetCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.Resets
}

// Opener returns an Opener that hands out this port and records the options
// it was opened with.
func (t *TestablePort) Opener(calls *[]OpenCall) Opener {
	return func(path string, opts PortOptions) (Port, error) {
		if calls != nil {
			*calls = append(*calls, OpenCall{Path: path, Options: opts})
		}
		t.mu.Lock()
		t.ReadTimeout = opts.ReadTimeout
		t.mu.Unlock()
		return t, nil
	}
}

// OpenCall records details of an Opener call.
type OpenCall struct {
	Path    string
	Options PortOptions
}

var _ Port = (*TestablePort)(nil)
