package arduinosa

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arduinosa/internal/monitoring"
	"github.com/banshee-data/arduinosa/internal/serialport"
	"github.com/banshee-data/arduinosa/internal/timeutil"
)

const handshakeLine = `{"ArduinoSA":"2.0"}`

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

// connectTestDevice connects to port with a mock clock so resets do not sleep.
func connectTestDevice(t *testing.T, port *serialport.TestablePort, options ...Option) *Device {
	t.Helper()
	options = append([]Option{WithClock(timeutil.NewMockClock(time.Time{}))}, options...)
	d, err := Connect(context.Background(), port.Opener(nil), "/dev/ttyUSB0", serialport.PortOptions{}, options...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestConnect_ValidatesIdentity(t *testing.T) {
	port := serialport.NewTestablePort()
	port.BootLine = `{"ArduinoSA":"2.0","start":2400,"end":2494}`
	clock := timeutil.NewMockClock(time.Time{})

	var calls []serialport.OpenCall
	opts := serialport.PortOptions{BaudRate: 57600, ReadTimeout: 10 * time.Second}
	d, err := Connect(context.Background(), port.Opener(&calls), "/dev/ttyUSB3", opts, WithClock(clock), WithResetPulse(250*time.Millisecond))
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, Ready, d.State())
	assert.Equal(t, "/dev/ttyUSB3", d.Path())
	assert.Equal(t, ProtocolJSON, d.Protocol())
	assert.Equal(t, "2.0", d.Handshake().Firmware())
	assert.Equal(t, []bool{true, false}, port.DTRHistory, "DTR asserted then cleared")
	assert.Equal(t, 1, port.InputFlushes)
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, clock.Sleeps())
	require.Len(t, calls, 1)
	assert.Equal(t, "/dev/ttyUSB3", calls[0].Path)
	assert.Equal(t, opts, calls[0].Options)
}

func TestConnect_RejectsOtherDevice(t *testing.T) {
	for name, boot := range map[string]string{
		"other json": `{"GPS":{"lat":1}}`,
		"not json":   "Hello from Uno",
		"silent":     "",
	} {
		t.Run(name, func(t *testing.T) {
			port := serialport.NewTestablePort()
			port.BootLine = boot

			d, err := Connect(context.Background(), port.Opener(nil), "/dev/ttyACM0", serialport.PortOptions{}, WithClock(timeutil.NewMockClock(time.Time{})))
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errors.Is(err, ErrNotArduinoSA), "got %v", err)
			assert.Contains(t, err.Error(), "/dev/ttyACM0")
			assert.Contains(t, err.Error(), "not an ArduinoSA")
			assert.True(t, port.Closed, "port closed after failed identification")
		})
	}
}

func TestConnect_OpenError(t *testing.T) {
	openErr := errors.New("no such file or directory")
	open := func(string, serialport.PortOptions) (serialport.Port, error) { return nil, openErr }

	_, err := Connect(context.Background(), open, "/dev/ttyUSB9", serialport.PortOptions{})
	assert.ErrorIs(t, err, openErr)
	assert.False(t, errors.Is(err, ErrNotArduinoSA))
}

func TestConnect_TextProtocolSkipsHandshake(t *testing.T) {
	port := serialport.NewTestablePort()
	d := connectTestDevice(t, port, WithProtocol(ProtocolText))

	assert.Equal(t, Ready, d.State())
	assert.Empty(t, port.DTRHistory)
	assert.Nil(t, d.Handshake())
}

func TestConnect_HandshakeTimeout(t *testing.T) {
	tests := []struct {
		name    string
		opts    serialport.PortOptions
		options []Option
		want    []time.Duration
	}{
		{
			name: "default",
			want: []time.Duration{DefaultHandshakeTimeout, serialport.DefaultReadTimeout},
		},
		{
			name:    "custom",
			opts:    serialport.PortOptions{ReadTimeout: 2 * time.Second},
			options: []Option{WithHandshakeTimeout(8 * time.Second)},
			want:    []time.Duration{8 * time.Second, 2 * time.Second},
		},
		{
			name:    "disabled",
			opts:    serialport.PortOptions{ReadTimeout: 2 * time.Second},
			options: []Option{WithHandshakeTimeout(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := serialport.NewTestablePort()
			port.BootLine = handshakeLine

			options := append([]Option{WithClock(timeutil.NewMockClock(time.Time{}))}, tt.options...)
			d, err := Connect(context.Background(), port.Opener(nil), "/dev/ttyUSB0", tt.opts, options...)
			require.NoError(t, err)
			defer d.Close()

			assert.Equal(t, tt.want, port.TimeoutHistory)
		})
	}
}

func TestReadSweep_ResyncUsesHandshakeTimeout(t *testing.T) {
	port := serialport.NewTestablePort(
		"garbage",
		`{"ArduinoSA":[{"freq":2400,"rssi":5}]}`,
	)
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port, WithHandshakeTimeout(3*time.Second))

	_, err := d.ReadSweep(context.Background())
	require.NoError(t, err)

	want := []time.Duration{
		3 * time.Second, serialport.DefaultReadTimeout, // connect
		3 * time.Second, serialport.DefaultReadTimeout, // resync
	}
	assert.Equal(t, want, port.TimeoutHistory)
	assert.Equal(t, serialport.DefaultReadTimeout, port.ReadTimeout)
}

func TestReadSweep_GarbageThenSweep(t *testing.T) {
	port := serialport.NewTestablePort(
		"garbage",
		`{"ArduinoSA":[{"freq":2400,"rssi":5},{"freq":2401,"rssi":7}]}`,
	)
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port)

	sweep, err := d.ReadSweep(context.Background())
	require.NoError(t, err)

	want := Sweep{{FreqMHz: 2400, RSSI: 5}, {FreqMHz: 2401, RSSI: 7}}
	if diff := cmp.Diff(want, sweep); diff != "" {
		t.Errorf("ReadSweep() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, d.Dropped())
	assert.Equal(t, 2, port.ResetCount(), "one reset to connect and one to resync")
	assert.Equal(t, []bool{true, false, true, false}, port.DTRHistory)
	assert.Equal(t, Ready, d.State())
}

func TestReadSweep_ResyncDiscardsNextLine(t *testing.T) {
	// No boot line: the line after the garbage is what gets discarded.
	port := serialport.NewTestablePort(
		`{"ArduinoSA":"2.0"}`,
		"garbage",
		`{"ArduinoSA":[{"freq":2400,"rssi":1}]}`,
		`{"ArduinoSA":[{"freq":2400,"rssi":2}]}`,
	)
	d, err := Connect(context.Background(), port.Opener(nil), "/dev/ttyUSB0", serialport.PortOptions{}, WithClock(timeutil.NewMockClock(time.Time{})))
	require.NoError(t, err)
	defer d.Close()

	sweep, err := d.ReadSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sweep{{FreqMHz: 2400, RSSI: 2}}, sweep)
}

func TestReadSweep_EmptyLineTriggersReset(t *testing.T) {
	port := serialport.NewTestablePort("", `{"ArduinoSA":[{"freq":2450,"rssi":12}]}`)
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port)

	sweep, err := d.ReadSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sweep{{FreqMHz: 2450, RSSI: 12}}, sweep)
	assert.Equal(t, 1, d.Dropped())
}

func TestReadSweep_SingleSampleRecords(t *testing.T) {
	port := serialport.NewTestablePort(
		`{"ArduinoSA":{"freq":2401,"rssi":4}}`,
		`{"ArduinoSA":{"freq":2400,"rssi":3}}`,
		`{"ArduinoSA":{"freq":2401,"rssi":6}}`,
		`{"ArduinoSA":{"freq":2402,"rssi":9}}`,
		`{"ArduinoSA":{"freq":2400,"rssi":1}}`,
	)
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port, WithSweepEnd(2402))

	sweep, err := d.ReadSweep(context.Background())
	require.NoError(t, err)

	want := Sweep{{2400, 3}, {2401, 6}, {2402, 9}}
	if diff := cmp.Diff(want, sweep); diff != "" {
		t.Errorf("ReadSweep() mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, port.Script, 1, "reading stops at the sweep end frequency")
}

func TestReadSweep_ContextCancelled(t *testing.T) {
	port := serialport.NewTestablePort()
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	sweep, err := d.ReadSweep(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, sweep)
	assert.Positive(t, d.Dropped(), "timeouts are retried as dropped lines")
}

func TestReadSweep_TransportError(t *testing.T) {
	port := serialport.NewTestablePort()
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port)
	port.ReadError = io.EOF

	_, err := d.ReadSweep(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestDevice_Close(t *testing.T) {
	port := serialport.NewTestablePort()
	port.BootLine = handshakeLine
	d := connectTestDevice(t, port)

	require.NoError(t, d.Close())
	assert.True(t, port.Closed)
	assert.Equal(t, Disconnected, d.State())
}
