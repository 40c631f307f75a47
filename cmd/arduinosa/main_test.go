package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arduinosa/internal/config"
	"github.com/banshee-data/arduinosa/internal/version"
)

type captured struct {
	cfg   *config.Config
	calls int
}

func runCommand(t *testing.T, args []string, result error) (int, string, string, *captured) {
	t.Helper()
	got := &captured{}
	run := func(_ context.Context, cfg *config.Config) error {
		got.cfg = cfg
		got.calls++
		return result
	}

	if args == nil {
		// cobra falls back to os.Args for nil, which holds the test flags
		args = []string{}
	}
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), newRootCmd(viper.New(), run), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String(), got
}

func TestRoot_Defaults(t *testing.T) {
	code, _, stderr, got := runCommand(t, nil, nil)
	require.Equal(t, 0, code, stderr)
	require.Equal(t, 1, got.calls)

	assert.Equal(t, "/dev/ttyUSB0", got.cfg.Device)
	assert.Equal(t, 57600, got.cfg.Baud)
	assert.Equal(t, config.ModePlot, got.cfg.Mode)
	assert.Equal(t, 500*time.Millisecond, got.cfg.Interval)
}

func TestRoot_Flags(t *testing.T) {
	args := []string{"-d", "/dev/ttyACM0", "--baud", "115200", "--mode", "forever", "--protocol", "text", "--read-timeout", "10s", "--handshake-timeout", "8s"}
	code, _, stderr, got := runCommand(t, args, nil)
	require.Equal(t, 0, code, stderr)

	assert.Equal(t, "/dev/ttyACM0", got.cfg.Device)
	assert.Equal(t, 115200, got.cfg.Baud)
	assert.Equal(t, config.ModeForever, got.cfg.Mode)
	assert.Equal(t, "text", got.cfg.Protocol)
	assert.Equal(t, 10*time.Second, got.cfg.ReadTimeout)
	assert.Equal(t, 8*time.Second, got.cfg.HandshakeTimeout)
}

func TestRoot_PositionalArgsAreUsageError(t *testing.T) {
	code, stdout, stderr, got := runCommand(t, []string{"/dev/ttyUSB1"}, nil)

	assert.Equal(t, 1, code)
	assert.Zero(t, got.calls)
	assert.Contains(t, stderr, "unknown command")
	assert.Contains(t, stdout+stderr, "Usage:")
}

func TestRoot_InvalidConfig(t *testing.T) {
	code, stdout, stderr, got := runCommand(t, []string{"--baud", "12345"}, nil)

	assert.Equal(t, 1, code)
	assert.Zero(t, got.calls)
	assert.Contains(t, stderr, "invalid baud rate 12345")
	assert.NotContains(t, stdout+stderr, "Usage:", "valid flags do not print usage")
}

func TestRoot_InterruptIsGraceful(t *testing.T) {
	code, stdout, stderr, _ := runCommand(t, nil, fmt.Errorf("read sweep: %w", context.Canceled))

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, farewell)
	assert.Empty(t, stderr)
}

func TestRoot_RunError(t *testing.T) {
	code, _, stderr, _ := runCommand(t, nil, errors.New("/dev/ttyUSB0: not an ArduinoSA"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: /dev/ttyUSB0: not an ArduinoSA")
}

func TestRoot_Version(t *testing.T) {
	code, stdout, _, got := runCommand(t, []string{"--version"}, nil)

	assert.Equal(t, 0, code)
	assert.Zero(t, got.calls)
	assert.Contains(t, stdout, version.Version)
}
