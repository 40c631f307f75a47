package serialport

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/arduinosa/internal/monitoring"
)

// DefaultReplayDelay paces replayed lines roughly like the real board.
const DefaultReplayDelay = 20 * time.Millisecond

// NewReplayPort creates a port that replays the non-empty lines of a fixture
// in a loop. bootLine is emitted after every DTR reset so identity checks and
// resynchronisation behave as they do against hardware.
func NewReplayPort(fixture []byte, bootLine string, delay time.Duration) *TestablePort {
	var lines []string
	for _, line := range strings.Split(string(fixture), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	port := NewTestablePort(lines...)
	port.BootLine = bootLine
	port.Loop = true
	port.LineDelay = delay
	port.IdleDelay = delay
	return port
}

// ReplayOpener reads the fixture file at path and returns an Opener backed by
// a replay port. The serial path passed to the Opener is only logged.
func ReplayOpener(path, bootLine string, delay time.Duration) (Opener, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures file: %w", err)
	}

	port := NewReplayPort(data, bootLine, delay)
	if len(port.Script) == 0 {
		return nil, fmt.Errorf("fixtures file %s has no lines", path)
	}
	monitoring.Logf("replaying %d fixture lines from %s", len(port.Script), path)

	return func(devicePath string, opts PortOptions) (Port, error) {
		monitoring.Debugf("dev mode: ignoring serial device %s", devicePath)
		return port.Opener(nil)(devicePath, opts)
	}, nil
}
