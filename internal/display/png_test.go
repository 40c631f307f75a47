package display

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/fsutil"
)

func testFrames() (Frame, Frame) {
	first, ghost := Step(nil, 1, arduinosa.Sweep{{FreqMHz: 2400, RSSI: 3}, {FreqMHz: 2437, RSSI: 22}, {FreqMHz: 2494, RSSI: 1}})
	second, _ := Step(ghost, 2, arduinosa.Sweep{{FreqMHz: 2400, RSSI: 4}, {FreqMHz: 2437, RSSI: 18}, {FreqMHz: 2494, RSSI: 2}})
	return first, second
}

func TestPNGRenderer_WritesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.png")
	r := NewPNGRenderer(path)
	first, second := testFrames()

	require.NoError(t, r.Render(first))
	require.NoError(t, r.Render(second))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, cfg.Width, cfg.Height)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file renamed into place")
}

func TestPNGRenderer_EmptyFrame(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	r := NewPNGRenderer("/out/sweep.png")
	r.FS = mfs

	require.NoError(t, r.Render(Frame{Seq: 1}))
	assert.Equal(t, []string{"/out/sweep.png"}, mfs.Files())
}

func TestSweepPlot_Axes(t *testing.T) {
	_, second := testFrames()
	p, err := newSweepPlot(second)
	require.NoError(t, err)

	assert.Equal(t, 2400.0, p.X.Min)
	assert.Equal(t, 2494.0, p.X.Max)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 35.0, p.Y.Max)
	assert.Equal(t, "Frequency", p.X.Label.Text)
	assert.Equal(t, "RSSI", p.Y.Label.Text)
	assert.Contains(t, p.Title.Text, "sweep 2")
}

func TestChannelTicks(t *testing.T) {
	ticks := channelTicks{}.Ticks(2400, 2494)

	labels := map[float64]string{}
	for _, tick := range ticks {
		labels[tick.Value] = tick.Label
	}
	assert.Equal(t, "2412", labels[2412])
	assert.Equal(t, "2484", labels[2484])
	label, ok := labels[2405]
	assert.True(t, ok, "minor tick every 5 MHz")
	assert.Empty(t, label)

	major := 0
	for _, tick := range ticks {
		if tick.Label != "" {
			major++
		}
	}
	assert.Equal(t, len(arduinosa.WiFiChannels), major)
}

// textSweep is a full text protocol sweep: 100 channels from 2400 MHz.
func textSweep() arduinosa.Sweep {
	s := make(arduinosa.Sweep, arduinosa.LegacySweepSize)
	for i := range s {
		s[i] = arduinosa.Sample{FreqMHz: arduinosa.FreqOffsetMHz + i, RSSI: i % 32}
	}
	return s
}

func TestFrameFreqRange(t *testing.T) {
	first, second := testFrames()
	lo, hi := first.FreqRange()
	assert.Equal(t, 2400.0, lo)
	assert.Equal(t, 2494.0, hi)

	frame, _ := Step(nil, 1, textSweep())
	_, hi = frame.FreqRange()
	assert.Equal(t, 2499.0, hi)

	// A wider ghost keeps the axis wide for the frame after it.
	_, ghost := Step(nil, 1, textSweep())
	second.Ghost = ghost
	_, hi = second.FreqRange()
	assert.Equal(t, 2499.0, hi)

	_, hi = Frame{}.FreqRange()
	assert.Equal(t, 2494.0, hi)
}

func TestSweepPlot_TextSweepAxis(t *testing.T) {
	frame, _ := Step(nil, 1, textSweep())
	p, err := newSweepPlot(frame)
	require.NoError(t, err)

	assert.Equal(t, 2400.0, p.X.Min)
	assert.Equal(t, 2499.0, p.X.Max)

	var minor bool
	for _, tick := range p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max) {
		if tick.Value == 2495 {
			minor = true
		}
	}
	assert.True(t, minor, "ticks reach past 2494 MHz")
}
