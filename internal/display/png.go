package display

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/fsutil"
)

var traceColor = color.RGBA{R: 220, A: 255}

// ghostDashes draws the previous sweep as a dotted line.
var ghostDashes = []vg.Length{vg.Points(1), vg.Points(3)}

// PNGRenderer redraws a PNG file for every frame. The file is replaced
// atomically so an image viewer watching it never reads a partial image.
type PNGRenderer struct {
	Path   string
	Width  vg.Length
	Height vg.Length
	FS     fsutil.FileSystem
}

// NewPNGRenderer creates a renderer writing to path on the OS filesystem.
func NewPNGRenderer(path string) *PNGRenderer {
	return &PNGRenderer{
		Path:   path,
		Width:  10 * vg.Inch,
		Height: 5 * vg.Inch,
		FS:     fsutil.OSFileSystem{},
	}
}

// Render draws f and replaces the output file.
func (r *PNGRenderer) Render(f Frame) error {
	p, err := newSweepPlot(f)
	if err != nil {
		return err
	}

	w, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return fsutil.WriteFileAtomic(r.FS, r.Path, buf.Bytes(), 0o644)
}

// Close does nothing; the last frame stays on disk.
func (r *PNGRenderer) Close() error { return nil }

func newSweepPlot(f Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ArduinoSA sweep %d", f.Seq)
	if f.Summary.Count > 0 {
		p.Title.Text += " - " + f.Summary.String()
	}
	p.X.Label.Text = "Frequency"
	p.Y.Label.Text = "RSSI"
	p.X.Tick.Marker = channelTicks{}
	p.Add(plotter.NewGrid())

	if f.Ghost != nil && f.Ghost.Len() > 0 {
		ghost, err := plotter.NewLine(*f.Ghost)
		if err != nil {
			return nil, fmt.Errorf("ghost trace: %w", err)
		}
		ghost.Color = traceColor
		ghost.Width = vg.Points(1)
		ghost.Dashes = ghostDashes
		p.Add(ghost)
	}

	if f.Current.Len() > 0 {
		current, err := plotter.NewLine(f.Current)
		if err != nil {
			return nil, fmt.Errorf("current trace: %w", err)
		}
		current.Color = traceColor
		current.Width = vg.Points(1)
		p.Add(current)
	}

	// Add widens the axes to fit the data; pin them afterwards.
	p.X.Min, p.X.Max = f.FreqRange()
	p.Y.Min, p.Y.Max = YMin, YMax
	return p, nil
}

// channelTicks labels the Wi-Fi channel centres with a minor tick every
// 5 MHz.
type channelTicks struct{}

func (channelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	centres := make(map[int]bool)
	for _, c := range arduinosa.WiFiChannels {
		if float64(c.CenterMHz) < min || float64(c.CenterMHz) > max {
			continue
		}
		centres[c.CenterMHz] = true
		ticks = append(ticks, plot.Tick{Value: float64(c.CenterMHz), Label: strconv.Itoa(c.CenterMHz)})
	}
	for f := arduinosa.SweepStartMHz; float64(f) <= max; f += 5 {
		if centres[f] || float64(f) < min {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: float64(f)})
	}
	return ticks
}
