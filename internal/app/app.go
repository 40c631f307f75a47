// Package app wires a resolved configuration to a device and one of the run
// modes: continuous plotting, printing every sample, or one sweep.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/config"
	"github.com/banshee-data/arduinosa/internal/display"
	"github.com/banshee-data/arduinosa/internal/monitoring"
	"github.com/banshee-data/arduinosa/internal/serialport"
	"github.com/banshee-data/arduinosa/internal/timeutil"
)

// ReplayBootLine is the handshake a replayed device sends after each reset.
const ReplayBootLine = `{"ArduinoSA":"replay"}`

// RendererFactory builds the renderer for ModePlot. cancel stops the run
// and is used by renderers that take over the terminal.
type RendererFactory func(cfg *config.Config, cancel context.CancelFunc) (display.Renderer, error)

// Runner executes one configured run.
type Runner struct {
	Config *config.Config

	// Opener opens the serial port; nil selects serialport.Open, or a replay
	// port when Config.Dev is set.
	Opener serialport.Opener

	// NewRenderer defaults to NewRenderer.
	NewRenderer RendererFactory

	Stdout io.Writer
	Clock  timeutil.Clock
}

// Run connects to the analyser and runs the configured mode until it ends,
// fails or ctx is cancelled. Cancellation is reported as ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.Config
	if err := monitoring.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	protocol, err := arduinosa.ParseProtocol(cfg.Protocol)
	if err != nil {
		return err
	}

	open, err := r.opener()
	if err != nil {
		return err
	}

	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	dev, err := arduinosa.Connect(ctx, open, cfg.Device, cfg.PortOptions(),
		arduinosa.WithProtocol(protocol),
		arduinosa.WithResetPulse(cfg.ResetPulse),
		arduinosa.WithHandshakeTimeout(cfg.HandshakeTimeout),
		arduinosa.WithClock(clock),
	)
	if err != nil {
		return err
	}
	defer dev.Close()

	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}

	switch cfg.Mode {
	case config.ModeSingle:
		return runSingle(ctx, dev, display.NewPrinter(out))
	case config.ModeForever:
		return runForever(ctx, dev, display.NewPrinter(out))
	default:
		return r.runPlot(ctx, dev, clock)
	}
}

func (r *Runner) opener() (serialport.Opener, error) {
	if r.Opener != nil {
		return r.Opener, nil
	}
	if r.Config.Dev != "" {
		return serialport.ReplayOpener(r.Config.Dev, ReplayBootLine, serialport.DefaultReplayDelay)
	}
	return serialport.Open, nil
}

func runSingle(ctx context.Context, dev *arduinosa.Device, p *display.Printer) error {
	sweep, err := dev.ReadSweep(ctx)
	if err != nil {
		return err
	}
	if err := p.PrintSweep(sweep); err != nil {
		return fmt.Errorf("print sweep: %w", err)
	}
	monitoring.Logf("%s", arduinosa.Summarize(sweep))
	return dev.Close()
}

func runForever(ctx context.Context, dev *arduinosa.Device, p *display.Printer) error {
	n, err := p.PrintAll(dev.Samples(ctx))
	monitoring.Debugf("printed %d samples, dropped %d records", n, dev.Dropped())
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (r *Runner) runPlot(ctx context.Context, dev *arduinosa.Device, clock timeutil.Clock) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	newRenderer := r.NewRenderer
	if newRenderer == nil {
		newRenderer = NewRenderer
	}
	renderer, err := newRenderer(r.Config, cancel)
	if err != nil {
		return err
	}
	defer renderer.Close()

	if path := r.Config.OutputPath(); path != "" {
		monitoring.Logf("plotting to %s", path)
	}

	interval := r.Config.Interval
	if interval == 0 {
		interval = -1
	}
	n, err := display.Run(ctx, dev.Sweeps(ctx), renderer, display.LoopOptions{
		Interval: interval,
		Clock:    clock,
	})
	monitoring.Debugf("plotted %d sweeps, dropped %d records", n, dev.Dropped())
	return err
}

// NewRenderer builds the renderer selected by cfg.Display.
func NewRenderer(cfg *config.Config, cancel context.CancelFunc) (display.Renderer, error) {
	switch cfg.Display {
	case config.DisplayHTML:
		return display.NewHTMLRenderer(cfg.OutputPath(), cfg.Interval), nil
	case config.DisplayTerm:
		r, err := display.NewTerminalRenderer()
		if err != nil {
			return nil, err
		}
		r.Watch(cancel)
		// console log lines would scribble over the plot
		monitoring.SetLogger(nil)
		return r, nil
	default:
		return display.NewPNGRenderer(cfg.OutputPath()), nil
	}
}
