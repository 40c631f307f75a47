package display

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/monitoring"
	"github.com/banshee-data/arduinosa/internal/timeutil"
)

// DefaultInterval is the pause between plotted sweeps.
const DefaultInterval = 500 * time.Millisecond

// Renderer draws frames. Implementations are not required to be safe for
// concurrent use.
type Renderer interface {
	Render(Frame) error
	Close() error
}

// RendererFunc adapts a function to Renderer with a no-op Close.
type RendererFunc func(Frame) error

// Render calls f.
func (f RendererFunc) Render(frame Frame) error { return f(frame) }

// Close does nothing.
func (RendererFunc) Close() error { return nil }

// LoopOptions configures Run.
type LoopOptions struct {
	// Interval is waited after each rendered frame. Zero means
	// DefaultInterval; a negative value disables the wait.
	Interval time.Duration
	Clock    timeutil.Clock
}

// Run renders every sweep from sweeps, carrying each frame's trace forward
// as the next frame's ghost. It returns the number of frames rendered and
// stops when the sequence ends, when reading or rendering fails, or when
// ctx is cancelled, in which case the error is ctx.Err().
func Run(ctx context.Context, sweeps iter.Seq2[arduinosa.Sweep, error], r Renderer, opts LoopOptions) (int, error) {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	var ghost *Trace
	rendered := 0
	start := clock.Now()

	for sweep, err := range sweeps {
		if err != nil {
			if ctx.Err() != nil {
				return rendered, ctx.Err()
			}
			return rendered, fmt.Errorf("read sweep: %w", err)
		}

		var frame Frame
		frame, ghost = Step(ghost, rendered+1, sweep)
		if err := r.Render(frame); err != nil {
			return rendered, fmt.Errorf("render frame %d: %w", frame.Seq, err)
		}
		rendered++
		monitoring.Debugf("sweep %s: %s", humanize.Comma(int64(frame.Seq)), frame.Summary)
		if rendered%100 == 0 {
			monitoring.Logf("plotted %s sweeps in %s", humanize.Comma(int64(rendered)), clock.Since(start).Round(time.Second))
		}

		if err := timeutil.SleepContext(ctx, clock, interval); err != nil {
			return rendered, err
		}
	}
	return rendered, ctx.Err()
}
