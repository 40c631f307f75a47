// Package display turns sweeps into plots. The loop in Run threads the
// ghost trace from one frame to the next; renderers only ever see a Frame.
package display

import (
	"github.com/banshee-data/arduinosa/internal/arduinosa"
)

const (
	// YMin and YMax fix the level axis so successive frames line up.
	YMin = 0
	YMax = 35
)

// Trace is a sweep as parallel frequency and level series, ordered by
// frequency.
type Trace struct {
	Freqs  []float64
	Levels []float64
}

// TraceFromSweep converts a sweep into a trace.
func TraceFromSweep(s arduinosa.Sweep) Trace {
	sorted := s.Sorted()
	return Trace{Freqs: sorted.Freqs(), Levels: sorted.Levels()}
}

// Len returns the number of points.
func (t Trace) Len() int { return len(t.Freqs) }

// XY returns point i.
func (t Trace) XY(i int) (x, y float64) { return t.Freqs[i], t.Levels[i] }

// Frame is everything a renderer draws for one sweep.
type Frame struct {
	Seq     int
	Current Trace
	// Ghost is the previous frame's current trace, nil on the first frame.
	Ghost   *Trace
	Summary arduinosa.Summary
}

// Step builds frame seq from sweep and the ghost carried over from the
// previous frame. It returns the ghost to pass to the next call.
func Step(ghost *Trace, seq int, sweep arduinosa.Sweep) (Frame, *Trace) {
	current := TraceFromSweep(sweep)
	frame := Frame{
		Seq:     seq,
		Current: current,
		Ghost:   ghost,
		Summary: arduinosa.Summarize(sweep),
	}
	return frame, &current
}

// FreqRange returns the frequency axis for f. It starts at SweepStartMHz
// and ends at SweepEndMHz or the highest frequency in either trace,
// whichever is larger; text protocol sweeps run to 2499 MHz.
func (f Frame) FreqRange() (lo, hi float64) {
	lo, hi = arduinosa.SweepStartMHz, arduinosa.SweepEndMHz
	for _, t := range []*Trace{&f.Current, f.Ghost} {
		if t == nil || t.Len() == 0 {
			continue
		}
		hi = max(hi, t.Freqs[t.Len()-1])
	}
	return lo, hi
}
