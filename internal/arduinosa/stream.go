package arduinosa

import (
	"context"
	"iter"
	"sync/atomic"

	"github.com/banshee-data/arduinosa/internal/monitoring"
)

// Sweeps returns a lazy, infinite sequence of sweeps read with ReadSweep.
// Stopping the range loop stops acquisition. When reading fails, the error
// is yielded once and the sequence ends. The sequence can be ranged over only
// once; later attempts yield ErrStreamConsumed.
func (d *Device) Sweeps(ctx context.Context) iter.Seq2[Sweep, error] {
	var used atomic.Bool
	return func(yield func(Sweep, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}
		for {
			sweep, err := d.ReadSweep(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(sweep, nil) {
				return
			}
		}
	}
}

// Samples returns a lazy, infinite sequence of individual samples, the
// diagnostic "read forever" view of the board. Malformed lines are handled
// as in ReadSweep: skipped for the text protocol, resynchronised for JSON.
// Samples of a sweep record are yielded one by one. Like Sweeps, the
// sequence is single-use.
func (d *Device) Samples(ctx context.Context) iter.Seq2[Sample, error] {
	var used atomic.Bool
	return func(yield func(Sample, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield(Sample{}, ErrStreamConsumed)
			return
		}

		parse := ParseRecord
		if d.protocol == ProtocolText {
			if err := d.sendCommand(StartCommand); err != nil {
				yield(Sample{}, err)
				return
			}
			defer d.stopQuietly()
			parse = ParseTextLine
		}

		for {
			d.setState(AwaitingSample)
			line, err := d.lines.ReadLine(ctx)
			if err != nil {
				yield(Sample{}, err)
				return
			}

			res := parse(line)
			if res.Outcome == Retry {
				if d.protocol == ProtocolText {
					monitoring.Debugf("skipped line %q from %s: %v", line, d.path, res.Err)
					d.setState(Ready)
					continue
				}
				if err := d.resync(ctx, line, res.Err); err != nil {
					yield(Sample{}, err)
					return
				}
				continue
			}

			d.setState(Ready)
			for _, sample := range res.Samples() {
				if !yield(sample, nil) {
					return
				}
			}
		}
	}
}
