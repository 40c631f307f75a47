package arduinosa

import (
	"context"
	"maps"

	"github.com/banshee-data/arduinosa/internal/monitoring"
)

// LegacyAccumulator collects text protocol samples keyed by frequency until
// LegacySweepSize distinct channels are held. Malformed lines do not count.
type LegacyAccumulator struct {
	samples map[int]int
	parsed  int
}

// NewLegacyAccumulator returns an empty accumulator.
func NewLegacyAccumulator() *LegacyAccumulator {
	return &LegacyAccumulator{samples: make(map[int]int, LegacySweepSize)}
}

// Add parses line and stores its sample. A repeated frequency overwrites the
// earlier level and does not advance the count.
func (a *LegacyAccumulator) Add(line string) Result {
	res := ParseTextLine(line)
	if res.Outcome == GotSample {
		a.samples[res.Sample.FreqMHz] = res.Sample.RSSI
		a.parsed++
	}
	return res
}

// Len returns the number of distinct frequencies held.
func (a *LegacyAccumulator) Len() int {
	return len(a.samples)
}

// Parsed returns the number of lines that parsed successfully.
func (a *LegacyAccumulator) Parsed() int {
	return a.parsed
}

// Complete reports whether a full text sweep has been collected. It counts
// distinct frequencies, not parsed lines, so a repeated channel keeps the
// sweep open until every slot is filled.
func (a *LegacyAccumulator) Complete() bool {
	return len(a.samples) >= LegacySweepSize
}

// Samples returns a copy of the collected levels keyed by frequency.
func (a *LegacyAccumulator) Samples() map[int]int {
	return maps.Clone(a.samples)
}

// Sweep returns the collected samples ordered by frequency.
func (a *LegacyAccumulator) Sweep() Sweep {
	return sweepFromMap(a.samples)
}

// ReadLegacySweep runs one text protocol sweep: it sends the start command,
// collects LegacySweepSize distinct channels, skipping lines that do not
// parse, and sends the stop command.
func (d *Device) ReadLegacySweep(ctx context.Context) (Sweep, error) {
	if err := d.sendCommand(StartCommand); err != nil {
		return nil, err
	}

	acc := NewLegacyAccumulator()
	for !acc.Complete() {
		d.setState(AwaitingSample)
		line, err := d.lines.ReadLine(ctx)
		if err != nil {
			d.stopQuietly()
			return nil, err
		}
		if res := acc.Add(line); res.Outcome == Retry {
			monitoring.Debugf("skipped line %q from %s: %v", line, d.path, res.Err)
		}
		d.setState(Ready)
	}

	if err := d.sendCommand(StopCommand); err != nil {
		return nil, err
	}
	return acc.Sweep(), nil
}

// stopQuietly asks the board to stop streaming on the way out of an
// interrupted sweep. The port may already be gone, so errors are only logged.
func (d *Device) stopQuietly() {
	if err := d.sendCommand(StopCommand); err != nil {
		monitoring.Debugf("stop after interrupted sweep: %v", err)
	}
}
