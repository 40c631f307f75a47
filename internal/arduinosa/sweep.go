package arduinosa

import (
	"context"
)

// ReadSweep blocks until one complete sweep has been received and returns it.
// With the text protocol it delegates to ReadLegacySweep.
//
// A JSON record carrying an array is returned as the sweep. Records carrying
// single samples are collected by frequency until the sample at the sweep
// end frequency arrives. Malformed lines and read timeouts reset the board
// and are retried without limit, so the only errors returned are context
// cancellation and transport failures.
func (d *Device) ReadSweep(ctx context.Context) (Sweep, error) {
	if d.protocol == ProtocolText {
		return d.ReadLegacySweep(ctx)
	}

	collected := make(map[int]int)
	for {
		d.setState(AwaitingSample)
		line, err := d.lines.ReadLine(ctx)
		if err != nil {
			return nil, err
		}

		res := ParseRecord(line)
		switch res.Outcome {
		case GotSweep:
			d.setState(Ready)
			return res.Sweep, nil

		case GotSample:
			d.setState(Ready)
			collected[res.Sample.FreqMHz] = res.Sample.RSSI
			if res.Sample.FreqMHz >= d.sweepEnd {
				return sweepFromMap(collected), nil
			}

		default:
			if err := d.resync(ctx, line, res.Err); err != nil {
				return nil, err
			}
		}
	}
}
