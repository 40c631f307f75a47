package arduinosa

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one sweep for logging.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Peak   Sample
}

// Summarize computes the mean level and the strongest channel of a sweep.
// The first sample wins when several share the peak level.
func Summarize(s Sweep) Summary {
	if len(s) == 0 {
		return Summary{}
	}
	levels := s.Levels()
	mean, std := stat.MeanStdDev(levels, nil)
	if len(levels) < 2 {
		std = 0
	}
	return Summary{
		Count:  len(s),
		Mean:   mean,
		StdDev: std,
		Peak:   s[floats.MaxIdx(levels)],
	}
}

func (s Summary) String() string {
	if s.Count == 0 {
		return "empty sweep"
	}
	peak := fmt.Sprintf("%d MHz", s.Peak.FreqMHz)
	if c, ok := NearestChannel(s.Peak.FreqMHz); ok {
		peak += " (" + c.String() + ")"
	}
	return fmt.Sprintf("%d channels, peak %s rssi %d, mean %.1f ± %.1f", s.Count, peak, s.Peak.RSSI, s.Mean, s.StdDev)
}
