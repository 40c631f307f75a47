package arduinosa

import (
	"fmt"
	"slices"
)

// Sample is one channel reading: a frequency in MHz and the unitless RSSI
// level the radio reported for it.
type Sample struct {
	FreqMHz int `json:"freq"`
	RSSI    int `json:"rssi"`
}

func (s Sample) String() string {
	return fmt.Sprintf("Frequency: %dMHz, RSSI: %d", s.FreqMHz, s.RSSI)
}

// Sweep is the set of samples from one scan across the band.
type Sweep []Sample

// Freqs returns the sample frequencies as float64 values in sweep order.
func (s Sweep) Freqs() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = float64(sample.FreqMHz)
	}
	return out
}

// Levels returns the sample RSSI values as float64 values in sweep order.
func (s Sweep) Levels() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = float64(sample.RSSI)
	}
	return out
}

// Sorted returns a copy of the sweep ordered by frequency.
func (s Sweep) Sorted() Sweep {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b Sample) int {
		return a.FreqMHz - b.FreqMHz
	})
	return out
}

// sweepFromMap builds a frequency-ordered sweep from samples keyed by
// frequency.
func sweepFromMap(m map[int]int) Sweep {
	out := make(Sweep, 0, len(m))
	for freq, rssi := range m {
		out = append(out, Sample{FreqMHz: freq, RSSI: rssi})
	}
	slices.SortFunc(out, func(a, b Sample) int {
		return a.FreqMHz - b.FreqMHz
	})
	return out
}
