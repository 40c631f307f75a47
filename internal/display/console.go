package display

import (
	"fmt"
	"io"
	"iter"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
)

// Printer writes samples to a console, one per line, in the form
// "Frequency: 2412MHz, RSSI: 7".
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes one sample.
func (p *Printer) Print(s arduinosa.Sample) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

// PrintSweep writes every sample of a sweep.
func (p *Printer) PrintSweep(sweep arduinosa.Sweep) error {
	for _, s := range sweep {
		if err := p.Print(s); err != nil {
			return err
		}
	}
	return nil
}

// PrintAll prints samples until the sequence ends or fails and returns the
// number printed.
func (p *Printer) PrintAll(samples iter.Seq2[arduinosa.Sample, error]) (int, error) {
	n := 0
	for s, err := range samples {
		if err != nil {
			return n, err
		}
		if err := p.Print(s); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
