package arduinosa

import "fmt"

// Outcome says what a parsed line produced.
type Outcome int

const (
	// Retry means the line was malformed and carried nothing usable.
	Retry Outcome = iota
	// GotSample means the line carried one sample.
	GotSample
	// GotSweep means the line carried a whole sweep.
	GotSweep
)

func (o Outcome) String() string {
	switch o {
	case Retry:
		return "retry"
	case GotSample:
		return "sample"
	case GotSweep:
		return "sweep"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the outcome of parsing one line. Err explains a Retry.
type Result struct {
	Outcome Outcome
	Sample  Sample
	Sweep   Sweep
	Err     error
}

func retry(err error) Result {
	return Result{Outcome: Retry, Err: err}
}

func sampleResult(s Sample) Result {
	return Result{Outcome: GotSample, Sample: s}
}

func sweepResult(s Sweep) Result {
	return Result{Outcome: GotSweep, Sweep: s}
}

// Samples returns the samples carried by the result: none for Retry, one
// for GotSample, all of them for GotSweep.
func (r Result) Samples() []Sample {
	switch r.Outcome {
	case GotSample:
		return []Sample{r.Sample}
	case GotSweep:
		return r.Sweep
	}
	return nil
}
