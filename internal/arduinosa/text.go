package arduinosa

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTextLine parses a text protocol record "<channel> <rssi>". The
// frequency of the returned sample is the channel plus FreqOffsetMHz.
func ParseTextLine(line string) Result {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return retry(fmt.Errorf("text record %q: want 2 fields, got %d", line, len(fields)))
	}

	channel, err := strconv.Atoi(fields[0])
	if err != nil {
		return retry(fmt.Errorf("text record %q: channel: %w", line, err))
	}
	level, err := strconv.Atoi(fields[1])
	if err != nil {
		return retry(fmt.Errorf("text record %q: level: %w", line, err))
	}

	return sampleResult(Sample{FreqMHz: channel + FreqOffsetMHz, RSSI: level})
}
