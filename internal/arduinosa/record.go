package arduinosa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errEmptyLine = errors.New("empty line")

// Handshake is the decoded identity record sent after a reset.
type Handshake map[string]json.RawMessage

// Firmware returns the value carried under IdentityKey as text, for logging.
func (h Handshake) Firmware() string {
	raw, ok := h[IdentityKey]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type wireSample struct {
	Freq *int `json:"freq"`
	RSSI *int `json:"rssi"`
}

func (w wireSample) sample() (Sample, error) {
	if w.Freq == nil {
		return Sample{}, errors.New(`sample has no "freq" field`)
	}
	if w.RSSI == nil {
		return Sample{}, errors.New(`sample has no "rssi" field`)
	}
	return Sample{FreqMHz: *w.Freq, RSSI: *w.RSSI}, nil
}

func decodeObject(line string) (map[string]json.RawMessage, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, errEmptyLine
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("record %q is not a JSON object", trimmed)
	}
	return obj, nil
}

// Identify decodes a handshake line and checks that it carries IdentityKey.
// Any failure wraps ErrNotArduinoSA.
func Identify(line string) (Handshake, error) {
	obj, err := decodeObject(line)
	if err != nil {
		return nil, fmt.Errorf("%w: handshake %q: %v", ErrNotArduinoSA, line, err)
	}
	if _, ok := obj[IdentityKey]; !ok {
		return nil, fmt.Errorf("%w: handshake %q has no %q key", ErrNotArduinoSA, line, IdentityKey)
	}
	return Handshake(obj), nil
}

// ParseRecord parses a JSON protocol record. A record wrapping an object is
// one sample; a record wrapping an array is a whole sweep, returned as sent
// without checking its length or frequency coverage.
func ParseRecord(line string) Result {
	obj, err := decodeObject(line)
	if err != nil {
		return retry(err)
	}

	raw, ok := obj[IdentityKey]
	if !ok {
		return retry(fmt.Errorf("record has no %q key", IdentityKey))
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return retry(fmt.Errorf("record has an empty %q value", IdentityKey))
	}

	switch raw[0] {
	case '[':
		var wire []wireSample
		if err := json.Unmarshal(raw, &wire); err != nil {
			return retry(fmt.Errorf("sweep payload: %w", err))
		}
		sweep := make(Sweep, len(wire))
		for i, w := range wire {
			s, err := w.sample()
			if err != nil {
				return retry(fmt.Errorf("sweep payload index %d: %w", i, err))
			}
			sweep[i] = s
		}
		return sweepResult(sweep)

	case '{':
		var wire wireSample
		if err := json.Unmarshal(raw, &wire); err != nil {
			return retry(fmt.Errorf("sample payload: %w", err))
		}
		s, err := wire.sample()
		if err != nil {
			return retry(err)
		}
		return sampleResult(s)
	}

	return retry(fmt.Errorf("%q value %s is neither a sample nor a sweep", IdentityKey, raw))
}
