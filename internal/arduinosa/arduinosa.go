// Package arduinosa talks to the ArduinoSA, a 2.4 GHz spectrum analyser built
// from an Arduino and a CYWM6935 radio. It resets and identifies the board,
// requests sweeps and decodes the line-delimited records it sends back.
//
// Two wire protocols are supported. The text protocol sends
// "<channel> <rssi>" lines between an 'l' (start) and 's' (stop) command and
// carries no handshake. The JSON protocol announces itself with a record
// holding the "ArduinoSA" key after every reset and then sends records that
// wrap either one {"freq","rssi"} sample or a whole sweep array under that
// same key.
package arduinosa

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// IdentityKey marks every record sent by the JSON firmware.
	IdentityKey = "ArduinoSA"

	// FreqOffsetMHz is added to the channel number of text records.
	FreqOffsetMHz = 2400

	// LegacySweepSize is the number of distinct channels in a text sweep.
	LegacySweepSize = 100

	// SweepStartMHz and SweepEndMHz bound the JSON firmware's scan.
	SweepStartMHz = 2400
	SweepEndMHz   = 2494

	// MaxRSSI is the largest level the radio reports (5-bit register).
	MaxRSSI = 31

	// StartCommand and StopCommand frame a text sweep.
	StartCommand = 'l'
	StopCommand  = 's'
)

var (
	// ErrNotArduinoSA is returned when the handshake record does not
	// identify the board.
	ErrNotArduinoSA = errors.New("not an ArduinoSA")

	// ErrStreamConsumed is yielded when a sweep or sample stream is ranged
	// over a second time.
	ErrStreamConsumed = errors.New("arduinosa: stream already consumed")
)

// Protocol selects the wire format spoken by the firmware.
type Protocol string

const (
	ProtocolJSON Protocol = "json"
	ProtocolText Protocol = "text"
)

// ParseProtocol maps a configuration value onto a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json", "v2":
		return ProtocolJSON, nil
	case "text", "legacy", "v1":
		return ProtocolText, nil
	}
	return "", fmt.Errorf("unknown protocol %q: expected json or text", s)
}
