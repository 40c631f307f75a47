package arduinosa

import "fmt"

// Channel is a 2.4 GHz Wi-Fi channel and the 20 MHz it occupies.
type Channel struct {
	Number    int
	CenterMHz int
	StartMHz  int
	EndMHz    int
}

func (c Channel) String() string {
	return fmt.Sprintf("ch %d", c.Number)
}

// WiFiChannels lists the 2.4 GHz Wi-Fi channels inside the analyser's band.
var WiFiChannels = []Channel{
	{Number: 1, CenterMHz: 2412, StartMHz: 2402, EndMHz: 2422},
	{Number: 2, CenterMHz: 2417, StartMHz: 2407, EndMHz: 2427},
	{Number: 3, CenterMHz: 2422, StartMHz: 2412, EndMHz: 2432},
	{Number: 4, CenterMHz: 2427, StartMHz: 2417, EndMHz: 2437},
	{Number: 5, CenterMHz: 2432, StartMHz: 2422, EndMHz: 2442},
	{Number: 6, CenterMHz: 2437, StartMHz: 2427, EndMHz: 2447},
	{Number: 7, CenterMHz: 2442, StartMHz: 2432, EndMHz: 2452},
	{Number: 8, CenterMHz: 2447, StartMHz: 2437, EndMHz: 2457},
	{Number: 9, CenterMHz: 2452, StartMHz: 2442, EndMHz: 2462},
	{Number: 10, CenterMHz: 2457, StartMHz: 2447, EndMHz: 2467},
	{Number: 11, CenterMHz: 2462, StartMHz: 2452, EndMHz: 2472},
	{Number: 12, CenterMHz: 2467, StartMHz: 2457, EndMHz: 2477},
	{Number: 13, CenterMHz: 2472, StartMHz: 2462, EndMHz: 2482},
	{Number: 14, CenterMHz: 2484, StartMHz: 2474, EndMHz: 2494},
}

// NearestChannel returns the Wi-Fi channel whose centre is closest to
// freqMHz among those whose span contains it. Ties go to the lower channel.
func NearestChannel(freqMHz int) (Channel, bool) {
	var best Channel
	found := false
	bestDist := 0
	for _, c := range WiFiChannels {
		if freqMHz < c.StartMHz || freqMHz > c.EndMHz {
			continue
		}
		dist := freqMHz - c.CenterMHz
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			best, bestDist, found = c, dist, true
		}
	}
	return best, found
}
