// Package rssi holds the simulated signal-strength table and the mapping from
// a reading to an audible tone.
package rssi

// Tone mapping domain and range.
const (
	MinRSSI   = -110 // dB, weakest reading in the table
	MaxRSSI   = -40  // dB, strongest reading in the table
	MinToneHz = 125
	MaxToneHz = 3000
)

// Map linearly re-maps x from [inMin, inMax] onto [outMin, outMax] using
// integer arithmetic. Division truncates toward zero and x is not clamped, so
// values outside the input range extrapolate.
func Map(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// ToneFor returns the tone frequency in Hz for a reading in dB.
func ToneFor(reading int) int {
	return Map(reading, MinRSSI, MaxRSSI, MinToneHz, MaxToneHz)
}

// Reading pairs a signal strength with the tone derived from it.
type Reading struct {
	RSSI   int `json:"rssi"`
	ToneHz int `json:"tone_hz"`
}

// NewReading builds the reading for rssi with its tone already mapped.
func NewReading(rssi int) Reading {
	return Reading{RSSI: rssi, ToneHz: ToneFor(rssi)}
}
