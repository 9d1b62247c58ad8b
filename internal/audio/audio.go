// Package audio drives the two tone outputs, a piezo buzzer and a headphone
// jack, and plays a reading's tone on whichever one is selected.
package audio

import (
	"fmt"
	"time"

	"github.com/banshee-data/groundstation/internal/timeutil"
)

// Line is a tone-capable output.
type Line interface {
	// Tone starts a square wave at hz and returns without waiting.
	Tone(hz int) error
	// NoTone silences the line.
	NoTone() error
}

// Device selects which Line a tone is played on.
type Device int

const (
	Buzzer Device = iota
	Headphones
)

func (d Device) String() string {
	switch d {
	case Buzzer:
		return "buzzer"
	case Headphones:
		return "headphones"
	default:
		return fmt.Sprintf("Device(%d)", int(d))
	}
}

// MarshalText renders the device name in JSON.
func (d Device) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (d *Device) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buzzer":
		*d = Buzzer
	case "headphones":
		*d = Headphones
	default:
		return fmt.Errorf("unknown audio device %q", b)
	}
	return nil
}

// Driver plays tones on one of two lines, timing them with a Clock.
type Driver struct {
	buzzer     Line
	headphones Line
	clock      timeutil.Clock
}

// NewDriver returns a Driver for the given lines. A nil line is replaced with
// Silent.
func NewDriver(buzzer, headphones Line, clock timeutil.Clock) *Driver {
	if buzzer == nil {
		buzzer = Silent{}
	}
	if headphones == nil {
		headphones = Silent{}
	}
	return &Driver{buzzer: buzzer, headphones: headphones, clock: clock}
}

func (d *Driver) line(dev Device) Line {
	if dev == Headphones {
		return d.headphones
	}
	return d.buzzer
}

// Play sounds hz on dev for on, silences it, then waits gap. Only the selected
// line is touched. The delays always run to completion, even when the line
// reports an error, so the loop keeps its cadence.
func (d *Driver) Play(dev Device, hz int, on, gap time.Duration) error {
	line := d.line(dev)

	toneErr := line.Tone(hz)
	d.clock.Sleep(on)
	stopErr := line.NoTone()
	if gap > 0 {
		d.clock.Sleep(gap)
	}

	if toneErr != nil {
		return fmt.Errorf("failed to start %d Hz tone on %s: %w", hz, dev, toneErr)
	}
	if stopErr != nil {
		return fmt.Errorf("failed to silence %s: %w", dev, stopErr)
	}
	return nil
}

// Close releases both lines if they hold resources.
func (d *Driver) Close() error {
	var first error
	for _, l := range []Line{d.buzzer, d.headphones} {
		if c, ok := l.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Silent is a Line with nothing attached.
type Silent struct{}

func (Silent) Tone(int) error { return nil }
func (Silent) NoTone() error  { return nil }
