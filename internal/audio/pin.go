package audio

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
)

// PWMPin is the subset of gpio.PinOut a buzzer needs.
type PWMPin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Out(l gpio.Level) error
}

// PinLine drives a piezo buzzer with a 50% duty square wave on a GPIO pin.
type PinLine struct {
	pin PWMPin
}

// NewPinLine wraps an already resolved pin.
func NewPinLine(pin PWMPin) *PinLine {
	return &PinLine{pin: pin}
}

// OpenPinLine looks up a pin by name in the periph registry. host.Init must
// have been called first.
func OpenPinLine(name string) (*PinLine, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure %s as output: %w", name, err)
	}
	return NewPinLine(p), nil
}

// Tone implements Line.
func (l *PinLine) Tone(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("invalid tone frequency %d Hz", hz)
	}
	return l.pin.PWM(gpio.DutyHalf, physic.Frequency(hz)*physic.Hertz)
}

// NoTone implements Line. Driving the pin low stops the PWM.
func (l *PinLine) NoTone() error {
	return l.pin.Out(gpio.Low)
}
