package audio

import (
	"testing"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

type fakePWMPin struct {
	duty  gpio.Duty
	freq  physic.Frequency
	level gpio.Level
	outs  int
}

func (p *fakePWMPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	p.duty, p.freq = duty, f
	return nil
}

func (p *fakePWMPin) Out(l gpio.Level) error {
	p.level = l
	p.duty, p.freq = 0, 0
	p.outs++
	return nil
}

func TestPinLine(t *testing.T) {
	pin := &fakePWMPin{}
	line := NewPinLine(pin)

	if err := line.Tone(1562); err != nil {
		t.Fatalf("Tone: %v", err)
	}
	if pin.duty != gpio.DutyHalf {
		t.Errorf("duty = %v, want 50%%", pin.duty)
	}
	if pin.freq != 1562*physic.Hertz {
		t.Errorf("freq = %v, want 1.562kHz", pin.freq)
	}

	if err := line.NoTone(); err != nil {
		t.Fatalf("NoTone: %v", err)
	}
	if pin.level != gpio.Low || pin.outs != 1 {
		t.Errorf("pin not driven low: level=%v outs=%d", pin.level, pin.outs)
	}
}

func TestPinLineRejectsNonPositive(t *testing.T) {
	line := NewPinLine(&fakePWMPin{})
	if err := line.Tone(0); err == nil {
		t.Error("Tone(0) returned no error")
	}
}

func TestOpenPinLineUnknownPin(t *testing.T) {
	if _, err := OpenPinLine("NO_SUCH_PIN_42"); err == nil {
		t.Error("OpenPinLine accepted an unknown pin")
	}
}
