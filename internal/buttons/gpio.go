package buttons

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

// edgePollInterval bounds how long a watcher blocks in WaitForEdge before
// re-checking for shutdown.
const edgePollInterval = 250 * time.Millisecond

// EdgePin is the subset of gpio.PinIn used for a button.
type EdgePin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

// GPIOSource watches two active-low buttons for falling edges. Presses are
// not debounced.
type GPIOSource struct {
	pause  EdgePin
	output EdgePin
}

// NewGPIOSource wraps already resolved pins.
func NewGPIOSource(pause, output EdgePin) *GPIOSource {
	return &GPIOSource{pause: pause, output: output}
}

// OpenGPIOSource resolves both pins by name. host.Init must have been called.
func OpenGPIOSource(pauseName, outputName string) (*GPIOSource, error) {
	pause := gpioreg.ByName(pauseName)
	if pause == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pauseName)
	}
	output := gpioreg.ByName(outputName)
	if output == nil {
		return nil, fmt.Errorf("gpio pin %q not found", outputName)
	}
	return NewGPIOSource(pause, output), nil
}

// Watch implements Source.
func (s *GPIOSource) Watch(ctx context.Context, h Handlers) error {
	for _, p := range []EdgePin{s.pause, s.output} {
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return fmt.Errorf("failed to arm button edge detection: %w", err)
		}
	}

	var wg sync.WaitGroup
	for _, b := range []struct {
		pin    EdgePin
		action Action
	}{{s.pause, Pause}, {s.output, Output}} {
		wg.Add(1)
		go func(pin EdgePin, action Action) {
			defer wg.Done()
			for ctx.Err() == nil {
				if pin.WaitForEdge(edgePollInterval) {
					monitoring.Debugf("button: %s edge", action)
					h.fire(action)
				}
			}
		}(b.pin, b.action)
	}
	wg.Wait()
	return nil
}
