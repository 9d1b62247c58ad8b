// Package station runs the receiver display loop: sample a reading, map it to
// a tone, draw it, send it to the companion device and play it, once per
// cycle. All loop state lives on a Station; button handlers only flip the
// pause and output flags, which the loop reads at the start of each cycle.
package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/groundstation/internal/audio"
	"github.com/banshee-data/groundstation/internal/lcd"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/rssi"
	"github.com/banshee-data/groundstation/internal/serialmux"
	"github.com/banshee-data/groundstation/internal/timeutil"
)

// Options control loop timing and the readings sampled.
type Options struct {
	// ToneOn and ToneGap time the tone of a running cycle.
	ToneOn  time.Duration
	ToneGap time.Duration
	// PausedTone is how long the replayed tone sounds while paused. There is
	// no gap after it.
	PausedTone time.Duration
	// CycleDelay is the wait at the end of every cycle.
	CycleDelay time.Duration
	// SkipStartup skips the boot and welcome screens.
	SkipStartup bool
	// Sequence defaults to rssi.TestSequence.
	Sequence rssi.Sequence
}

// DefaultOptions returns the timings of the hardware unit.
func DefaultOptions() Options {
	return Options{
		ToneOn:     500 * time.Millisecond,
		ToneGap:    500 * time.Millisecond,
		PausedTone: 1000 * time.Millisecond,
		CycleDelay: 1000 * time.Millisecond,
		Sequence:   rssi.TestSequence,
	}
}

// Recorder persists completed cycles.
type Recorder interface {
	RecordCycle(ctx context.Context, c Cycle) error
}

// Cycle describes one pass of the loop.
type Cycle struct {
	Session string    `json:"session"`
	Seq     int64     `json:"seq"`
	At      time.Time `json:"at"`
	// Cursor is the sampler position at the start of the cycle. For a
	// running cycle it is the index the reading came from.
	Cursor      int          `json:"cursor"`
	RSSI        int          `json:"rssi"`
	ToneHz      int          `json:"tone_hz"`
	Paused      bool         `json:"paused"`
	Device      audio.Device `json:"device"`
	Transmitted bool         `json:"transmitted"`
	// Replayed is set when a paused cycle had a previous reading to repeat.
	Replayed bool `json:"replayed"`
}

// Station owns the loop state.
type Station struct {
	display lcd.Display
	link    serialmux.Sender
	audio   *audio.Driver
	clock   timeutil.Clock
	opts    Options

	sampler    *rssi.Sampler
	current    rssi.Reading
	hasReading bool
	seq        int64
	session    string

	paused   atomic.Bool
	isBuzzer atomic.Bool

	recorderMu sync.RWMutex
	recorder   Recorder

	statusMu sync.Mutex
	last     *Cycle
	next     int
}

// New creates a Station in the running state with the buzzer selected.
func New(display lcd.Display, link serialmux.Sender, driver *audio.Driver, clock timeutil.Clock, opts Options) (*Station, error) {
	if display == nil {
		return nil, errors.New("station: display is required")
	}
	if link == nil {
		link = serialmux.NewDisabledLink()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if driver == nil {
		driver = audio.NewDriver(nil, nil, clock)
	}
	if opts.Sequence == nil {
		opts.Sequence = rssi.TestSequence
	}
	sampler, err := rssi.NewSampler(opts.Sequence)
	if err != nil {
		return nil, fmt.Errorf("station: %w", err)
	}

	s := &Station{
		display: display,
		link:    link,
		audio:   driver,
		clock:   clock,
		opts:    opts,
		sampler: sampler,
		session: uuid.NewString(),
	}
	s.isBuzzer.Store(true)
	return s, nil
}

// Session identifies this run in the cycle history.
func (s *Station) Session() string { return s.session }

// SetRecorder installs r to receive every cycle. nil disables recording.
func (s *Station) SetRecorder(r Recorder) {
	s.recorderMu.Lock()
	defer s.recorderMu.Unlock()
	s.recorder = r
}

func toggle(b *atomic.Bool) bool {
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// TogglePause flips between running and paused and returns the new state.
// Safe to call from any goroutine.
func (s *Station) TogglePause() bool {
	paused := toggle(&s.paused)
	monitoring.Debugf("station: paused=%t", paused)
	return paused
}

// ToggleOutput switches the tone between buzzer and headphones and returns
// the newly selected device. Safe to call from any goroutine.
func (s *Station) ToggleOutput() audio.Device {
	dev := deviceFor(toggle(&s.isBuzzer))
	monitoring.Debugf("station: output=%s", dev)
	return dev
}

// Paused reports the pause flag.
func (s *Station) Paused() bool { return s.paused.Load() }

// Output reports the selected audio device.
func (s *Station) Output() audio.Device { return deviceFor(s.isBuzzer.Load()) }

func deviceFor(isBuzzer bool) audio.Device {
	if isBuzzer {
		return audio.Buzzer
	}
	return audio.Headphones
}

// Run plays the startup screens, unless skipped, then cycles until ctx is
// done. Cancellation is checked between cycles; a cycle in progress always
// completes. A display error during startup is logged and the loop starts
// anyway, as it would for the same error inside a cycle.
func (s *Station) Run(ctx context.Context) error {
	if !s.opts.SkipStartup {
		if err := s.Startup(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			monitoring.Logf("station: startup: %v", err)
		}
	}
	for ctx.Err() == nil {
		s.Step(ctx)
	}
	return nil
}

// Step runs one cycle and returns what it did. Peripheral errors are logged
// and do not stop the cycle.
func (s *Station) Step(ctx context.Context) Cycle {
	paused := s.paused.Load()
	dev := s.Output()

	s.seq++
	c := Cycle{
		Session: s.session,
		Seq:     s.seq,
		At:      s.clock.Now(),
		Cursor:  s.sampler.Position(),
		Paused:  paused,
		Device:  dev,
	}

	if !paused {
		s.current = rssi.NewReading(s.sampler.Current())
		s.hasReading = true
		if err := lcd.ShowReading(s.display, s.current); err != nil {
			monitoring.Logf("station: display: %v", err)
		}
	} else {
		if err := lcd.ShowPaused(s.display); err != nil {
			monitoring.Logf("station: display: %v", err)
		}
		c.Replayed = s.hasReading
	}

	// Paused before the first reading: nothing to replay.
	if s.hasReading {
		c.RSSI = s.current.RSSI
		c.ToneHz = s.current.ToneHz

		err := s.link.Send(s.current.RSSI)
		switch {
		case err == nil:
			c.Transmitted = true
		case errors.Is(err, serialmux.ErrNotReady):
		default:
			monitoring.Logf("station: serial: %v", err)
		}

		on, gap := s.opts.ToneOn, s.opts.ToneGap
		if paused {
			on, gap = s.opts.PausedTone, 0
		}
		if err := s.audio.Play(dev, s.current.ToneHz, on, gap); err != nil {
			monitoring.Logf("station: audio: %v", err)
		}
	}

	if !paused {
		s.sampler.Advance()
	}

	monitoring.Debugf("station: cycle %d cursor=%d rssi=%d tone=%d paused=%t device=%s sent=%t",
		c.Seq, c.Cursor, c.RSSI, c.ToneHz, c.Paused, c.Device, c.Transmitted)

	s.statusMu.Lock()
	last := c
	s.last = &last
	s.next = s.sampler.Position()
	s.statusMu.Unlock()

	s.recorderMu.RLock()
	rec := s.recorder
	s.recorderMu.RUnlock()
	if rec != nil {
		// The cycle has already happened, so it is recorded even when ctx
		// was cancelled while it ran.
		if err := rec.RecordCycle(context.WithoutCancel(ctx), c); err != nil {
			monitoring.Logf("station: record cycle %d: %v", c.Seq, err)
		}
	}

	s.clock.Sleep(s.opts.CycleDelay)
	return c
}

// Status is a snapshot for readers outside the loop.
type Status struct {
	Session string       `json:"session"`
	Paused  bool         `json:"paused"`
	Output  audio.Device `json:"output"`
	// Cursor is the index the next running cycle will sample.
	Cursor int    `json:"cursor"`
	Cycles int64  `json:"cycles"`
	Last   *Cycle `json:"last,omitempty"`
	// Display is present when the display can report its contents.
	Display []string `json:"display,omitempty"`
}

// Status returns the current flags, the last completed cycle and, for
// displays that support it, the screen contents.
func (s *Station) Status() Status {
	st := Status{
		Session: s.session,
		Paused:  s.paused.Load(),
		Output:  s.Output(),
	}

	s.statusMu.Lock()
	st.Cursor = s.next
	if s.last != nil {
		last := *s.last
		st.Last = &last
		st.Cycles = last.Seq
	}
	s.statusMu.Unlock()

	if snap, ok := s.display.(lcd.Snapshotter); ok {
		lines := snap.Lines()
		st.Display = lines[:]
	}
	return st
}
