// Package buttons turns physical or emulated button presses into calls on the
// station's toggle handlers. Handlers are expected to do nothing but flip a
// flag; sources never touch the display, serial link or audio themselves.
package buttons

import (
	"context"
	"unicode"
)

// Handlers are invoked on each press.
type Handlers struct {
	Pause  func()
	Output func()
	// Quit is optional; keyboard sources call it on q or Ctrl-C.
	Quit func()
}

func (h Handlers) fire(a Action) {
	var f func()
	switch a {
	case Pause:
		f = h.Pause
	case Output:
		f = h.Output
	case Quit:
		f = h.Quit
	}
	if f != nil {
		f()
	}
}

// Source delivers presses to Handlers until ctx is done.
type Source interface {
	Watch(ctx context.Context, h Handlers) error
}

// Action is what a key or pin maps to.
type Action int

const (
	None Action = iota
	Pause
	Output
	Quit
)

func (a Action) String() string {
	switch a {
	case Pause:
		return "pause"
	case Output:
		return "output"
	case Quit:
		return "quit"
	default:
		return "none"
	}
}

// ActionForRune maps a typed character to an action: p or space pauses, o or
// t toggles the output device, q quits.
func ActionForRune(r rune) Action {
	switch unicode.ToLower(r) {
	case 'p', ' ':
		return Pause
	case 'o', 't':
		return Output
	case 'q':
		return Quit
	default:
		return None
	}
}

// NoneSource never delivers a press.
type NoneSource struct{}

// Watch blocks until ctx is done.
func (NoneSource) Watch(ctx context.Context, _ Handlers) error {
	<-ctx.Done()
	return nil
}
