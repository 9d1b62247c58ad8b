package buttons

import (
	"context"

	termbox "github.com/nsf/termbox-go"
)

// TermboxSource reads key presses from termbox's event queue. It is used
// together with the termbox display, which owns the terminal.
type TermboxSource struct{}

// Watch implements Source.
func (TermboxSource) Watch(ctx context.Context, h Handlers) error {
	events := make(chan termbox.Event)
	go func() {
		defer close(events)
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-ctx.Done():
			termbox.Interrupt()
			for range events {
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == termbox.EventError {
				return ev.Err
			}
			if ev.Type == termbox.EventKey {
				h.fire(termboxAction(ev))
			}
		}
	}
}

func termboxAction(ev termbox.Event) Action {
	switch ev.Key {
	case termbox.KeyCtrlC, termbox.KeyEsc:
		return Quit
	case termbox.KeySpace:
		return Pause
	}
	return ActionForRune(ev.Ch)
}
