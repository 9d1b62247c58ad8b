package station

import (
	"context"
	"time"
)

// Boot screen text.
const (
	InitializingText = "Initializing..."
	FinishedText     = "Finished."
	WelcomeText      = "Welcome!"
	PromptText       = "Turn 10k pot"
	InputReadText    = "Input read:"
)

type screenStep struct {
	clear bool
	col   int
	row   int
	text  string
	wait  time.Duration
}

var bootScreens = []screenStep{
	{col: 0, row: 0, text: InitializingText, wait: 1000 * time.Millisecond},
	{col: 0, row: 1, text: FinishedText, wait: 1000 * time.Millisecond},
	{clear: true},
	{clear: true, col: 0, row: 0, text: WelcomeText, wait: 1500 * time.Millisecond},
	{col: 0, row: 1, text: PromptText, wait: 1000 * time.Millisecond},
	{clear: true},
	{col: 0, row: 0, text: InputReadText},
}

// Startup draws the boot and welcome screens and leaves the cursor at the
// start of the second row. ctx is checked between screens.
func (s *Station) Startup(ctx context.Context) error {
	for _, step := range bootScreens {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step.clear {
			if err := s.display.Clear(); err != nil {
				return err
			}
		}
		if step.text != "" {
			if err := s.display.SetCursor(step.col, step.row); err != nil {
				return err
			}
			if err := s.display.Print(step.text); err != nil {
				return err
			}
		}
		if step.wait > 0 {
			s.clock.Sleep(step.wait)
		}
	}
	return s.display.SetCursor(0, 1)
}
