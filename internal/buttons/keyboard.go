package buttons

import (
	"context"
	"fmt"

	"github.com/eiannone/keyboard"
)

// KeyboardSource reads single key presses from the terminal.
type KeyboardSource struct{}

// Watch implements Source.
func (KeyboardSource) Watch(ctx context.Context, h Handlers) error {
	keys, err := keyboard.GetKeys(8)
	if err != nil {
		return fmt.Errorf("failed to open keyboard: %w", err)
	}
	defer keyboard.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-keys:
			if !ok {
				return nil
			}
			if ev.Err != nil {
				return fmt.Errorf("keyboard read failed: %w", ev.Err)
			}
			h.fire(keyAction(ev.Rune, ev.Key))
		}
	}
}

func keyAction(r rune, key keyboard.Key) Action {
	switch key {
	case keyboard.KeyCtrlC, keyboard.KeyEsc:
		return Quit
	case keyboard.KeySpace:
		return Pause
	}
	return ActionForRune(r)
}
