package lcd

import (
	"fmt"

	termbox "github.com/nsf/termbox-go"
)

// Termbox draws the display in a framed 16x2 box on the controlling terminal.
// The Memory holds the contents; termbox only paints it.
type Termbox struct {
	*Memory
}

// NewTermbox takes over the terminal. Call Close to restore it.
func NewTermbox() (*Termbox, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise terminal: %w", err)
	}
	termbox.HideCursor()
	t := &Termbox{Memory: NewMemory()}
	return t, t.paint()
}

// Close restores the terminal.
func (t *Termbox) Close() error {
	termbox.Close()
	return nil
}

// Clear implements Display.
func (t *Termbox) Clear() error {
	if err := t.Memory.Clear(); err != nil {
		return err
	}
	return t.paint()
}

// Print implements Display.
func (t *Termbox) Print(text string) error {
	if err := t.Memory.Print(text); err != nil {
		return err
	}
	return t.paint()
}

func (t *Termbox) paint() error {
	const fg, bg = termbox.ColorWhite, termbox.ColorBlack
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return err
	}
	for x := 0; x < Columns+2; x++ {
		termbox.SetCell(x, 0, '-', fg, bg)
		termbox.SetCell(x, Rows+1, '-', fg, bg)
	}
	for y := 1; y <= Rows; y++ {
		termbox.SetCell(0, y, '|', fg, bg)
		termbox.SetCell(Columns+1, y, '|', fg, bg)
	}
	t.Memory.mu.Lock()
	cells := t.Memory.cells
	t.Memory.mu.Unlock()
	for r := range cells {
		for c, ch := range cells[r] {
			termbox.SetCell(c+1, r+1, ch, termbox.ColorGreen, bg)
		}
	}
	putString(0, Rows+3, "p: pause   o: output   q: quit", fg, bg)
	return termbox.Flush()
}

func putString(x, y int, s string, fg, bg termbox.Attribute) {
	for _, ch := range s {
		termbox.SetCell(x, y, ch, fg, bg)
		x++
	}
}
