// Package lcd models the 16x2 character display the station renders to and
// the screens drawn on it.
package lcd

import (
	"fmt"
	"strings"
	"sync"
)

// Geometry of the character display.
const (
	Columns = 16
	Rows    = 2
)

// Display is the command set the station uses on a character display.
type Display interface {
	// Clear blanks every cell and homes the cursor.
	Clear() error
	// SetCursor moves the write position to (col, row).
	SetCursor(col, row int) error
	// Print writes text starting at the cursor and advances it.
	Print(text string) error
}

// Snapshotter is implemented by displays that can report what they show.
type Snapshotter interface {
	Lines() [Rows]string
}

// Memory is an in-memory 16x2 display. Characters written past the last
// column are dropped, as on the physical module.
type Memory struct {
	mu       sync.Mutex
	cells    [Rows][Columns]rune
	col, row int
}

// NewMemory returns a cleared display.
func NewMemory() *Memory {
	m := &Memory{}
	m.clear()
	return m
}

func (m *Memory) clear() {
	for r := range m.cells {
		for c := range m.cells[r] {
			m.cells[r][c] = ' '
		}
	}
	m.col, m.row = 0, 0
}

// Clear implements Display.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
	return nil
}

// SetCursor implements Display.
func (m *Memory) SetCursor(col, row int) error {
	if col < 0 || col >= Columns || row < 0 || row >= Rows {
		return fmt.Errorf("cursor (%d,%d) outside %dx%d display", col, row, Columns, Rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.col, m.row = col, row
	return nil
}

// Print implements Display.
func (m *Memory) Print(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range text {
		if m.col < Columns {
			m.cells[m.row][m.col] = ch
		}
		m.col++
	}
	return nil
}

// Lines returns both rows with trailing blanks trimmed.
func (m *Memory) Lines() [Rows]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [Rows]string
	for r := range m.cells {
		out[r] = strings.TrimRight(string(m.cells[r][:]), " ")
	}
	return out
}

// Cursor returns the current write position.
func (m *Memory) Cursor() (col, row int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.col, m.row
}
