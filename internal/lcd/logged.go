package lcd

import (
	"github.com/banshee-data/groundstation/internal/monitoring"
)

// Logged mirrors a Memory display to the diagnostic log after every Print.
// It is the display used in dev mode and on headless hosts.
type Logged struct {
	*Memory
}

// NewLogged returns a logging display backed by a fresh Memory.
func NewLogged() *Logged {
	return &Logged{Memory: NewMemory()}
}

// Print implements Display.
func (l *Logged) Print(text string) error {
	if err := l.Memory.Print(text); err != nil {
		return err
	}
	lines := l.Lines()
	monitoring.Logf("lcd: [%-16s] [%-16s]", lines[0], lines[1])
	return nil
}
