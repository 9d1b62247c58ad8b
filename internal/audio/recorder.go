package audio

import (
	"fmt"
	"sync"
)

// Event is one call recorded by a RecordingLine.
type Event struct {
	Line string
	Hz   int // 0 for NoTone
}

func (e Event) String() string {
	if e.Hz == 0 {
		return e.Line + ":off"
	}
	return fmt.Sprintf("%s:%d", e.Line, e.Hz)
}

// Journal collects events from several RecordingLines in call order.
type Journal struct {
	mu     sync.Mutex
	events []Event
}

// Events returns a copy of everything recorded so far.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Event(nil), j.events...)
}

// Reset forgets the recorded events.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = nil
}

func (j *Journal) add(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

// RecordingLine is a Line for tests that writes every call to a Journal.
type RecordingLine struct {
	Name    string
	Journal *Journal
	Err     error
}

// NewRecordingLine returns a line named name writing to j.
func NewRecordingLine(name string, j *Journal) *RecordingLine {
	return &RecordingLine{Name: name, Journal: j}
}

func (r *RecordingLine) Tone(hz int) error {
	r.Journal.add(Event{Line: r.Name, Hz: hz})
	return r.Err
}

func (r *RecordingLine) NoTone() error {
	r.Journal.add(Event{Line: r.Name})
	return r.Err
}
