package rssi

import "fmt"

// TestSequence is the fixed table of simulated readings, strongest first.
var TestSequence = Sequence{-40, -45, -50, -55, -60, -65, -70, -75, -80, -85, -90, -95, -100, -105, -110}

// Sequence is an ordered, read-only list of readings in dB.
type Sequence []int

// Sampler walks a Sequence with a cyclic cursor.
type Sampler struct {
	seq Sequence
	pos int
}

// NewSampler returns a Sampler positioned at the first reading of seq.
func NewSampler(seq Sequence) (*Sampler, error) {
	if len(seq) == 0 {
		return nil, fmt.Errorf("sample sequence is empty")
	}
	cp := make(Sequence, len(seq))
	copy(cp, seq)
	return &Sampler{seq: cp}, nil
}

// Current returns the reading under the cursor.
func (s *Sampler) Current() int {
	return s.seq[s.pos]
}

// Position returns the cursor index.
func (s *Sampler) Position() int {
	return s.pos
}

// Len returns the number of readings in the sequence.
func (s *Sampler) Len() int {
	return len(s.seq)
}

// Advance moves the cursor forward one reading, wrapping from the last index
// back to zero.
func (s *Sampler) Advance() {
	s.pos++
	if s.pos >= len(s.seq) {
		s.pos = 0
	}
}
