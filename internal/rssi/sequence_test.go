package rssi

import "testing"

func TestTestSequence(t *testing.T) {
	if len(TestSequence) != 15 {
		t.Fatalf("len(TestSequence) = %d, want 15", len(TestSequence))
	}
	for i, r := range TestSequence {
		if want := -40 - 5*i; r != want {
			t.Errorf("TestSequence[%d] = %d, want %d", i, r, want)
		}
	}
}

func TestSamplerWraps(t *testing.T) {
	s, err := NewSampler(TestSequence)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}

	// 16 iterations: indices 0..14, then back to 0.
	for i := 0; i < 16; i++ {
		want := i % 15
		if s.Position() != want {
			t.Fatalf("iteration %d: Position() = %d, want %d", i, s.Position(), want)
		}
		if s.Current() != TestSequence[want] {
			t.Fatalf("iteration %d: Current() = %d, want %d", i, s.Current(), TestSequence[want])
		}
		s.Advance()
	}
}

func TestSamplerCopiesSequence(t *testing.T) {
	seq := Sequence{-40, -50}
	s, err := NewSampler(seq)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	seq[0] = 0
	if s.Current() != -40 {
		t.Errorf("Current() = %d after caller mutated its slice, want -40", s.Current())
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestNewSamplerEmpty(t *testing.T) {
	if _, err := NewSampler(nil); err == nil {
		t.Error("NewSampler(nil) returned no error")
	}
}
