package audio

// Sample levels for unsigned 8-bit PCM. The swing is kept well short of full
// scale so the headphone output is not painfully loud.
const (
	sampleHigh = 0x80 + 0x30
	sampleLow  = 0x80 - 0x30
)

// squareWave generates unsigned 8-bit mono samples of a square wave.
type squareWave struct {
	hz         int
	sampleRate int
	n          int // samples generated so far
}

// Read fills p with the next samples. It never returns an error.
func (s *squareWave) Read(p []byte) (int, error) {
	for i := range p {
		// position within the period, scaled to avoid float drift
		phase := (s.n * s.hz * 2 / s.sampleRate) % 2
		if phase == 0 {
			p[i] = sampleHigh
		} else {
			p[i] = sampleLow
		}
		s.n++
		if s.n == s.sampleRate {
			s.n = 0
		}
	}
	return len(p), nil
}
