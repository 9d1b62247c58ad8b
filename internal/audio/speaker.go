package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/oto"
)

// DefaultSampleRate is used when the config leaves it unset.
const DefaultSampleRate = 44100

// minChunk is the smallest write handed to the player.
const minChunk = 64

// chunkSize is about 10ms of samples at rate.
func chunkSize(rate int) int {
	if n := rate / 100; n > minChunk {
		return n
	}
	return minChunk
}

// SpeakerLine plays tones on the host sound card, standing in for the
// headphone jack. Samples are streamed from a goroutine between Tone and
// NoTone.
type SpeakerLine struct {
	sampleRate int
	newPlayer  func() io.WriteCloser
	closeCtx   func() error

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// OpenSpeakerLine opens the default audio device. Only one may exist per
// process.
func OpenSpeakerLine(sampleRate int) (*SpeakerLine, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	// mono, 8-bit, ~50ms of buffering
	ctx, err := oto.NewContext(sampleRate, 1, 1, sampleRate/20)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return &SpeakerLine{
		sampleRate: sampleRate,
		newPlayer:  func() io.WriteCloser { return ctx.NewPlayer() },
		closeCtx:   ctx.Close,
	}, nil
}

// Tone implements Line. A tone already playing is replaced.
func (s *SpeakerLine) Tone(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("invalid tone frequency %d Hz", hz)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done
	go s.play(s.newPlayer(), &squareWave{hz: hz, sampleRate: s.sampleRate}, stop, done)
	return nil
}

// NoTone implements Line.
func (s *SpeakerLine) NoTone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *SpeakerLine) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil
}

// play writes chunks of the wave until stopped. Player writes block once the
// device buffer is full, which paces the loop.
func (s *SpeakerLine) play(p io.WriteCloser, wave io.Reader, stop, done chan struct{}) {
	defer close(done)
	defer p.Close()

	buf := make([]byte, chunkSize(s.sampleRate))
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, _ := wave.Read(buf)
		if _, err := p.Write(buf[:n]); err != nil {
			return
		}
	}
}

// Close stops any tone and releases the audio device.
func (s *SpeakerLine) Close() error {
	if err := s.NoTone(); err != nil {
		return err
	}
	if s.closeCtx != nil {
		return s.closeCtx()
	}
	return nil
}
