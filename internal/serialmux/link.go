// Package serialmux provides the outbound serial link to the companion device.
// One writer streams framed readings to the port; any number of subscribers
// can tail the frames that made it onto the wire.
package serialmux

import (
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/groundstation/internal/monitoring"
)

var (
	ErrWriteFailed = errors.New("failed to write to serial port")
	// ErrNotReady is returned when the port could not accept a full frame and
	// the pending message was dropped.
	ErrNotReady = errors.New("serial port not ready, message dropped")
)

// Framing defaults.
const (
	DefaultLabel          = "RSSI value is:  "
	DefaultLineTerminator = "\r\n"
)

// Sender is the part of a Link the station loop needs.
type Sender interface {
	// Send frames the reading and streams it to the port, or drops it if the
	// port is not ready.
	Send(reading int) error
}

// LinkInterface defines the interface for the Link type.
type LinkInterface interface {
	Sender
	// Subscribe creates a new channel receiving every frame written to the
	// port, without line endings. The ID is used to unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Stats returns the frame counters.
	Stats() Stats
	// Close closes all subscribed channels and closes the serial port.
	Close() error
}

// Stats counts frames by outcome.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

// Option configures a Link.
type Option func(*linkConfig)

type linkConfig struct {
	label      string
	terminator string
}

// WithLabel replaces the text written ahead of each reading.
func WithLabel(label string) Option {
	return func(c *linkConfig) { c.label = label }
}

// WithLineTerminator replaces the port's own line ending written after the
// explicit newline byte.
func WithLineTerminator(term string) Option {
	return func(c *linkConfig) { c.terminator = term }
}

// Link streams framed readings to a serial port.
//
// A frame on the wire is label, decimal reading, '\n', then the line
// terminator, so the default framing ends every message with "\n\r\n". The
// companion firmware splits on '\n' and ignores the blank line; the doubled
// ending is kept so existing receivers see the same bytes.
type Link[T SerialPorter] struct {
	port       T
	label      string
	terminator string

	// message and sendPos are the outgoing buffer and its send cursor.
	message []byte
	sendPos int
	writeMu sync.Mutex

	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	closing      bool

	sent, dropped, failed atomic.Uint64
}

// NewLink creates a Link writing to port.
func NewLink[T SerialPorter](port T, opts ...Option) *Link[T] {
	cfg := linkConfig{label: DefaultLabel, terminator: DefaultLineTerminator}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Link[T]{
		port:        port,
		label:       cfg.label,
		terminator:  cfg.terminator,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe implements LinkInterface.
func (l *Link[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 8)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if l.closing {
		close(ch)
		return id, ch
	}
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// Send loads the reading into the outgoing buffer and drains it.
func (l *Link[T]) Send(reading int) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.message = append(l.message[:0], l.label...)
	l.message = strconv.AppendInt(l.message, int64(reading), 10)
	l.sendPos = 0
	return l.drain()
}

// drain streams the pending message one byte at a time. It only starts when
// the port reports full transmit capacity; otherwise the message is
// discarded. Either way the buffer is empty afterwards.
func (l *Link[T]) drain() error {
	defer l.reset()

	if !txReady(l.port) {
		l.dropped.Add(1)
		monitoring.Debugf("serial: dropped %q, port not ready", l.message)
		return ErrNotReady
	}

	for l.sendPos < len(l.message) {
		if err := l.write(l.message[l.sendPos : l.sendPos+1]); err != nil {
			l.failed.Add(1)
			return err
		}
		l.sendPos++
	}
	if err := l.write([]byte{'\n'}); err != nil {
		l.failed.Add(1)
		return err
	}
	if l.terminator != "" {
		if err := l.write([]byte(l.terminator)); err != nil {
			l.failed.Add(1)
			return err
		}
	}

	l.sent.Add(1)
	l.publish(string(l.message))
	return nil
}

func (l *Link[T]) write(p []byte) error {
	n, err := l.port.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return ErrWriteFailed
	}
	return nil
}

func (l *Link[T]) reset() {
	l.message = l.message[:0]
	l.sendPos = 0
}

// publish fans a frame out to subscribers without blocking the writer.
func (l *Link[T]) publish(frame string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for _, ch := range l.subscribers {
		select {
		case ch <- frame:
		default:
			// slow subscriber; skip rather than stall the station loop
		}
	}
}

// Stats implements LinkInterface.
func (l *Link[T]) Stats() Stats {
	return Stats{
		Sent:    l.sent.Load(),
		Dropped: l.dropped.Load(),
		Failed:  l.failed.Load(),
	}
}

// Close implements LinkInterface.
func (l *Link[T]) Close() error {
	l.subscriberMu.Lock()
	l.closing = true
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	l.subscriberMu.Unlock()
	return l.port.Close()
}
