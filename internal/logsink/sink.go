// Package logsink is the shared, filtered destination for human-visible
// launcher output. The session emulator and the process launcher emit
// records into a Sink; consoles (terminal, websocket) subscribe to it.
package logsink

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Tags used by launcher components.
const (
	TagInfo     = "info"
	TagSys      = "sys"
	TagWarn     = "warn"
	TagError    = "error"
	TagEmulator = "emulator"
	TagClient   = "client"
	TagServer   = "server"
)

// denylist holds substrings of known third-party telemetry noise. Matching
// is case-sensitive and unanchored.
var denylist = []string{
	"Telemetry request failed",
	"at HytaleClient!",
	"System.Net.Http",
}

// Record is one line of visible output.
type Record struct {
	Tag  string    `json:"tag"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Sink fans filtered records out to subscribers.
type Sink struct {
	logger *log.Logger
	now    func() time.Time

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

// Option customises a Sink.
type Option func(*Sink)

// WithLogger overrides the logger used for drop warnings.
func WithLogger(logger *log.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty sink.
func New(opts ...Option) *Sink {
	s := &Sink{
		logger: log.Default(),
		now:    time.Now,
		subs:   make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Filtered reports whether text is telemetry noise that must never reach a
// console.
func Filtered(text string) bool {
	for _, needle := range denylist {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// Emit appends a record unless its text is denylisted. Records from one
// goroutine reach every subscriber in emit order.
func (s *Sink) Emit(text, tag string) {
	if s == nil || Filtered(text) {
		return
	}

	rec := Record{Tag: tag, Text: text, Time: s.now()}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subs {
		sub.deliver(rec, s.logger)
	}
}

// Subscribe registers a new subscriber.
func (s *Sink) Subscribe(opts ...SubscriptionOption) *Subscription {
	sub := &Subscription{
		sink:     s,
		buffer:   defaultBuffer,
		strategy: StrategyBlock,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.ch = make(chan Record, sub.buffer)

	s.mu.Lock()
	s.nextID++
	sub.id = s.nextID
	s.subs[sub.id] = sub
	s.mu.Unlock()

	return sub
}

// Subscribers returns the number of live subscriptions.
func (s *Sink) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
