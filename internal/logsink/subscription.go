package logsink

import (
	"log"
	"sync/atomic"
)

const defaultBuffer = 256

// Strategy determines behaviour when a subscriber's channel is full.
type Strategy string

const (
	// StrategyBlock waits for the subscriber. Used by the visible console,
	// which must see every record that passed the filter.
	StrategyBlock Strategy = "block"
	// StrategyDropOldest evicts the oldest queued record. Used by remote
	// watchers so a stalled client cannot hold up a launch.
	StrategyDropOldest Strategy = "drop-oldest"
)

// SubscriptionOption customises a subscription.
type SubscriptionOption func(*Subscription)

// WithBuffer sets the channel capacity.
func WithBuffer(size int) SubscriptionOption {
	return func(s *Subscription) {
		if size <= 0 {
			size = 1
		}
		s.buffer = size
	}
}

// WithStrategy sets the backpressure strategy.
func WithStrategy(strategy Strategy) SubscriptionOption {
	return func(s *Subscription) {
		s.strategy = strategy
	}
}

// WithName labels the subscription in drop warnings.
func WithName(name string) SubscriptionOption {
	return func(s *Subscription) {
		s.name = name
	}
}

// Subscription receives records from a Sink.
type Subscription struct {
	sink     *Sink
	id       uint64
	name     string
	buffer   int
	strategy Strategy
	ch       chan Record
	done     chan struct{}
	closed   atomic.Bool
	dropped  atomic.Uint64
}

// C returns the record channel. It is closed by Close.
func (s *Subscription) C() <-chan Record {
	return s.ch
}

// Dropped returns how many records were evicted for this subscriber.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close removes the subscription and closes the channel.
func (s *Subscription) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	// Unblock any Emit parked on a full channel before taking the write lock.
	close(s.done)

	s.sink.mu.Lock()
	defer s.sink.mu.Unlock()
	delete(s.sink.subs, s.id)
	close(s.ch)
}

// deliver runs with the sink read lock held.
func (s *Subscription) deliver(rec Record, logger *log.Logger) {
	if s.closed.Load() {
		return
	}

	select {
	case s.ch <- rec:
		return
	default:
	}

	switch s.strategy {
	case StrategyDropOldest:
		select {
		case <-s.ch:
			s.recordDrop(logger)
		default:
		}
		select {
		case s.ch <- rec:
		default:
			s.recordDrop(logger)
		}
	default:
		select {
		case s.ch <- rec:
		case <-s.done:
		}
	}
}

func (s *Subscription) recordDrop(logger *log.Logger) {
	count := s.dropped.Add(1)
	if logger != nil {
		name := s.name
		if name == "" {
			name = "subscription"
		}
		logger.Printf("[LogSink] dropped record #%d for %s", count, name)
	}
}
