package shell

import "sync"

// EventSink receives the output events of every run. Emit is called from
// several goroutines at once and must be safe for concurrent use. Events of a
// single stream of a single run are emitted in order.
type EventSink interface {
	Emit(event CommandOutput)
}

// FuncSink adapts a function to EventSink. The function must be safe for
// concurrent use.
type FuncSink func(event CommandOutput)

// Emit calls f(event).
func (f FuncSink) Emit(event CommandOutput) { f(event) }

// ChannelSink delivers events on a channel. Emit never blocks: events are
// queued without bound until the consumer receives them.
type ChannelSink struct {
	out    chan CommandOutput
	notify chan struct{}
	drain  chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	queue   []CommandOutput
	closed  bool // no further events are accepted
	stopped bool // delivery has been abandoned
}

// NewChannelSink creates a ChannelSink whose channel has the given capacity.
func NewChannelSink(buffer int) *ChannelSink {
	s := &ChannelSink{
		out:    make(chan CommandOutput, max(buffer, 0)),
		notify: make(chan struct{}, 1),
		drain:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

// Events returns the receive channel. It is closed after Close, or after Drain
// once the queue is empty.
func (s *ChannelSink) Events() <-chan CommandOutput {
	return s.out
}

// Emit queues event for delivery. Events emitted after Close are dropped.
func (s *ChannelSink) Emit(event CommandOutput) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Drain stops accepting events. Events already queued are still delivered,
// then the channel is closed.
func (s *ChannelSink) Drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.drain)
}

// Close stops delivery. Undelivered events are discarded.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.closed = true
	s.stopped = true
	close(s.done)
}

func (s *ChannelSink) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		closed := s.closed
		s.mu.Unlock()

		for _, event := range batch {
			select {
			case s.out <- event:
			case <-s.done:
				return
			}
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-s.notify:
		case <-s.drain:
		case <-s.done:
			return
		}
	}
}
