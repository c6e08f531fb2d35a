package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering. With DropIfFull a full buffer drops
// the event and counts it; otherwise Emit waits for room until ctx is done.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards audit events to a sink from a single goroutine, so
// sinks never see concurrent calls.
type Dispatcher struct {
	sink  Sink
	queue chan Event
	wait  bool

	// mu guards closed and every send on queue.
	mu     sync.RWMutex
	closed bool

	stopped chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when auditing
// is disabled; a nil *Dispatcher is a valid no-op.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan Event, max(cfg.BufferSize, 1)),
		wait:    !cfg.DropIfFull,
		stopped: make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.stopped)
	ctx := context.Background()
	for event := range d.queue {
		d.sink.Emit(ctx, event)
	}
}

// Emit queues event. Events emitted after Close are discarded silently.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if !d.wait {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events and returns once every queued event has
// reached the sink. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.stopped
}

// Dropped reports events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
