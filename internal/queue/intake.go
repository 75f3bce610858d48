package queue

import (
	"context"

	"github.com/petflix/notifier/internal/domain"
)

// Intake is the in-memory buffer between the enqueue API and the durable
// events table. Route handlers must never wait on a database insert, so
// accepted events are parked here and a small writer pool performs the
// actual inserts.
//
// The buffer is deliberately bounded: if writers fall behind, Enqueue
// returns ErrQueueFull and the handler answers 503 instead of piling up
// unbounded memory. An event is only durable once a writer has persisted
// it; the buffer trades a small loss window on crash for a non-blocking
// enqueue path, mirroring the best-effort delivery contract.
type Intake struct {
	ch chan *domain.QueuedEvent
}

// DefaultCapacity absorbs a traffic burst of several seconds at peak
// enqueue rates before back-pressure kicks in.
const DefaultCapacity = 4096

func New(capacity int) *Intake {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Intake{ch: make(chan *domain.QueuedEvent, capacity)}
}

// Enqueue places an event on the buffer. It is non-blocking: if the buffer
// is full, ErrQueueFull is returned immediately rather than blocking the
// caller (the HTTP handler).
func (q *Intake) Enqueue(e *domain.QueuedEvent) error {
	select {
	case q.ch <- e:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until an event is available or ctx is cancelled.
// Returns (nil, false) when ctx is cancelled (graceful shutdown signal).
func (q *Intake) Dequeue(ctx context.Context) (*domain.QueuedEvent, bool) {
	select {
	case e := <-q.ch:
		return e, true
	case <-ctx.Done():
		return nil, false
	}
}

// Depth returns the current number of buffered events.
// Used by the stats handler and the intake-depth gauge.
func (q *Intake) Depth() int {
	return len(q.ch)
}
