// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
)

// EventSink receives events, which are not the awaited completion.
type EventSink interface {
	Push(ev xshm.Event) error
}

// SinkFunc is a function, which is used as an EventSink.
type SinkFunc func(ev xshm.Event) error

// Push calls f(ev).
func (f SinkFunc) Push(ev xshm.Event) error {
	return f(ev)
}

// EventQueue is an unbounded FIFO event sink.
// The application drains it in its own event loop.
type EventQueue struct {
	q *queue.Queue
}

// NewEventQueue returns a queue with the given initial capacity.
func NewEventQueue(hint int64) *EventQueue {
	return &EventQueue{q: queue.New(hint)}
}

// Push appends ev to the queue.
func (q *EventQueue) Push(ev xshm.Event) error {
	return errors.Wrap(q.q.Put(ev), "failed to queue an event")
}

// Next blocks until there is an event in the queue, or the queue is closed.
func (q *EventQueue) Next() (xshm.Event, error) {
	items, err := q.q.Get(1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get an event")
	}
	return items[0], nil
}

// Poll waits for an event for no longer than timeout.
func (q *EventQueue) Poll(timeout time.Duration) (xshm.Event, error) {
	items, err := q.q.Poll(1, timeout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to poll an event")
	}
	return items[0], nil
}

// TryNext returns the first event without blocking.
// It must not be called concurrently with other readers.
func (q *EventQueue) TryNext() (xshm.Event, bool) {
	if q.q.Empty() {
		return nil, false
	}
	ev, err := q.Next()
	if err != nil {
		return nil, false
	}
	return ev, true
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return int(q.q.Len())
}

// Close disposes the queue. Blocked readers return an error.
func (q *EventQueue) Close() {
	q.q.Dispose()
}

// IsTimeout returns true if err was returned by Poll on timeout.
func IsTimeout(err error) bool {
	return errors.Cause(err) == queue.ErrTimeout
}

// IsClosed returns true if err was returned by a closed queue.
func IsClosed(err error) bool {
	return errors.Cause(err) == queue.ErrDisposed
}
