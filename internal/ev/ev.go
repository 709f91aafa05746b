// Package ev provides the queue through which a connection's
// goroutines hand work to whichever goroutine dispatches it.
package ev

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// Queue collects functions from any goroutine and hands them out in
// batches, in the order that they were added.
type Queue = cq.BulkQueue[func() error, *Events]

func NewQueue() *Queue {
	return cq.New(func(v []func() error) *Events {
		return &Events{
			events: v,
		}
	})
}

// Events represents a series of events from a Client's event queue.
type Events struct {
	events []func() error
}

// Len returns the number of events that have not yet been run.
func (q *Events) Len() int {
	return len(q.events)
}

// Flush processess all of the events represented by q.
func (q *Events) Flush() error {
	return errors.Join(Flush(q)...)
}

// Flush runs every event in queue, collecting any errors that they
// return. An event that is run is removed from the queue, even if it
// fails.
func Flush(queue *Events) (errs []error) {
	for len(queue.events) > 0 {
		ev := queue.events[0]
		queue.events = queue.events[1:]

		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	queue.events = nil
	return errs
}
