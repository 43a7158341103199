package engine

import (
	"sync"

	"github.com/roach88/pipecraft/internal/ir"
)

// EventKind names what changed.
type EventKind string

const (
	EventEntityCreated  EventKind = "entity.created"
	EventEntityUpdated  EventKind = "entity.updated"
	EventEntityDeleted  EventKind = "entity.deleted"
	EventFolderCreated  EventKind = "folder.created"
	EventFolderDeleted  EventKind = "folder.deleted"
	EventVersionCreated EventKind = "version.created"
	EventBranchCreated  EventKind = "branch.created"
	EventBranchSwitched EventKind = "branch.switched"
	EventLogAppended    EventKind = "log.appended"
)

// Event is a change notification.
//
// ID is the id of the record that changed. EntityID is set when the change
// concerns an entity (its versions and log lines included). Log is set only
// for EventLogAppended.
type Event struct {
	Seq      int64
	Kind     EventKind
	ID       string
	EntityID string
	Log      *ir.LogEntry
}

// eventQueue is a thread-safe unbounded FIFO queue for events.
//
// Unbounded so the engine never blocks on a slow subscriber. The signal
// channel enables context-aware waiting.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
// Returns (Event{}, false) if the queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Release the Log pointer held by the backing array
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued and wakes waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
