package engine

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriptionClosed is returned by Next after Close once the buffered
// events are drained.
var ErrSubscriptionClosed = errors.New("subscription closed")

// bus fans events out to subscriptions.
type bus struct {
	mu    sync.Mutex
	clock *Clock
	subs  map[*Subscription]struct{}
}

func newBus() *bus {
	return &bus{
		clock: NewClock(),
		subs:  make(map[*Subscription]struct{}),
	}
}

// publish stamps ev and enqueues it on every subscription. Stamping and
// delivery happen under one lock so every subscriber sees the same order.
func (b *bus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev.Seq = b.clock.Next()
	for s := range b.subs {
		s.q.Enqueue(ev)
	}
}

func (b *bus) subscribe() *Subscription {
	s := &Subscription{q: newEventQueue(), b: b}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	return s
}

func (b *bus) remove(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Subscription receives engine events published after it was created.
//
// Thread-safety: safe for one consumer goroutine while the engine publishes
// from another.
type Subscription struct {
	q *eventQueue
	b *bus
}

// Wait returns a channel that signals when events may be available.
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-sub.Wait():
//	    // drain with TryNext
//	}
func (s *Subscription) Wait() <-chan struct{} {
	return s.q.Wait()
}

// TryNext returns the next buffered event without blocking.
func (s *Subscription) TryNext() (Event, bool) {
	return s.q.TryDequeue()
}

// Next blocks until an event is available, ctx is done, or the
// subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		if ev, ok := s.q.TryDequeue(); ok {
			return ev, nil
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case _, open := <-s.q.Wait():
			if !open {
				if ev, ok := s.q.TryDequeue(); ok {
					return ev, nil
				}
				return Event{}, ErrSubscriptionClosed
			}
		}
	}
}

// Len returns the number of buffered events.
func (s *Subscription) Len() int {
	return s.q.Len()
}

// Close detaches the subscription from the engine. Buffered events remain
// readable.
func (s *Subscription) Close() {
	s.b.remove(s)
	s.q.Close()
}
