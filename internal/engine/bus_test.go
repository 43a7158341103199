package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipecraft/internal/ir"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for i := 1; i <= 3; i++ {
		require.True(t, q.Enqueue(Event{Seq: int64(i)}))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		ev, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, int64(i), ev.Seq)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestEventQueue_CloseRejectsAndWakes(t *testing.T) {
	q := newEventQueue()
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(Event{}))

	select {
	case _, open := <-q.Wait():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("wait channel not closed")
	}
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Enqueue(Event{})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, q.Len())
}

func TestSubscribe_ReceivesEngineEvents(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	sub := e.Subscribe()
	defer sub.Close()

	ent, err := e.CreateEntity(ctx, NewSession(), ir.Entity{Name: "Orders"})
	require.NoError(t, err)

	var kinds []EventKind
	var last int64
	for sub.Len() > 0 {
		ev, ok := sub.TryNext()
		require.True(t, ok)
		assert.Greater(t, ev.Seq, last)
		last = ev.Seq
		kinds = append(kinds, ev.Kind)
		assert.Equal(t, ent.ID, ev.EntityID)
		if ev.Kind == EventLogAppended {
			require.NotNil(t, ev.Log)
			assert.Equal(t, "Entity 'Orders' created successfully", ev.Log.Message)
		}
	}

	assert.Equal(t, []EventKind{EventEntityCreated, EventLogAppended, EventVersionCreated}, kinds)
}

func TestSubscribe_NextHonorsContextAndClose(t *testing.T) {
	e := newTestEngine(t)
	sub := e.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = e.AddLog(context.Background(), "hello", ir.LevelInfo, "")
	require.NoError(t, err)
	sub.Close()

	ev, err := sub.Next(context.Background())
	require.NoError(t, err, "buffered events survive Close")
	assert.Equal(t, EventLogAppended, ev.Kind)

	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)

	_, err = e.AddLog(context.Background(), "after close", ir.LevelInfo, "")
	require.NoError(t, err)
	assert.Zero(t, sub.Len())
}

func TestSubscribe_NextWakesOnPublish(t *testing.T) {
	e := newTestEngine(t)
	sub := e.Subscribe()
	defer sub.Close()

	done := make(chan Event, 1)
	go func() {
		ev, err := sub.Next(context.Background())
		if err == nil {
			done <- ev
		}
	}()

	_, err := e.AddLog(context.Background(), "ping", ir.LevelInfo, "")
	require.NoError(t, err)

	select {
	case ev := <-done:
		assert.Equal(t, "ping", ev.Log.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return")
	}
}
