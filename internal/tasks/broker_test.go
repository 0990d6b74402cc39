package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAsyncUnknownTask(t *testing.T) {
	b := NewBroker(Eager())
	err := b.ApplyAsync(context.Background(), "missing", nil)
	assert.EqualError(t, err, "unknown task missing")
}

func TestRouteUnknownQueue(t *testing.T) {
	b := NewBroker()
	assert.Error(t, b.Route("task", "nope"))

	b.DeclareQueue("parsing", 2)
	require.NoError(t, b.Route("task", "parsing"))
	assert.Equal(t, "parsing", b.QueueFor("task"))
	assert.Equal(t, DefaultQueue, b.QueueFor("other"))
}

func TestEagerRunsInline(t *testing.T) {
	b := NewBroker(Eager())
	var got uint64
	b.Register(&Task{Name: "echo", Handler: func(ctx context.Context, kwargs Kwargs) error {
		id, err := kwargs.Uint64("id")
		got = id
		return err
	}})

	require.NoError(t, b.ApplyAsync(context.Background(), "echo", Kwargs{"id": 7}, WithCountdown(time.Hour)))
	assert.Equal(t, uint64(7), got)
}

func TestEagerRetries(t *testing.T) {
	b := NewBroker(Eager())
	calls := 0
	b.Register(&Task{Name: "flaky", MaxRetries: 3, Handler: func(ctx context.Context, kwargs Kwargs) error {
		calls++
		if calls < 3 {
			return Retry(errors.New("locked"))
		}
		return nil
	}})

	require.NoError(t, b.ApplyAsync(context.Background(), "flaky", nil))
	assert.Equal(t, 3, calls)
}

func TestEagerRetriesExhausted(t *testing.T) {
	b := NewBroker(Eager())
	calls := 0
	b.Register(&Task{Name: "broken", MaxRetries: 2, Handler: func(ctx context.Context, kwargs Kwargs) error {
		calls++
		return Retry(errors.New("locked"))
	}})

	err := b.ApplyAsync(context.Background(), "broken", nil)
	assert.EqualError(t, err, "locked")
	assert.Equal(t, 3, calls)
}

func TestPanicBecomesError(t *testing.T) {
	b := NewBroker(Eager())
	b.Register(&Task{Name: "boom", Handler: func(ctx context.Context, kwargs Kwargs) error {
		panic("kaboom")
	}})

	err := b.ApplyAsync(context.Background(), "boom", nil)
	assert.EqualError(t, err, "task boom panicked: kaboom")
}

func TestWorkersRunInETAOrder(t *testing.T) {
	b := NewBroker()
	b.DeclareQueue("ordered", 1)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{}, 2)
	b.Register(&Task{Name: "record", Handler: func(ctx context.Context, kwargs Kwargs) error {
		mu.Lock()
		order = append(order, kwargs["name"].(string))
		mu.Unlock()
		done <- struct{}{}
		return nil
	}})
	require.NoError(t, b.Route("record", "ordered"))
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	now := time.Now()
	require.NoError(t, b.ApplyAsync(context.Background(), "record", Kwargs{"name": "late"}, WithETA(now.Add(150*time.Millisecond))))
	require.NoError(t, b.ApplyAsync(context.Background(), "record", Kwargs{"name": "early"}, WithETA(now.Add(50*time.Millisecond))))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"early", "late"}, order)
}

func TestWorkerRetriesAfterDelay(t *testing.T) {
	b := NewBroker()
	var calls int32
	done := make(chan struct{})
	b.Register(&Task{Name: "retry", MaxRetries: 2, RetryDelay: 20 * time.Millisecond, Handler: func(ctx context.Context, kwargs Kwargs) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return Retry(errors.New("busy"))
		}
		close(done)
		return nil
	}})
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	require.NoError(t, b.ApplyAsync(context.Background(), "retry", nil))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStopDropsDelayedTasks(t *testing.T) {
	b := NewBroker()
	b.Register(&Task{Name: "later", Handler: func(ctx context.Context, kwargs Kwargs) error { return nil }})
	require.NoError(t, b.Start(context.Background()))
	assert.Error(t, b.Start(context.Background()))

	require.NoError(t, b.ApplyAsync(context.Background(), "later", nil, WithCountdown(time.Hour)))
	assert.Equal(t, 1, b.Stop())
	assert.Equal(t, 0, b.Stop())
}

func TestScheduledListsByETA(t *testing.T) {
	b := NewBroker()
	b.DeclareQueue("parsing", 1)
	b.Register(&Task{Name: "parse", Handler: func(ctx context.Context, kwargs Kwargs) error { return nil }})
	require.NoError(t, b.Route("parse", "parsing"))

	now := time.Now()
	require.NoError(t, b.ApplyAsync(context.Background(), "parse", Kwargs{"id": 2}, WithETA(now.Add(2*time.Hour))))
	require.NoError(t, b.ApplyAsync(context.Background(), "parse", Kwargs{"id": 1}, WithETA(now.Add(time.Hour))))

	scheduled := b.Scheduled("parsing")
	require.Len(t, scheduled, 2)
	assert.Equal(t, "parse", scheduled[0].Name)
	assert.Equal(t, Kwargs{"id": 1}, scheduled[0].Kwargs)
	assert.True(t, scheduled[0].ETA.Equal(now.Add(time.Hour)))
	assert.Empty(t, b.Scheduled(DefaultQueue))
	assert.Nil(t, b.Scheduled("missing"))
}

func TestStopDrainsRunningTask(t *testing.T) {
	b := NewBroker()
	started := make(chan struct{})
	var finished int32
	var cancelled int32
	b.Register(&Task{Name: "slow", Handler: func(ctx context.Context, kwargs Kwargs) error {
		close(started)
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&cancelled, 1)
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
		atomic.StoreInt32(&finished, 1)
		return nil
	}})
	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.ApplyAsync(context.Background(), "slow", nil))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not start")
	}
	assert.Equal(t, 0, b.Stop())
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelled))
}

func TestKwargsUint64(t *testing.T) {
	k := Kwargs{"a": uint64(1), "b": 2, "c": float64(3), "d": "x", "e": -1}

	for key, want := range map[string]uint64{"a": 1, "b": 2, "c": 3} {
		got, err := k.Uint64(key)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, key := range []string{"d", "e", "missing"} {
		_, err := k.Uint64(key)
		assert.Error(t, err, key)
	}
}
