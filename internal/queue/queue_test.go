package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPushPopOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	q := New[int](4)
	for i := 0; i < 4; i++ {
		assert.NoError(q.Push(ctx, i))
	}

	for i := 0; i < 4; i++ {
		v, ok := q.Pop(ctx)
		assert.True(ok)
		assert.Equal(i, v)
	}
}

func TestBackpressure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	q := New[int](1)
	assert.NoError(q.Push(ctx, 1))

	pushed := make(chan struct{})
	go func() {
		q.Push(ctx, 2)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push should have blocked on a full queue")
	case <-time.After(50 * time.Millisecond):
	}

	v, ok := q.Pop(ctx)
	assert.True(ok)
	assert.Equal(1, v)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push should have unblocked after a pop freed capacity")
	}
}

func TestShutdownLiveness(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	q := New[int](4)
	assert.NoError(q.Push(ctx, 1))

	v, ok := q.Pop(ctx)
	assert.True(ok)
	assert.Equal(1, v)

	q.Close()

	_, ok = q.Pop(ctx)
	assert.False(ok, "pop on a closed, drained queue must return ShutdownNoMoreWork")
}

func TestClosePushReturnsErrClosed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	q := New[int](4)
	q.Close()

	err := q.Push(ctx, 1)
	assert.ErrorIs(err, ErrClosed)
}

func TestCloseIdempotent(t *testing.T) {
	q := New[int](1)
	q.Close()
	q.Close() // must not panic or deadlock
}

func TestAtMostOncePop(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	const n = 500
	q := New[int](16)

	go func() {
		for i := 0; i < n; i++ {
			q.Push(ctx, i)
		}
		q.Close()
	}()

	var mu sync.Mutex
	seen := make(map[int]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Pop(ctx)
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(seen, n)
	for v, count := range seen {
		assert.Equal(1, count, "value %d popped %d times", v, count)
	}
}

func TestPushBlocksUntilCancelled(t *testing.T) {
	assert := assert.New(t)

	q := New[int](1)
	assert.NoError(q.Push(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Push(ctx, 2)
	assert.ErrorIs(err, context.DeadlineExceeded)
}
