package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueue_NeverExceedsLimit(t *testing.T) {
	const limit = 2
	const total = limit + 5

	q := NewJobQueue(limit)
	defer q.Close()

	var active, peak atomic.Int64
	for i := 0; i < total; i++ {
		require.NoError(t, q.Submit(func() error {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			active.Add(-1)
			return nil
		}))
	}

	q.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(limit))
	stats := q.Stats()
	assert.Equal(t, total, stats.Submitted)
	assert.Equal(t, total, stats.Succeeded)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Running)
}

func TestJobQueue_StartsInSubmissionOrder(t *testing.T) {
	q := NewJobQueue(1)
	defer q.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, q.Submit(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}

	q.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestJobQueue_FailuresAreIsolated(t *testing.T) {
	q := NewJobQueue(3)
	defer q.Close()

	var ran atomic.Int64
	require.NoError(t, q.Submit(func() error { ran.Add(1); return nil }))
	require.NoError(t, q.Submit(func() error { return errors.New("boom") }))
	require.NoError(t, q.Submit(func() error { panic("unexpected") }))
	require.NoError(t, q.Submit(func() error { ran.Add(1); return nil }))
	require.NoError(t, q.Submit(func() error { ran.Add(1); return nil }))

	q.Wait()

	stats := q.Stats()
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, int64(3), ran.Load())
}

func TestJobQueue_WaitBlocksUntilSubmittedTasksFinish(t *testing.T) {
	q := NewJobQueue(2)
	defer q.Close()

	release := make(chan struct{})
	require.NoError(t, q.Submit(func() error {
		<-release
		return nil
	}))

	waited := make(chan struct{})
	go func() {
		q.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before the task finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the task finished")
	}
}

func TestJobQueue_WaitWithNoTasks(t *testing.T) {
	q := NewJobQueue(1)
	defer q.Close()

	q.Wait()

	assert.Zero(t, q.Stats().Submitted)
}

func TestJobQueue_SubmitAfterClose(t *testing.T) {
	q := NewJobQueue(1)
	q.Close()

	err := q.Submit(func() error { return nil })

	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestJobQueue_CloseIsIdempotent(t *testing.T) {
	q := NewJobQueue(1)
	q.Close()
	q.Close()
}

func TestJobQueue_DefaultLimit(t *testing.T) {
	q := NewJobQueue(0)
	defer q.Close()

	assert.Equal(t, DefaultConcurrency, q.Limit())
}
