package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/glowbox/internal/logger"
)

// ErrQueueClosed is returned by Submit after Close.
var ErrQueueClosed = errors.New("job queue closed")

// DefaultConcurrency is used when a non-positive limit is given.
const DefaultConcurrency = 4

// Task is one unit of work. A returned error or a panic counts as a failure.
type Task func() error

// QueueStats is a snapshot of queue outcomes.
type QueueStats struct {
	Submitted int
	Running   int
	Succeeded int
	Failed    int
}

type queuedTask struct {
	run  Task
	done chan struct{}
}

// JobQueue runs submitted tasks with at most limit executing at once.
// Tasks start in submission order and never affect each other's outcome.
type JobQueue struct {
	limit int
	sem   *semaphore.Weighted

	mu      sync.Mutex
	pending []*queuedTask
	tracked []chan struct{}
	closed  bool
	wake    chan struct{}
	stopped chan struct{}

	submitted atomic.Int64
	running   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// NewJobQueue creates a queue and starts its dispatcher.
func NewJobQueue(limit int) *JobQueue {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	q := &JobQueue{
		limit:   limit,
		sem:     semaphore.NewWeighted(int64(limit)),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.dispatch()
	return q
}

// Limit returns the concurrency bound.
func (q *JobQueue) Limit() int {
	return q.limit
}

// Submit enqueues task without blocking.
func (q *JobQueue) Submit(task Task) error {
	t := &queuedTask{run: task, done: make(chan struct{})}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, t)
	q.tracked = append(q.tracked, t.done)
	q.mu.Unlock()

	q.submitted.Add(1)
	q.signal()
	return nil
}

// Wait blocks until every task submitted before the call has finished.
// Tasks submitted concurrently with Wait may or may not be awaited.
func (q *JobQueue) Wait() {
	q.mu.Lock()
	snapshot := make([]chan struct{}, len(q.tracked))
	copy(snapshot, q.tracked)
	q.mu.Unlock()

	for _, done := range snapshot {
		<-done
	}
}

// Close stops accepting tasks. Already-submitted tasks still run.
func (q *JobQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.signal()
	<-q.stopped
}

// Stats returns a snapshot of queue counters.
func (q *JobQueue) Stats() QueueStats {
	return QueueStats{
		Submitted: int(q.submitted.Load()),
		Running:   int(q.running.Load()),
		Succeeded: int(q.succeeded.Load()),
		Failed:    int(q.failed.Load()),
	}
}

func (q *JobQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// dispatch hands pending tasks to workers in FIFO order.
func (q *JobQueue) dispatch() {
	defer close(q.stopped)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		// Acquire only fails on context cancellation.
		_ = q.sem.Acquire(context.Background(), 1)
		go q.execute(t)
	}
}

func (q *JobQueue) execute(t *queuedTask) {
	q.running.Add(1)

	err := runIsolated(t.run)

	q.running.Add(-1)
	if err != nil {
		q.failed.Add(1)
	} else {
		q.succeeded.Add(1)
	}
	q.sem.Release(1)
	close(t.done)
}

// runIsolated converts a panic in task into an error.
func runIsolated(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job queue: task panicked: %v", r)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}
