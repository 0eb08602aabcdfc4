// Package queue runs tasks under a fixed concurrency ceiling. Each submitted
// task returns a Future. Tasks start in submission order as slots free up;
// completion order is not tied to submission order.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("queue closed")

// Queue bounds how many tasks run at once. A single dispatcher hands out
// slots, so a task never starts before one submitted earlier.
type Queue struct {
	sem         *semaphore.Weighted
	concurrency int
	inFlight    atomic.Int64
	wg          sync.WaitGroup

	mu      sync.Mutex
	cond    *sync.Cond
	pending []job
	closed  bool
}

type job struct {
	ctx  context.Context
	run  func()
	fail func(error)
}

// New returns a Queue that runs at most concurrency tasks at a time.
func New(concurrency int) (*Queue, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be > 0, got %d", concurrency)
	}
	q := &Queue{
		sem:         semaphore.NewWeighted(int64(concurrency)),
		concurrency: concurrency,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.dispatch()
	return q, nil
}

// Concurrency returns the ceiling.
func (q *Queue) Concurrency() int {
	return q.concurrency
}

// InFlight returns the number of tasks currently running.
func (q *Queue) InFlight() int64 {
	return q.inFlight.Load()
}

// Close stops accepting tasks and waits for submitted ones to finish. Safe to
// call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) enqueue(j job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.wg.Add(1)
	q.pending = append(q.pending, j)
	q.cond.Signal()
	return nil
}

// next blocks for the oldest pending job. It reports false once the queue is
// closed and drained.
func (q *Queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 {
		if q.closed {
			return job{}, false
		}
		q.cond.Wait()
	}
	j := q.pending[0]
	q.pending[0] = job{}
	q.pending = q.pending[1:]
	return j, true
}

// dispatch starts jobs one at a time in submission order. A job whose context
// ends while it waits for a slot fails without running; a job behind it waits
// for its turn before its own context is checked.
func (q *Queue) dispatch() {
	for {
		j, ok := q.next()
		if !ok {
			return
		}
		if err := q.sem.Acquire(j.ctx, 1); err != nil {
			j.fail(fmt.Errorf("acquire slot: %w", err))
			q.wg.Done()
			continue
		}
		q.inFlight.Add(1)
		go func() {
			defer q.wg.Done()
			defer func() {
				q.inFlight.Add(-1)
				q.sem.Release(1)
			}()
			j.run()
		}()
	}
}

// Future holds the eventual result of a submitted task.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// Done is closed once the task has finished.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx ends.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, fmt.Errorf("wait canceled: %w", ctx.Err())
	}
}

func (f *Future[R]) resolve(v R, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Submit schedules task on q. The task starts once every earlier task has
// started and a slot is free; if ctx ends first the future resolves with the
// context error and task never runs.
func Submit[R any](ctx context.Context, q *Queue, task func(context.Context) (R, error)) *Future[R] {
	f := &Future[R]{done: make(chan struct{})}
	var zero R
	err := q.enqueue(job{
		ctx: ctx,
		run: func() {
			v, err := task(ctx)
			f.resolve(v, err)
		},
		fail: func(err error) {
			f.resolve(zero, err)
		},
	})
	if err != nil {
		f.resolve(zero, err)
	}
	return f
}
