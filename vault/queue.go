package vault

import (
	"context"
	"sync"
)

// queue serializes every operation touching the shared index and storage
// directory: tasks run one at a time, in submission order, and the next task
// only starts after the previous one settled.
type queue struct {
	tasks  chan task
	done   chan struct{}
	closed sync.Once
}

type task struct {
	ctx context.Context
	fn  func(context.Context) error
	out chan error
}

func newQueue() *queue {
	q := &queue{
		tasks: make(chan task),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	for t := range q.tasks {
		t.out <- t.fn(t.ctx)
	}
	close(q.done)
}

// Do submits fn and waits for it to settle. Submission respects ctx, but a
// task that started is never cancelled: storage operations are assumed local
// and fast.
func (q *queue) Do(ctx context.Context, fn func(context.Context) error) error {
	out := make(chan error, 1)
	select {
	case q.tasks <- task{ctx: ctx, fn: fn, out: out}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-out
}

// Close stops the worker after the in-flight task settles.
func (q *queue) Close() {
	q.closed.Do(func() {
		close(q.tasks)
	})
	<-q.done
}
