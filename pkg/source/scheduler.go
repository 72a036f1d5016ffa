package source

import (
	"context"
	"runtime"
)

// Scheduler is the host's cooperative-yield primitive. Yield suspends the current traversal
// until the next scheduling tick; a non-nil error stops the ingestion.
type Scheduler interface {
	Yield(ctx context.Context) error
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(ctx context.Context) error

func (f SchedulerFunc) Yield(ctx context.Context) error { return f(ctx) }

// GoschedScheduler yields the processor to other goroutines and reports cancellation.
type GoschedScheduler struct{}

func (GoschedScheduler) Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// batcher suspends before every n-th item, counting from the first.
type batcher struct {
	every int
	seen  int
	sched Scheduler
}

func newBatcher(every int, sched Scheduler) *batcher {
	if every <= 0 {
		every = 1
	}
	return &batcher{every: every, sched: sched}
}

func (b *batcher) tick(ctx context.Context) error {
	defer func() { b.seen++ }()
	if b.seen%b.every != 0 {
		return nil
	}
	if err := b.sched.Yield(ctx); err != nil {
		return err
	}
	return ctx.Err()
}
