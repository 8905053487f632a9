package benchmark

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Completion is a finished task tagged with its submission index
type Completion[T any] struct {
	Index int
	Value T
}

// Task is one independent unit of work
type Task[T any] func(ctx context.Context) T

// RunPool runs tasks with at most workers in flight and delivers results on the
// returned channel in completion order. The channel is closed after the last task.
//
// Cancelling ctx stops scheduling: tasks that have not started are skipped, while
// started tasks run to completion under a context that ignores the cancellation.
func RunPool[T any](ctx context.Context, workers int, tasks []Task[T]) <-chan Completion[T] {
	if workers < 1 {
		workers = 1
	}
	out := make(chan Completion[T])
	taskCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(workers)
		for i, task := range tasks {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				out <- Completion[T]{Index: i, Value: task(taskCtx)}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}
