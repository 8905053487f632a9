package benchmark

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunPool_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	tasks := make([]Task[int], 10)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) int {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return i * i
		}
	}

	var indices []int
	for c := range RunPool(context.Background(), 3, tasks) {
		assert.Equal(t, c.Index*c.Index, c.Value, "Value must travel with its index")
		indices = append(indices, c.Index)
	}

	sort.Ints(indices)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, indices)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunPool_CompletionOrder(t *testing.T) {
	delays := []time.Duration{40 * time.Millisecond, 80 * time.Millisecond, 0}
	tasks := make([]Task[int], len(delays))
	for i, d := range delays {
		tasks[i] = func(ctx context.Context) int {
			time.Sleep(d)
			return i
		}
	}

	var order []int
	for c := range RunPool(context.Background(), len(tasks), tasks) {
		order = append(order, c.Index)
	}
	assert.Equal(t, []int{2, 0, 1}, order)
}

func TestRunPool_CancelSkipsUnstartedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	var ran atomic.Int32
	tasks := make([]Task[bool], 5)
	for i := range tasks {
		tasks[i] = func(taskCtx context.Context) bool {
			ran.Add(1)
			if i == 0 {
				close(started)
				<-release
			}
			return taskCtx.Err() == nil
		}
	}

	out := RunPool(ctx, 1, tasks)
	<-started
	cancel()
	close(release)

	var results []Completion[bool]
	for c := range out {
		results = append(results, c)
	}

	if assert.Len(t, results, 1) {
		assert.Equal(t, 0, results[0].Index)
		assert.True(t, results[0].Value, "In-flight task must not observe the cancellation")
	}
	assert.Equal(t, int32(1), ran.Load())
}

func TestRunPool_NoTasks(t *testing.T) {
	count := 0
	for range RunPool[int](context.Background(), 4, nil) {
		count++
	}
	assert.Zero(t, count)
}
