package concurrent

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Task processes the element at index i.
type Task func(i int) error

// Map runs task for every index in [0, n) on a pool of the given number of workers.
// workers <= 0 uses one worker per cpu.
// The first error returned by a task, or a panic, stops the submission of further indexes and is returned,
// after all running tasks have completed. The context is checked before each task starts;
// tasks that already started are never interrupted.
func Map(ctx context.Context, n, workers int, task Task) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return fmt.Errorf("could not create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		once    sync.Once
		failed  int32
		first   error
		setFail = func(err error) {
			once.Do(func() {
				first = err
				atomic.StoreInt32(&failed, 1)
			})
		}
	)

	for i := 0; i < n; i++ {
		if atomic.LoadInt32(&failed) == 1 {
			break
		}
		if err := ctx.Err(); err != nil {
			setFail(err)
			break
		}
		i := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					setFail(fmt.Errorf("task %d panicked: %v", i, r))
				}
			}()
			if atomic.LoadInt32(&failed) == 1 {
				return
			}
			if err := ctx.Err(); err != nil {
				setFail(err)
				return
			}
			if err := task(i); err != nil {
				setFail(err)
			}
		})
		if err != nil {
			wg.Done()
			setFail(fmt.Errorf("could not submit task %d: %w", i, err))
			break
		}
	}
	wg.Wait()
	return first
}
