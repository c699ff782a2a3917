package utils

import (
	"runtime"
	"sync"
)

type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

type Task[T any] struct {
	Index int
	Value T
}

// RunInPool feeds every queued input to at most maxWorkers goroutines and closes completed
// once the queue is drained.
func RunInPool[In any, Out any](worker func(In) (Out, error), queue chan Task[In], completed chan CompletedTask[Out], maxWorkers int) {
	workers := max(min(len(queue), maxWorkers), 1)

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for next := range queue {
					res, err := worker(next.Value)
					completed <- CompletedTask[Out]{Index: next.Index, Result: res, Error: err}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()
}

// Map applies worker to every input concurrently and returns the results in input order.
// The first error by input position is returned.
func Map[In any, Out any](inputs []In, worker func(In) (Out, error), maxWorkers int) ([]Out, error) {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}

	queue := make(chan Task[In], len(inputs))
	for i, in := range inputs {
		queue <- Task[In]{Index: i, Value: in}
	}
	close(queue)

	completed := make(chan CompletedTask[Out], len(inputs))
	RunInPool(worker, queue, completed, maxWorkers)

	out := make([]Out, len(inputs))
	errs := make([]error, len(inputs))
	for task := range completed {
		out[task.Index] = task.Result
		errs[task.Index] = task.Error
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
