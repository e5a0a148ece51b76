package utils

import (
	"context"
	"runtime"
	"sync"
)

// Task represents a unit of work and its outcome
type Task[T, R any] struct {
	Index  int
	Data   T
	Result R
	Err    error
}

// Worker is a function that processes a task
type Worker[T, R any] func(ctx context.Context, data T) (R, error)

// Pool runs a worker over a batch of items with bounded concurrency
type Pool[T, R any] struct {
	workers int
	worker  Worker[T, R]
	onDone  func(*Task[T, R])
}

// NewPool creates a new worker pool. A non-positive worker count uses one
// worker per CPU.
func NewPool[T, R any](workers int, worker Worker[T, R]) *Pool[T, R] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool[T, R]{
		workers: workers,
		worker:  worker,
	}
}

// OnDone registers a callback run for each finished task. Callbacks are
// serialized on the collecting goroutine.
func (p *Pool[T, R]) OnDone(fn func(*Task[T, R])) *Pool[T, R] {
	p.onDone = fn
	return p
}

// Workers returns the configured concurrency
func (p *Pool[T, R]) Workers() int {
	return p.workers
}

// Process runs the worker over items and returns one task per item, in input
// order. Items never dispatched because ctx was cancelled carry ctx's error.
func (p *Pool[T, R]) Process(ctx context.Context, items []T) ([]*Task[T, R], error) {
	tasks := make([]*Task[T, R], len(items))
	for i, item := range items {
		tasks[i] = &Task[T, R]{Index: i, Data: item}
	}
	if len(items) == 0 {
		return tasks, nil
	}

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	queue := make(chan *Task[T, R])
	done := make(chan *Task[T, R], workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				task.Result, task.Err = p.worker(ctx, task.Data)
				done <- task
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case queue <- task:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	finished := make([]bool, len(tasks))
	for task := range done {
		finished[task.Index] = true
		if p.onDone != nil {
			p.onDone(task)
		}
	}

	if err := ctx.Err(); err != nil {
		for i, task := range tasks {
			if !finished[i] {
				task.Err = err
			}
		}
		return tasks, err
	}
	return tasks, nil
}

// CollectErrors collects all non-nil task errors
func CollectErrors[T, R any](tasks []*Task[T, R]) []error {
	var result []error
	for _, task := range tasks {
		if task.Err != nil {
			result = append(result, task.Err)
		}
	}
	return result
}
