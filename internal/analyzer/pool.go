package analyzer

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Task is a unit of work submitted to a Pool.
type Task func()

// Pool is a fixed-size worker pool, adapted from the project's broadcast
// worker pool for Analyze's internal fan-out: the four Hurst computations
// and the two usage computations. Unlike a best-effort broadcast queue,
// Submit here blocks rather than drops — every submitted task is one of
// Analyze's own required computations, not discardable load.
type Pool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	logger      zerolog.Logger
}

// NewPool creates a Pool with workerCount goroutines and a queue sized to
// accept workerCount tasks without blocking the first wave.
func NewPool(workerCount int, logger zerolog.Logger) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount),
		logger:      logger,
	}
}

// Start launches the worker goroutines. ctx cancellation makes the workers
// exit; tasks still in the queue are not executed.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.run(task)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic_value", r).
				Str("stack_trace", string(debug.Stack())).
				Msg("analyzer pool: task panic recovered")
		}
	}()
	task()
}

// Submit enqueues task, blocking if every worker is busy and the queue is
// full.
func (p *Pool) Submit(task Task) {
	p.taskQueue <- task
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	close(p.taskQueue)
	p.wg.Wait()
}
