package workerpool

import (
	"fmt"
	"runtime"
	"sync"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

// MaxWorkers is the hard upper bound on workers in a single pool.
const MaxWorkers = domain.MaxWorkers

// WorkerPool runs queued jobs on a fixed set of goroutines that sleep while
// the queue is empty.
type WorkerPool struct {
	numWorkers int
	queue      []domain.Job // FIFO ready queue
	stopping   bool         // set once by Stop; no further jobs accepted
	wg         sync.WaitGroup
	logger     zerolog.Logger

	mu   sync.Mutex // Protects queue, stopping
	cond *sync.Cond // Signalled when the queue becomes non-empty or on stop
}

// ResolveWorkers applies the pool's sizing rules: values <= 0 select
// runtime.NumCPU() capped at MaxWorkers, values above MaxWorkers are rejected.
func ResolveWorkers(requested int) (int, error) {
	if requested > MaxWorkers {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("requested %d workers, maximum allowed is %d", requested, MaxWorkers))
	}
	if requested <= 0 {
		return min(runtime.NumCPU(), MaxWorkers), nil
	}
	return requested, nil
}

// NewWorkerPool starts a pool of the given size. See ResolveWorkers for sizing.
func NewWorkerPool(workers int, logger zerolog.Logger) (*WorkerPool, error) {
	n, err := ResolveWorkers(workers)
	if err != nil {
		return nil, err
	}

	pool := &WorkerPool{
		numWorkers: n,
		logger:     logger,
	}
	pool.cond = sync.NewCond(&pool.mu)

	logger.Info().Int("workers", n).Msg("initializing worker pool")
	for i := 0; i < n; i++ {
		pool.startWorker(i)
	}
	return pool, nil
}

// startWorker launches a new worker goroutine.
func (wp *WorkerPool) startWorker(id int) {
	wp.wg.Add(1)
	go wp.worker(id)
}

// Add appends jobs to the ready queue and wakes workers: one for a single
// job, all of them otherwise.
func (wp *WorkerPool) Add(jobs ...domain.Job) bool {
	if len(jobs) == 0 {
		return true
	}

	wp.mu.Lock()
	if wp.stopping {
		wp.mu.Unlock()
		wp.logger.Warn().Int("jobs", len(jobs)).Msg("worker pool stopped, jobs not added")
		return false
	}
	wp.queue = append(wp.queue, jobs...)
	wp.mu.Unlock()

	if len(jobs) == 1 {
		wp.cond.Signal()
	} else {
		wp.cond.Broadcast()
	}
	return true
}

// worker is the execution loop for a single worker goroutine.
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		wp.mu.Lock()
		for len(wp.queue) == 0 && !wp.stopping {
			wp.cond.Wait()
		}
		if len(wp.queue) == 0 {
			// Stopping and nothing left to drain.
			wp.mu.Unlock()
			wp.logger.Debug().Int("worker", id).Msg("worker exiting")
			return
		}
		job := wp.queue[0]
		wp.queue[0] = nil // avoid holding on to finished jobs
		wp.queue = wp.queue[1:]
		wp.mu.Unlock()

		job.Run()
	}
}

// Stop signals shutdown and waits for workers to drain the queue and exit.
// Calling Stop more than once is a no-op.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopping {
		wp.mu.Unlock()
		return
	}
	wp.stopping = true
	pending := len(wp.queue)
	wp.mu.Unlock()

	wp.logger.Info().Int("workers", wp.numWorkers).Int("pending", pending).Msg("worker pool stopping")
	wp.cond.Broadcast()
	wp.wg.Wait()
	wp.logger.Info().Msg("worker pool stopped")
}

// GetCurrentWorkers returns the number of worker goroutines in the pool.
func (wp *WorkerPool) GetCurrentWorkers() int {
	return wp.numWorkers
}

// QueueLength returns the number of jobs waiting for a worker.
func (wp *WorkerPool) QueueLength() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.queue)
}
