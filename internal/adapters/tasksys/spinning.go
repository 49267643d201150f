package tasksys

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/workerpool"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

// Spinning keeps a fixed set of workers that poll a shared index counter and
// never block. Idle workers and the waiting caller burn CPU, yielding with
// runtime.Gosched between polls.
type Spinning struct {
	workers int
	logger  zerolog.Logger

	mu    sync.Mutex // Protects work, next, total
	work  domain.Runnable
	next  int // next index to hand out
	total int

	completed atomic.Int64
	stop      atomic.Bool
	wg        sync.WaitGroup
	runMu     sync.Mutex // one Run at a time
	closeOnce sync.Once
	ids       idSource
}

// NewSpinning starts workers spinning goroutines.
func NewSpinning(workers int, logger zerolog.Logger) (*Spinning, error) {
	n, err := workerpool.ResolveWorkers(workers)
	if err != nil {
		return nil, err
	}
	s := &Spinning{workers: n, logger: logger}
	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.spin()
	}
	logger.Debug().Int("workers", n).Msg("spinning pool started")
	return s, nil
}

func (s *Spinning) spin() {
	defer s.wg.Done()
	for !s.stop.Load() {
		s.mu.Lock()
		if s.next >= s.total {
			s.mu.Unlock()
			runtime.Gosched()
			continue
		}
		i, work, total := s.next, s.work, s.total
		s.next++
		s.mu.Unlock()

		work.RunTask(i, total)
		s.completed.Add(1)
	}
}

func (s *Spinning) Name() string { return "Parallel + Thread Pool + Spin" }

// Run publishes [0, n) to the workers and spins until all n have finished.
func (s *Spinning) Run(r domain.Runnable, n int) {
	if n <= 0 {
		return
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.completed.Store(0)
	s.mu.Lock()
	s.work, s.next, s.total = r, 0, n
	s.mu.Unlock()

	for s.completed.Load() < int64(n) {
		runtime.Gosched()
	}

	s.mu.Lock()
	s.work, s.next, s.total = nil, 0, 0
	s.mu.Unlock()
}

// RunAsyncWithDeps runs the group to completion before returning.
func (s *Spinning) RunAsyncWithDeps(r domain.Runnable, n int, _ []domain.TaskID) domain.TaskID {
	s.Run(r, n)
	return s.ids.next()
}

func (s *Spinning) Sync() {}

// Close stops and joins the spinning workers.
func (s *Spinning) Close() {
	s.closeOnce.Do(func() {
		s.stop.Store(true)
		s.wg.Wait()
		s.logger.Debug().Msg("spinning pool stopped")
	})
}
