package tasksys

import (
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/workerpool"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

// Spawn starts fresh goroutines on every Run, one per contiguous partition of
// the index range, and joins them before returning.
type Spawn struct {
	workers int
	ids     idSource
	logger  zerolog.Logger
}

// NewSpawn creates a Spawn strategy that splits work across up to workers goroutines.
func NewSpawn(workers int, logger zerolog.Logger) (*Spawn, error) {
	n, err := workerpool.ResolveWorkers(workers)
	if err != nil {
		return nil, err
	}
	logger.Debug().Int("workers", n).Msg("spawn strategy ready")
	return &Spawn{workers: n, logger: logger}, nil
}

func (s *Spawn) Name() string { return "Parallel + Always Spawn" }

// Run partitions [0, n) into chunks of ceil(n/workers) indices. A panic in
// the work function is re-raised on the caller once every partition returns.
func (s *Spawn) Run(r domain.Runnable, n int) {
	if n <= 0 {
		return
	}
	chunk := (n + s.workers - 1) / s.workers

	wg := conc.NewWaitGroup()
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Go(func() {
			for i := start; i < end; i++ {
				r.RunTask(i, n)
			}
		})
	}
	wg.Wait()
}

// RunAsyncWithDeps runs the group to completion before returning.
func (s *Spawn) RunAsyncWithDeps(r domain.Runnable, n int, _ []domain.TaskID) domain.TaskID {
	s.Run(r, n)
	return s.ids.next()
}

func (s *Spawn) Sync() {}

func (s *Spawn) Close() {}
