package tasksys

import (
	"sync"
	"sync/atomic"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/workerpool"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

// Sleeping is the dependency-aware strategy. Groups are registered in a
// dependency graph and their subtasks are queued on a sleeping worker pool
// only once every dependency has completed.
//
// Three locks are involved and never nested: the pool's queue lock, the
// registry's graph lock and the tracker's lock.
type Sleeping struct {
	executor  ports.TaskExecutor
	registry  *domain.Registry
	tracker   *domain.Tracker
	logger    zerolog.Logger
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSleeping starts a worker pool of the given size and an empty registry.
func NewSleeping(workers int, opts ...Option) (*Sleeping, error) {
	o := buildOptions(opts)

	pool, err := workerpool.NewWorkerPool(workers, o.logger)
	if err != nil {
		return nil, err
	}

	s := &Sleeping{
		executor: pool,
		tracker:  domain.NewTracker(),
		logger:   o.logger,
	}
	s.registry = domain.NewRegistry(s.tracker, s.dispatch, o.logger)
	if o.bus != nil || o.stats != nil {
		s.registry.SetHooks(lifecycleHooks(o.bus, o.stats))
	}
	return s, nil
}

func (s *Sleeping) dispatch(jobs ...domain.Job) {
	if !s.executor.Add(jobs...) {
		s.logger.Error().Int("jobs", len(jobs)).Msg("subtasks dispatched after close were dropped")
	}
}

func lifecycleHooks(bus domain.EventBus, stats *domain.StatsCollector) domain.RegistryHooks {
	publish := func(topic string, ev domain.GroupEvent) {
		if bus != nil {
			bus.Publish(domain.NewEvent(topic, ev))
		}
	}
	return domain.RegistryHooks{
		OnSubmit: func(g *domain.TaskGroup) {
			if stats != nil {
				stats.RecordSubmitted()
			}
			publish(domain.GroupSubmitted, domain.NewGroupEvent(g))
		},
		OnReady: func(g *domain.TaskGroup) {
			publish(domain.GroupReadied, domain.NewGroupEvent(g))
		},
		OnComplete: func(g *domain.TaskGroup) {
			ev := domain.NewGroupEvent(g)
			ev.CompletedAt = g.CompletedAt
			if stats != nil {
				stats.RecordCompleted(g.Total(), ev.CompletedAt.Sub(ev.SubmittedAt))
			}
			publish(domain.GroupCompleted, ev)
		},
	}
}

func (s *Sleeping) Name() string { return "Parallel + Thread Pool + Sleep" }

// Run submits a group with no dependencies and waits for that group only.
// Groups launched earlier with RunAsyncWithDeps may still be running.
func (s *Sleeping) Run(r domain.Runnable, n int) {
	id := s.submit(r, n, nil)
	<-s.registry.Done(id)
}

// RunAsyncWithDeps registers the group and returns immediately. Ids in deps
// that are unknown or already complete do not delay the group.
func (s *Sleeping) RunAsyncWithDeps(r domain.Runnable, n int, deps []domain.TaskID) domain.TaskID {
	return s.submit(r, n, deps)
}

// submit panics once Close has begun: the pool would drop the group's
// subtasks and anything waiting on it would never wake.
func (s *Sleeping) submit(r domain.Runnable, n int, deps []domain.TaskID) domain.TaskID {
	if s.closed.Load() {
		panic(errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("task system is closed"))
	}
	return s.registry.Submit(r, n, deps)
}

// Sync blocks until every group launched so far has completed.
func (s *Sleeping) Sync() {
	s.tracker.Wait()
}

// Close waits for outstanding groups, then stops the worker pool. Launching
// work after Close panics.
func (s *Sleeping) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.Sync()
		s.executor.Stop()
	})
}

// Snapshot returns the current dependency graph.
func (s *Sleeping) Snapshot() []domain.GroupSnapshot {
	return s.registry.Snapshot()
}

// State reports the lifecycle state of group id.
func (s *Sleeping) State(id domain.TaskID) (domain.GroupState, bool) {
	return s.registry.State(id)
}
