package domain

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DispatchFunc hands the subtasks of a newly ready group to the ready queue.
type DispatchFunc func(jobs ...Job)

// RegistryHooks are optional callbacks fired outside the graph lock. Hooks may
// read a group's ID, Total and timestamps but nothing guarded by the registry.
type RegistryHooks struct {
	OnSubmit   func(g *TaskGroup)
	OnReady    func(g *TaskGroup)
	OnComplete func(g *TaskGroup)
}

// Registry owns every task group ever submitted to an engine and the
// dependency edges between them.
//
// Groups live in an arena indexed by TaskID-1 and are never removed, so a
// later submission can always name an earlier group as a dependency. All
// state transitions go through the registry while holding mu.
type Registry struct {
	mu       sync.Mutex
	groups   []*TaskGroup
	tracker  *Tracker
	dispatch DispatchFunc
	hooks    RegistryHooks
	logger   zerolog.Logger
}

// NewRegistry creates an empty registry. dispatch receives the subtasks of
// every group that becomes ready; tracker is told about every submission and
// completion.
func NewRegistry(tracker *Tracker, dispatch DispatchFunc, logger zerolog.Logger) *Registry {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Registry{
		tracker:  tracker,
		dispatch: dispatch,
		logger:   logger,
	}
}

// SetHooks installs lifecycle callbacks. It must be called before the first Submit.
func (r *Registry) SetHooks(h RegistryHooks) {
	r.mu.Lock()
	r.hooks = h
	r.mu.Unlock()
}

// Submit registers a new group of n subtasks that may only start once every
// group in deps has completed. Unknown or already complete dependencies are
// treated as satisfied. Submit never blocks on execution.
func (r *Registry) Submit(work Runnable, n int, deps []TaskID) TaskID {
	if n < 0 {
		r.logger.Warn().Int("subtasks", n).Msg("negative subtask count, treating as empty group")
		n = 0
	}

	r.mu.Lock()
	id := TaskID(len(r.groups) + 1)
	g := newTaskGroup(id, work, n)
	for _, depID := range deps {
		dep := r.lookup(depID)
		if dep == nil || dep.state == GroupComplete {
			continue
		}
		dep.dependents = append(dep.dependents, id)
		g.outstanding++
	}
	r.tracker.Add()
	r.groups = append(r.groups, g)

	var finished, ready []*TaskGroup
	if g.outstanding == 0 {
		g.mustTransition(GroupPending, GroupReady)
		if g.total == 0 {
			finished, ready = r.fanOut(g)
		} else {
			ready = []*TaskGroup{g}
		}
	}
	outstanding := g.outstanding
	hooks := r.hooks
	r.mu.Unlock()

	if hooks.OnSubmit != nil {
		hooks.OnSubmit(g)
	}
	r.logger.Debug().
		Int("group", int(id)).
		Int("subtasks", n).
		Int("outstanding", outstanding).
		Msg("task group submitted")

	r.release(hooks, finished, ready)
	return id
}

// FinishSubtask records that one subtask of g has returned. The call that
// brings the remaining count to zero completes the group.
func (r *Registry) FinishSubtask(g *TaskGroup) {
	left := g.remaining.Add(-1)
	switch {
	case left > 0:
		return
	case left < 0:
		panic("domain: task group finished more subtasks than it owns")
	}

	r.mu.Lock()
	finished, ready := r.fanOut(g)
	hooks := r.hooks
	r.mu.Unlock()

	r.release(hooks, finished, ready)
}

// fanOut completes root and walks its dependents, readying any whose last
// outstanding dependency was root. Dependents with no subtasks complete in the
// same walk. Must be called with mu held.
func (r *Registry) fanOut(root *TaskGroup) (finished, ready []*TaskGroup) {
	now := time.Now()
	queue := []*TaskGroup{root}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]

		g.mustTransition(GroupReady, GroupComplete)
		g.CompletedAt = now
		finished = append(finished, g)

		for _, depID := range g.dependents {
			d := r.lookup(depID)
			if d == nil {
				continue
			}
			d.outstanding--
			if d.outstanding > 0 {
				continue
			}
			d.mustTransition(GroupPending, GroupReady)
			if d.total == 0 {
				queue = append(queue, d)
			} else {
				ready = append(ready, d)
			}
		}
	}
	return finished, ready
}

// release performs the side effects of a fan-out once the graph lock is
// dropped: dispatching ready groups, then signalling completions.
func (r *Registry) release(hooks RegistryHooks, finished, ready []*TaskGroup) {
	for _, g := range ready {
		if hooks.OnReady != nil {
			hooks.OnReady(g)
		}
		if r.dispatch != nil {
			r.dispatch(r.jobsFor(g)...)
		}
	}
	for _, g := range finished {
		close(g.done)
		if hooks.OnComplete != nil {
			hooks.OnComplete(g)
		}
		r.logger.Debug().Int("group", int(g.ID)).Msg("task group complete")
		r.tracker.Done()
	}
}

func (r *Registry) jobsFor(g *TaskGroup) []Job {
	jobs := make([]Job, g.total)
	for i := range g.total {
		jobs[i] = subtask{registry: r, group: g, index: i}
	}
	return jobs
}

// lookup returns the group for id or nil. Must be called with mu held.
func (r *Registry) lookup(id TaskID) *TaskGroup {
	if id < 1 || int(id) > len(r.groups) {
		return nil
	}
	return r.groups[id-1]
}

// Done returns a channel that is closed once the group completes. Unknown ids
// yield an already closed channel.
func (r *Registry) Done(id TaskID) <-chan struct{} {
	r.mu.Lock()
	g := r.lookup(id)
	r.mu.Unlock()
	if g == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return g.done
}

// State reports the lifecycle state of a group. ok is false for unknown ids.
func (r *Registry) State(id TaskID) (state GroupState, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.lookup(id)
	if g == nil {
		return 0, false
	}
	return g.state, true
}

// Len returns the number of groups ever submitted.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

// Snapshot returns a consistent copy of the dependency graph.
func (r *Registry) Snapshot() []GroupSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GroupSnapshot, len(r.groups))
	for i, g := range r.groups {
		out[i] = g.snapshot()
	}
	return out
}
