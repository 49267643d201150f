package domain

import (
	"fmt"
	"sync/atomic"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
)

// MaxWorkers is the largest worker count any engine accepts.
const MaxWorkers = 32

// TaskID identifies a task group for the lifetime of an engine.
// IDs are dense and start at 1; zero is never issued.
type TaskID int

//go:generate go tool mockgen -destination=mock_domain/mock_runnable.go -package=mock_domain . Runnable

// Runnable is the caller-supplied work function of a task group.
// RunTask is invoked exactly once for every index in [0, totalTasks).
type Runnable interface {
	RunTask(taskIndex, totalTasks int)
}

// RunnableFunc adapts a plain function to the Runnable interface.
type RunnableFunc func(taskIndex, totalTasks int)

// RunTask calls f(taskIndex, totalTasks).
func (f RunnableFunc) RunTask(taskIndex, totalTasks int) { f(taskIndex, totalTasks) }

// Job is a single entry of the ready queue. It is consumed by exactly one worker.
type Job interface {
	Run()
}

// GroupState is the lifecycle state of a task group.
type GroupState int

const (
	// GroupPending groups wait on at least one incomplete dependency.
	GroupPending GroupState = iota
	// GroupReady groups have their subtasks dispatched to the ready queue.
	GroupReady
	// GroupComplete groups have finished every subtask.
	GroupComplete
)

func (s GroupState) String() string {
	switch s {
	case GroupPending:
		return "pending"
	case GroupReady:
		return "ready"
	case GroupComplete:
		return "complete"
	default:
		return fmt.Sprintf("GroupState(%d)", int(s))
	}
}

// TaskGroup is the unit of dependency tracking: one work function fanned out
// over a fixed number of subtasks.
//
// state, outstanding and dependents are guarded by the owning Registry's lock.
// remaining is decremented by workers without the lock.
type TaskGroup struct {
	ID          TaskID
	work        Runnable
	total       int
	remaining   atomic.Int64
	outstanding int      // incomplete dependencies
	dependents  []TaskID // groups waiting on this one, in registration order
	state       GroupState
	done        chan struct{}
	SubmittedAt time.Time
	CompletedAt time.Time
}

func newTaskGroup(id TaskID, work Runnable, total int) *TaskGroup {
	g := &TaskGroup{
		ID:          id,
		work:        work,
		total:       total,
		state:       GroupPending,
		done:        make(chan struct{}),
		SubmittedAt: time.Now(),
	}
	g.remaining.Store(int64(total))
	return g
}

// Total returns the number of subtasks in the group.
func (g *TaskGroup) Total() int { return g.total }

// Remaining returns the number of subtasks that have not finished yet.
func (g *TaskGroup) Remaining() int { return int(g.remaining.Load()) }

// transition moves the group from one state to the next. Only
// Pending -> Ready and Ready -> Complete are legal.
func (g *TaskGroup) transition(from, to GroupState) error {
	if g.state != from {
		return fmt.Errorf("task group %d: expected state %s, got %s", g.ID, from, g.state)
	}
	if !(from == GroupPending && to == GroupReady) && !(from == GroupReady && to == GroupComplete) {
		return fmt.Errorf("task group %d: disallowed transition %s -> %s", g.ID, from, to)
	}
	g.state = to
	return nil
}

// mustTransition panics when a transition is rejected; a rejected transition
// means the scheduler's bookkeeping is corrupt.
func (g *TaskGroup) mustTransition(from, to GroupState) {
	if err := g.transition(from, to); err != nil {
		panic(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("task group state machine violated").
			WithCause(err))
	}
}

// subtask is the ready-queue entry for one index of a ready group.
type subtask struct {
	registry *Registry
	group    *TaskGroup
	index    int
}

// Run executes the work function for this index and reports completion.
func (s subtask) Run() {
	s.group.work.RunTask(s.index, s.group.total)
	s.registry.FinishSubtask(s.group)
}
