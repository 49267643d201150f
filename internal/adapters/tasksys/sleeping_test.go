package tasksys

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/taskgraph/internal/adapters/eventbus"
	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
)

func TestSleepingEmptyGroupPropagates(t *testing.T) {
	s := newSleeping(t, 4)
	c := &clock{}

	// A has no subtasks; B and C hang off it through another empty group.
	idA := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) {}), 0, nil)
	idE := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) {}), 0, []domain.TaskID{idA})
	b, cRec := newRecorder(c), newRecorder(c)
	s.RunAsyncWithDeps(b, 2, []domain.TaskID{idA})
	s.RunAsyncWithDeps(cRec, 3, []domain.TaskID{idE})

	s.Sync()
	b.requireEachOnce(t, 2)
	cRec.requireEachOnce(t, 3)
	for _, id := range []domain.TaskID{idA, idE} {
		st, ok := s.State(id)
		require.True(t, ok)
		assert.Equal(t, domain.GroupComplete, st)
	}
}

func TestSleepingEmptyGroupAfterPendingParent(t *testing.T) {
	s := newSleeping(t, 2)
	c := &clock{}
	parent, child := newRecorder(c), newRecorder(c)

	gate := make(chan struct{})
	idGate := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) { <-gate }), 1, nil)
	idP := s.RunAsyncWithDeps(parent, 4, []domain.TaskID{idGate})
	idEmpty := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) {}), 0, []domain.TaskID{idP})
	s.RunAsyncWithDeps(child, 2, []domain.TaskID{idEmpty})

	st, _ := s.State(idEmpty)
	assert.Equal(t, domain.GroupPending, st, "empty group waits for its dependency")

	close(gate)
	s.Sync()
	requireBefore(t, parent, child)
}

func TestSleepingUnknownDependenciesAreSatisfied(t *testing.T) {
	s := newSleeping(t, 2)
	rec := newRecorder(&clock{})
	s.RunAsyncWithDeps(rec, 3, []domain.TaskID{0, -4, 999})
	s.Sync()
	rec.requireEachOnce(t, 3)
}

func TestSleepingSyncWaitsForEverything(t *testing.T) {
	s := newSleeping(t, 4)
	var ran atomic.Int64
	work := domain.RunnableFunc(func(int, int) {
		time.Sleep(100 * time.Microsecond)
		ran.Add(1)
	})

	var prev []domain.TaskID
	for i := range 20 {
		id := s.RunAsyncWithDeps(work, i%5, prev)
		prev = []domain.TaskID{id}
	}
	s.Sync()

	// 4 * (0+1+2+3+4) subtasks
	assert.EqualValues(t, 40, ran.Load())
	for _, g := range s.Snapshot() {
		assert.Equal(t, domain.GroupComplete.String(), g.State, "group %d", g.ID)
		assert.Zero(t, g.Remaining)
	}

	// nothing outstanding: returns immediately
	done := make(chan struct{})
	go func() {
		s.Sync()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sync blocked with nothing outstanding")
	}
}

func TestSleepingRunMatchesSubmitThenSync(t *testing.T) {
	s := newSleeping(t, 4)

	viaRun := newRecorder(&clock{})
	s.Run(viaRun, 50)
	viaRun.requireEachOnce(t, 50)

	viaAsync := newRecorder(&clock{})
	s.RunAsyncWithDeps(viaAsync, 50, nil)
	s.Sync()
	viaAsync.requireEachOnce(t, 50)

	assert.Equal(t, viaRun.executions(), viaAsync.executions())
}

func TestSleepingRunWaitsOnlyForItsGroup(t *testing.T) {
	s := newSleeping(t, 2)
	gate := make(chan struct{})
	blocked := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) { <-gate }), 1, nil)

	rec := newRecorder(&clock{})
	s.Run(rec, 5)
	rec.requireEachOnce(t, 5)

	st, _ := s.State(blocked)
	assert.NotEqual(t, domain.GroupComplete, st)
	close(gate)
	s.Sync()
}

func TestSleepingDependentGroupScenario(t *testing.T) {
	s := newSleeping(t, 4)
	c := &clock{}
	a, b := newRecorder(c), newRecorder(c)

	idA := s.RunAsyncWithDeps(a, 3, nil)
	idB := s.RunAsyncWithDeps(b, 2, []domain.TaskID{idA})
	assert.Equal(t, domain.TaskID(1), idA)
	assert.Equal(t, domain.TaskID(2), idB)

	s.Sync()
	a.requireEachOnce(t, 3)
	b.requireEachOnce(t, 2)
	requireBefore(t, a, b)
}

func TestSleepingManyIndependentGroups(t *testing.T) {
	s := newSleeping(t, 4)
	recs := make([]*recorder, 100)
	for i := range recs {
		recs[i] = newRecorder(&clock{})
		s.RunAsyncWithDeps(recs[i], 10, nil)
	}
	s.Sync()

	total := 0
	for _, r := range recs {
		r.requireEachOnce(t, 10)
		total += r.executions()
	}
	assert.Equal(t, 1000, total)
}

func TestSleepingManySingleSubtaskGroups(t *testing.T) {
	s := newSleeping(t, 4)
	for range 20 {
		var ran atomic.Int64
		work := domain.RunnableFunc(func(int, int) { ran.Add(1) })
		for range 100 {
			s.RunAsyncWithDeps(work, 1, nil)
		}
		s.Sync()
		require.EqualValues(t, 100, ran.Load())
	}
	for _, g := range s.Snapshot() {
		assert.Equal(t, domain.GroupComplete.String(), g.State, "group %d", g.ID)
	}
}

func TestSleepingChainUnderLoad(t *testing.T) {
	s := newSleeping(t, 4)
	c := &clock{}

	chain := make([]*recorder, 4)
	var prev []domain.TaskID
	independent := make([]*recorder, 0, 50)
	for i := range chain {
		chain[i] = newRecorder(c)
		id := s.RunAsyncWithDeps(chain[i], 8, prev)
		prev = []domain.TaskID{id}
		for range 50 / len(chain) {
			r := newRecorder(c)
			independent = append(independent, r)
			s.RunAsyncWithDeps(r, 5, nil)
		}
	}
	for len(independent) < 50 {
		r := newRecorder(c)
		independent = append(independent, r)
		s.RunAsyncWithDeps(r, 5, nil)
	}
	s.Sync()

	for i, r := range chain {
		r.requireEachOnce(t, 8)
		if i > 0 {
			requireBefore(t, chain[i-1], r)
		}
	}
	for _, r := range independent {
		r.requireEachOnce(t, 5)
	}
}

func TestSleepingFanIn(t *testing.T) {
	s := newSleeping(t, 4)
	c := &clock{}
	left, right, child := newRecorder(c), newRecorder(c), newRecorder(c)

	idL := s.RunAsyncWithDeps(left, 6, nil)
	idR := s.RunAsyncWithDeps(right, 6, nil)
	s.RunAsyncWithDeps(child, 3, []domain.TaskID{idL, idR, idL})
	s.Sync()

	requireBefore(t, left, child)
	requireBefore(t, right, child)
	child.requireEachOnce(t, 3)
}

func TestSleepingPublishesLifecycleEvents(t *testing.T) {
	bus := eventbus.NewSimpleEventBus(zerolog.Nop())
	defer bus.Stop()
	submitted, err := bus.Subscribe(domain.GroupSubmitted, 16)
	require.NoError(t, err)
	readied, err := bus.Subscribe(domain.GroupReadied, 16)
	require.NoError(t, err)
	completed, err := bus.Subscribe(domain.GroupCompleted, 16)
	require.NoError(t, err)

	stats := domain.NewStatsCollector()
	s := newSleeping(t, 2, WithEventBus(bus), WithStats(stats), WithLogger(zerolog.Nop()))

	idA := s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) {}), 3, nil)
	s.RunAsyncWithDeps(domain.RunnableFunc(func(int, int) {}), 0, []domain.TaskID{idA})
	s.Sync()

	assert.Len(t, submitted, 2)
	assert.Len(t, readied, 1, "empty groups are never dispatched")
	require.Len(t, completed, 2)

	seen := map[domain.TaskID]domain.GroupEvent{}
	for range 2 {
		ev := (<-completed).Data.(domain.GroupEvent)
		seen[ev.ID] = ev
	}
	require.Contains(t, seen, idA)
	assert.Equal(t, 3, seen[idA].Subtasks)
	assert.False(t, seen[idA].CompletedAt.Before(seen[idA].SubmittedAt))

	st := stats.GetStats()
	assert.EqualValues(t, 2, st.Submitted)
	assert.EqualValues(t, 2, st.Completed)
	assert.EqualValues(t, 3, st.Subtasks)
}

func TestSleepingCloseIsTerminalAndIdempotent(t *testing.T) {
	s, err := NewSleeping(2)
	require.NoError(t, err)

	rec := newRecorder(&clock{})
	s.RunAsyncWithDeps(rec, 20, nil)
	s.Close()
	rec.requireEachOnce(t, 20)
	s.Close()
}

func TestSleepingRejectsWorkAfterClose(t *testing.T) {
	s, err := NewSleeping(2)
	require.NoError(t, err)
	s.Run(domain.RunnableFunc(func(int, int) {}), 3)
	s.Close()

	noop := domain.RunnableFunc(func(int, int) {})
	assert.Panics(t, func() { s.Run(noop, 1) })
	assert.Panics(t, func() { s.RunAsyncWithDeps(noop, 1, nil) })
	assert.Panics(t, func() { s.RunAsyncWithDeps(noop, 0, nil) })

	// nothing was registered, so Sync still returns
	done := make(chan struct{})
	go func() {
		s.Sync()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sync blocked after Close")
	}
	assert.Len(t, s.Snapshot(), 1)
}
