package domain

import (
	"sync"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
)

// Tracker counts task groups that have been submitted but not completed and
// lets callers block until that count drops to zero.
type Tracker struct {
	mu         sync.Mutex
	cond       *sync.Cond
	incomplete int
}

// NewTracker creates a Tracker with nothing outstanding.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Add records one more incomplete group.
func (t *Tracker) Add() {
	t.mu.Lock()
	t.incomplete++
	t.mu.Unlock()
}

// Done records the completion of one group and wakes waiters when nothing
// remains outstanding.
func (t *Tracker) Done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.incomplete == 0 {
		panic(errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("tracker: more completions than submissions"))
	}
	t.incomplete--
	if t.incomplete == 0 {
		t.cond.Broadcast()
	}
}

// Wait blocks until every group recorded with Add has called Done.
// It returns immediately if nothing is outstanding.
func (t *Tracker) Wait() {
	t.mu.Lock()
	for t.incomplete > 0 {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

// Incomplete returns the current number of outstanding groups.
func (t *Tracker) Incomplete() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.incomplete
}
