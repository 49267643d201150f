package workloads

import (
	"fmt"

	"github.com/ZanzyTHEbar/taskgraph/internal/domain"
	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

const chainStages = 4

// stage is one task group whose subtask i derives out[i] from in[i].
type stage struct {
	in, out []int64
	apply   func(i int, prev int64) int64
}

func (s *stage) RunTask(i, _ int) {
	var prev int64
	if s.in != nil {
		prev = s.in[i]
	}
	s.out[i] = s.apply(i, prev)
}

// Chain launches a chain of dependent stages A -> B -> C -> D, each reading
// the previous stage's output, and interleaves independent groups between
// them. A stage that starts before its predecessor finishes reads zeros and
// fails verification.
type Chain struct {
	size        int
	stages      []*stage
	independent []*stage
}

// NewChain creates a chain whose groups have size subtasks each, plus
// independent unrelated groups.
func NewChain(size, independent int) *Chain {
	c := &Chain{size: size}
	var prev []int64
	for k := range chainStages {
		st := &stage{
			in:  prev,
			out: make([]int64, size),
			apply: func(i int, p int64) int64 {
				if k == 0 {
					return int64(i)
				}
				return p*3 + int64(k)
			},
		}
		c.stages = append(c.stages, st)
		prev = st.out
	}
	for j := range independent {
		c.independent = append(c.independent, &stage{
			out:   make([]int64, size),
			apply: func(i int, _ int64) int64 { return int64(i + j) },
		})
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Groups() int { return len(c.stages) + len(c.independent) }

func (c *Chain) Reset() {
	for _, st := range c.stages {
		clear(st.out)
	}
	for _, st := range c.independent {
		clear(st.out)
	}
}

func (c *Chain) Run(ts ports.TaskSystem) {
	perStage := len(c.independent) / len(c.stages)
	next := 0
	var deps []domain.TaskID
	for k, st := range c.stages {
		id := ts.RunAsyncWithDeps(st, c.size, deps)
		deps = []domain.TaskID{id}

		n := perStage
		if k == len(c.stages)-1 {
			n = len(c.independent) - next
		}
		for range n {
			ts.RunAsyncWithDeps(c.independent[next], c.size, nil)
			next++
		}
	}
	ts.Sync()
}

func (c *Chain) Verify() error {
	for i := range c.size {
		want := int64(i)
		for k, st := range c.stages {
			if k > 0 {
				want = want*3 + int64(k)
			}
			if st.out[i] != want {
				return fmt.Errorf("chain: stage %d subtask %d = %d, want %d", k, i, st.out[i], want)
			}
		}
	}
	for j, st := range c.independent {
		for i, got := range st.out {
			if got != int64(i+j) {
				return fmt.Errorf("chain: independent group %d subtask %d = %d, want %d", j, i, got, i+j)
			}
		}
	}
	return nil
}

// FanIn launches two independent parents and a child that depends on both
// and sums their outputs.
type FanIn struct {
	size                int
	left, right, joined []int64
}

// NewFanIn creates a fan-in whose groups have size subtasks each.
func NewFanIn(size int) *FanIn {
	return &FanIn{
		size:   size,
		left:   make([]int64, size),
		right:  make([]int64, size),
		joined: make([]int64, size),
	}
}

func (f *FanIn) Name() string { return "fanin" }

func (f *FanIn) Groups() int { return 3 }

func (f *FanIn) Reset() {
	clear(f.left)
	clear(f.right)
	clear(f.joined)
}

func (f *FanIn) Run(ts ports.TaskSystem) {
	l := ts.RunAsyncWithDeps(domain.RunnableFunc(func(i, _ int) {
		f.left[i] = int64(i) * int64(i)
	}), f.size, nil)
	r := ts.RunAsyncWithDeps(domain.RunnableFunc(func(i, _ int) {
		f.right[i] = 2*int64(i) + 1
	}), f.size, nil)
	ts.RunAsyncWithDeps(domain.RunnableFunc(func(i, _ int) {
		f.joined[i] = f.left[i] + f.right[i]
	}), f.size, []domain.TaskID{l, r})
	ts.Sync()
}

func (f *FanIn) Verify() error {
	for i, got := range f.joined {
		// i^2 + 2i + 1
		if want := int64(i+1) * int64(i+1); got != want {
			return fmt.Errorf("fanin: subtask %d = %d, want %d", i, got, want)
		}
	}
	return nil
}
