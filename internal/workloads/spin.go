package workloads

import (
	"fmt"

	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

const spinIterations = 20_000

// Spin gives each subtask the same tight arithmetic loop. It has no memory
// traffic to speak of, so it isolates scheduling overhead.
type Spin struct {
	output []uint64
}

// NewSpin creates a workload of size subtasks.
func NewSpin(size int) *Spin {
	return &Spin{output: make([]uint64, size)}
}

func (s *Spin) Name() string { return "spin" }

func (s *Spin) Groups() int { return 1 }

func (s *Spin) Reset() { clear(s.output) }

func (s *Spin) Run(ts ports.TaskSystem) {
	ts.Run(s, len(s.output))
}

func (s *Spin) RunTask(i, _ int) {
	s.output[i] = spinValue(uint64(i))
}

// spinValue runs a xorshift generator seeded with i.
func spinValue(i uint64) uint64 {
	x := i*0x9E3779B97F4A7C15 + 1
	for range spinIterations {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
	}
	return x
}

func (s *Spin) Verify() error {
	for i, got := range s.output {
		if want := spinValue(uint64(i)); got != want {
			return fmt.Errorf("spin: subtask %d = %#x, want %#x", i, got, want)
		}
	}
	return nil
}
