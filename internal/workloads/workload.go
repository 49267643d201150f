// Package workloads holds the work functions the CLI drives through a task
// system. Every workload can check its own output, so the same scenario can
// be timed under each strategy and verified against a serial reference.
package workloads

import (
	"fmt"
	"slices"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ZanzyTHEbar/taskgraph/internal/ports"
)

// Workload is one repeatable scenario.
type Workload interface {
	Name() string
	// Groups is the number of task groups one Run launches.
	Groups() int
	// Reset clears outputs so the next Run starts from scratch.
	Reset()
	// Run executes the scenario and returns once all of its work is done.
	Run(ts ports.TaskSystem)
	// Verify compares the last Run's output with a serial reference.
	Verify() error
}

type factory func(size int) Workload

var registry = map[string]factory{
	"mandelbrot": func(size int) Workload { return NewMandelbrot(size) },
	"sqrt":       func(size int) Workload { return NewSqrt(size) },
	"spin":       func(size int) Workload { return NewSpin(size) },
	"chain":      func(size int) Workload { return NewChain(size, 50) },
	"fanin":      func(size int) Workload { return NewFanIn(size) },
}

// Names lists the registered workloads in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the named workload at the given problem size.
func New(name string, size int) (Workload, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown workload %q (want one of %v)", name, Names()))
	}
	if size < 1 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("workload size must be positive, got %d", size))
	}
	return f(size), nil
}
