package tasksys

import "github.com/ZanzyTHEbar/taskgraph/internal/domain"

// Serial runs every subtask on the calling goroutine.
type Serial struct {
	ids idSource
}

// NewSerial creates a Serial strategy.
func NewSerial() *Serial {
	return &Serial{}
}

func (s *Serial) Name() string { return "Serial" }

func (s *Serial) Run(r domain.Runnable, n int) {
	for i := 0; i < n; i++ {
		r.RunTask(i, n)
	}
}

// RunAsyncWithDeps runs the group to completion before returning. Since every
// earlier launch has already finished, deps are always satisfied.
func (s *Serial) RunAsyncWithDeps(r domain.Runnable, n int, _ []domain.TaskID) domain.TaskID {
	s.Run(r, n)
	return s.ids.next()
}

func (s *Serial) Sync() {}

func (s *Serial) Close() {}
