package ports

import "github.com/ZanzyTHEbar/taskgraph/internal/domain"

// TaskSystem is the public contract shared by every scheduling strategy.
type TaskSystem interface {
	// Name identifies the strategy. Diagnostic only.
	Name() string

	// Run executes all n subtasks of r and returns once every one of them has finished.
	Run(r domain.Runnable, n int)

	// RunAsyncWithDeps launches n subtasks of r once every group in deps has
	// completed, and returns the new group's id without waiting.
	RunAsyncWithDeps(r domain.Runnable, n int, deps []domain.TaskID) domain.TaskID

	// Sync blocks until every group launched so far has completed.
	Sync()

	// Close waits for outstanding work and releases the strategy's workers.
	// The TaskSystem must not be used afterwards.
	Close()
}
