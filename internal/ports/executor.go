package ports

import "github.com/ZanzyTHEbar/taskgraph/internal/domain"

// TaskExecutor defines the port for handing ready subtasks to an execution
// engine (like a worker pool).
// This decouples dependency tracking from the specific implementation of task execution.
type TaskExecutor interface {
	// Add enqueues jobs for execution and never blocks on their completion.
	// Returns false if the executor has been stopped and the jobs were dropped.
	Add(jobs ...domain.Job) bool

	// Stop drains queued jobs, then shuts the executor down and waits for its workers.
	Stop()
}
