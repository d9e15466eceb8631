package solver

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/task"
)

// Event is one of the lifecycle events a Solve call emits, in the order
// §4.6 names them: GraphProcessing once at the start, then any mix of
// TaskComplete/TaskError/DeployStatusUpdate/BuildLogChunk as the pool
// drains the closure, and exactly one GraphComplete when it goes idle.
type Event interface{}

// GraphProcessing marks the start of a solve pass.
type GraphProcessing struct{}

// TaskComplete reports a task's successful completion.
type TaskComplete struct {
	Key    task.Key
	Result *task.Result
}

// TaskError reports a task's failure. Its descendants are aborted, not
// retried; independent branches keep running.
type TaskError struct {
	Key task.Key
	Err error
}

// GraphComplete is emitted exactly once, when the worker pool has gone
// idle and every reachable task has a terminal outcome (including aborts).
type GraphComplete struct {
	Results task.GraphResults
}

// DeployStatusUpdate is a per-action progress event a Deploy/DeployStatus
// task may emit mid-flight, independent of its own final TaskComplete.
type DeployStatusUpdate struct {
	Ref    action.Ref
	Status task.Status
}

// BuildLogChunk streams a Build task's handler output as it runs, so a CLI
// can tail a build instead of waiting for TaskComplete.
type BuildLogChunk struct {
	Ref   action.Ref
	Chunk string
}
