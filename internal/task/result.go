package task

import "time"

// Result is a task's outcome. A nil *Result in a GraphResults map means
// "aborted": a dependency failed and this task was never run.
type Result struct {
	Key         Key
	Status      Status
	Output      any
	Log         string
	StartedAt   time.Time
	CompletedAt time.Time
	Err         error
}

// GraphResults is the solver's final artifact: every scheduled task's
// outcome, or nil for a task aborted by an upstream failure.
type GraphResults map[Key]*Result
