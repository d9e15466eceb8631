// Package solver implements the Task Graph / Solver of §4.6: given an
// initial task list it computes the closure under each task type's
// prerequisites, deduplicates by task identity, runs the closure with a
// worker pool capped per task-type, streams lifecycle events, and produces
// a final task.GraphResults map.
package solver
