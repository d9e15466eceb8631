package watch

import "github.com/vk/gardenflow/internal/action"

// Event is one message carried on the Bus. The loop only reacts to the
// kinds named in §4.8; a caller is free to publish others for its own
// bookkeeping.
type Event interface{}

// SourcesChanged reports that one or more actions' source roots changed,
// coalesced across the debounce window.
type SourcesChanged struct {
	Refs []action.Ref
}

// BuildRequested, DeployRequested and TestRequested ask the loop to
// schedule a task for a specific action outside of a source-change event,
// e.g. from a CLI command issued while dev mode is running.
type BuildRequested struct{ Ref action.Ref }
type DeployRequested struct{ Ref action.Ref }
type TestRequested struct{ Ref action.Ref }

// TaskRequested is the generic form of the three above, for task types the
// loop does not need a dedicated event for.
type TaskRequested struct {
	Type string
	Ref  action.Ref
}

// ConfigAdded, ConfigChanged and ConfigRemoved report that a YAML document
// under the project root itself changed, as opposed to an action's source
// files.
type ConfigAdded struct{ Path string }
type ConfigChanged struct{ Path string }
type ConfigRemoved struct{ Path string }

// Restart and Exit are the bus control messages §4.8 names
// "_restart"/"_exit".
type Restart struct{ Reason string }
type Exit struct{ Reason string }
