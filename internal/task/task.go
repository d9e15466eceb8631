package task

import "github.com/vk/gardenflow/internal/action"

// Type is one of the nine task types the solver schedules.
type Type string

const (
	BuildStatus  Type = "BuildStatus"
	Build        Type = "Build"
	DeployStatus Type = "DeployStatus"
	Deploy       Type = "Deploy"
	DeleteDeploy Type = "DeleteDeploy"
	RunResult    Type = "RunResult"
	Run          Type = "Run"
	TestResult   Type = "TestResult"
	Test         Type = "Test"
)

// Status is a Result's outcome, per the data model's Result.status domain.
type Status string

const (
	StatusReady     Status = "ready"
	StatusMissing   Status = "missing"
	StatusOutdated  Status = "outdated"
	StatusUnknown   Status = "unknown"
	StatusUnhealthy Status = "unhealthy"
	StatusStopped   Status = "stopped"
	StatusError     Status = "error"
)

// Key identifies a task instance. kind+":"+action_ref+":"+version; two tasks
// with equal keys are the same task and are deduplicated by the solver.
type Key struct {
	Type    Type
	Ref     action.Ref
	Version string
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.Ref.String() + ":" + k.Version
}

// Task is one scheduled unit of work: its identity plus the force flags
// that bypass short-circuiting, carried from the command that requested it.
type Task struct {
	Key          Key
	Force        bool
	ForceActions map[action.Ref]bool
}

// Forced reports whether t must bypass any short-circuit, either because it
// was requested with force itself or its action is named in force_actions.
func (t Task) Forced() bool {
	return t.Force || t.ForceActions[t.Key.Ref]
}
