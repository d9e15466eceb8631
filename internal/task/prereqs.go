package task

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/configgraph"
)

// Prereq names a prerequisite task by its type and action ref, before a
// version has been attached.
type Prereq struct {
	Type Type
	Ref  action.Ref
}

// classify splits ref's direct dependencies by kind. The ConfigGraph
// invariant (Run/Test/Deploy may depend on Build, Deploy or Run; Build may
// only depend on Build) means kind alone tells a dependency's role: a
// Build-kind dependency is "the build", a Deploy-kind dependency is a
// runtime dependency, a Run-kind dependency is a task dependency.
func classify(deps []action.Ref) (builds, deploys, runs []action.Ref) {
	for _, d := range deps {
		switch d.Kind {
		case action.Build:
			builds = append(builds, d)
		case action.Deploy:
			deploys = append(deploys, d)
		case action.Run:
			runs = append(runs, d)
		}
	}
	return
}

// Prerequisites returns the (unversioned) prerequisite tasks for t per
// §4.5's table. "If outdated" / "unless force or dev-mode-mismatch"
// conditions are not modeled as conditional prerequisites — the
// prerequisite itself (BuildStatus, DeployStatus, ...) is always scheduled,
// and its own short-circuit rule (see Execute) absorbs the condition, so
// the prerequisite graph stays static and dependency-closure computation
// never has to re-plan mid-run.
//
// skipDependencies only affects Test: instead of scheduling its build/deploy
// dependencies' own Build/Deploy tasks, it schedules just their status
// checks, so a test run against an already-running deploy never triggers a
// rebuild or redeploy it didn't ask for.
func Prerequisites(t Type, g *configgraph.Graph, ref action.Ref, dependantsFirst bool, skipDependencies bool) []Prereq {
	deps := g.GetDependencies(ref, false)
	builds, deploys, runs := classify(deps)

	var out []Prereq
	switch t {
	case BuildStatus:
		for _, b := range builds {
			out = append(out, Prereq{BuildStatus, b})
		}

	case Build:
		out = append(out, Prereq{BuildStatus, ref})
		for _, b := range builds {
			out = append(out, Prereq{Build, b})
		}

	case DeployStatus:
		for _, b := range builds {
			out = append(out, Prereq{BuildStatus, b})
		}
		for _, d := range deploys {
			out = append(out, Prereq{DeployStatus, d})
		}
		for _, r := range runs {
			out = append(out, Prereq{RunResult, r})
		}

	case Deploy:
		for _, b := range builds {
			out = append(out, Prereq{Build, b})
		}
		for _, d := range deploys {
			out = append(out, Prereq{Deploy, d})
		}
		for _, r := range runs {
			out = append(out, Prereq{Run, r})
		}
		out = append(out, Prereq{DeployStatus, ref})

	case DeleteDeploy:
		if dependantsFirst {
			for _, d := range g.GetDependants(ref, false) {
				if d.Kind == action.Deploy {
					out = append(out, Prereq{DeleteDeploy, d})
				}
			}
		}

	case RunResult, TestResult:
		// cache lookup only; no prerequisites.

	case Run:
		for _, b := range builds {
			out = append(out, Prereq{Build, b})
		}
		for _, d := range deploys {
			out = append(out, Prereq{Deploy, d})
		}
		for _, r := range runs {
			out = append(out, Prereq{Run, r})
		}
		out = append(out, Prereq{RunResult, ref})

	case Test:
		if skipDependencies {
			for _, b := range builds {
				out = append(out, Prereq{BuildStatus, b})
			}
			for _, d := range deploys {
				out = append(out, Prereq{DeployStatus, d})
			}
		} else {
			for _, b := range builds {
				out = append(out, Prereq{Build, b})
			}
			for _, d := range deploys {
				out = append(out, Prereq{Deploy, d})
			}
		}
		for _, r := range runs {
			out = append(out, Prereq{Run, r})
		}
		out = append(out, Prereq{TestResult, ref})
	}
	return out
}
