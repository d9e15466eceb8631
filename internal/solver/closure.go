package solver

import (
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/task"
)

// InitialTask names one task the caller wants run; the solver expands it
// (and every task it transitively requires) into the full closure.
type InitialTask struct {
	Type            task.Type
	Ref             action.Ref
	Force           bool
	DependantsFirst bool
	TimeoutSec      int
	// SkipDependencies only affects a Test seed: see task.Prerequisites.
	SkipDependencies bool
}

// closure walks task.Prerequisites starting from seeds, deduplicating by
// (Type, Ref) — the "before enqueueing, a task is looked up by key; if
// present and not terminal, the new edge is attached to the existing
// task" rule of §4.6, applied at graph-construction time rather than at
// each enqueue, since the whole closure is known statically up front.
// forceActions is the command's force_actions set: any task whose action
// ref appears there is forced regardless of how it entered the closure.
func buildClosure(g *configgraph.Graph, seeds []InitialTask, forceActions map[action.Ref]bool) (roots []*node, all map[task.Prereq]*node) {
	all = make(map[task.Prereq]*node)

	var visit func(seed InitialTask) *node
	visit = func(seed InitialTask) *node {
		forced := seed.Force || forceActions[seed.Ref]
		p := task.Prereq{Type: seed.Type, Ref: seed.Ref}
		if existing, ok := all[p]; ok {
			existing.forced = existing.forced || forced
			return existing
		}

		n := &node{
			prereq:          p,
			forced:          forced,
			dependantsFirst: seed.DependantsFirst,
			timeoutSec:      seed.TimeoutSec,
		}
		all[p] = n

		for _, pre := range task.Prerequisites(seed.Type, g, seed.Ref, seed.DependantsFirst, seed.SkipDependencies) {
			dep := visit(InitialTask{
				Type:            pre.Type,
				Ref:             pre.Ref,
				Force:           seed.Force,
				DependantsFirst: seed.DependantsFirst,
			})
			n.deps = append(n.deps, dep)
			dep.dependents = append(dep.dependents, n)
		}
		n.depCount.Store(int32(len(n.deps)))
		return n
	}

	for _, seed := range seeds {
		roots = append(roots, visit(seed))
	}
	return roots, all
}
