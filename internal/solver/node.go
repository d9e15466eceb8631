package solver

import (
	"sync"
	"sync/atomic"

	"github.com/vk/gardenflow/internal/task"
)

// node is one task instance inside a single solve pass's prerequisite
// closure. Its identity is (task.Type, action.Ref); the content-hash
// version is attached only once its turn to run arrives, via Solver's
// shared task.Versions.
type node struct {
	prereq          task.Prereq
	forced          bool
	dependantsFirst bool
	timeoutSec      int

	deps       []*node
	dependents []*node
	depCount   atomic.Int32

	doneOnce sync.Once
	result   *task.Result
	aborted  bool
}

// skipDependents marks every node downstream of n (its dependents,
// recursively, but not n itself) aborted, exactly once per node even if
// more than one failed ancestor reaches it.
func skipDependents(n *node, record func(*node)) {
	for _, dep := range n.dependents {
		dep.doneOnce.Do(func() {
			dep.aborted = true
			record(dep)
			skipDependents(dep, record)
		})
	}
}
