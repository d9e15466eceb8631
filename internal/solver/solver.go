package solver

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cache"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/registry"
	"github.com/vk/gardenflow/internal/task"
	"github.com/vk/gardenflow/internal/template"
	"github.com/zclconf/go-cty/cty"
)

// Config wires a Solve pass to the graph, registry and cache it schedules
// against.
type Config struct {
	Graph    *configgraph.Graph
	Registry *registry.Registry
	Cache    *cache.Cache

	// DefaultConcurrency is the worker pool size; 0 means runtime.NumCPU().
	DefaultConcurrency int
	// ConcurrencyLimit overrides DefaultConcurrency per task-type.
	ConcurrencyLimit map[task.Type]int

	// ForceActions bypasses short-circuiting for any task on one of these
	// action refs, regardless of its own force flag.
	ForceActions map[action.Ref]bool

	// RuntimeContext is forwarded into every plugin.Request verbatim.
	RuntimeContext any
}

// Solve runs initial and everything it transitively requires to
// completion, emitting lifecycle events to emit as it goes (emit may be
// nil). It returns once the pool has drained. A cancelled ctx aborts every
// task still pending or ready; tasks already running are left to finish,
// but their outcome is discarded in favor of an aborted result. The
// returned error is non-nil only when some task failed with a
// command-fatal errs.Kind (see fail); Solve still returns the partial
// GraphResults alongside it, same as a task-scoped failure.
func Solve(ctx context.Context, cfg Config, initial []InitialTask, emit func(Event)) (task.GraphResults, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	emit(GraphProcessing{})

	_, all := buildClosure(cfg.Graph, initial, cfg.ForceActions)

	s := &solverRun{
		cfg:      cfg,
		emit:     emit,
		all:      all,
		results:  make(map[task.Prereq]*task.Result, len(all)),
		resultsM: &sync.Mutex{},
	}
	s.versions = task.NewVersions(cfg.Graph, s.liveContext())

	numWorkers := cfg.DefaultConcurrency
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	s.semaphores = make(map[task.Type]chan struct{})
	for t, limit := range cfg.ConcurrencyLimit {
		if limit > 0 {
			s.semaphores[t] = make(chan struct{}, limit)
		}
	}

	s.ready = make(chan *node, len(all))
	s.wg.Add(len(all))

	for _, n := range all {
		if n.depCount.Load() == 0 {
			s.ready <- n
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	for i := 0; i < numWorkers; i++ {
		go s.worker(runCtx)
	}

	s.wg.Wait()
	close(s.ready)

	out := make(task.GraphResults, len(all))
	for p, n := range all {
		key := task.Key{Type: p.Type, Ref: p.Ref}
		if v, err := s.versions.Of(p.Ref); err == nil {
			key.Version = v
		}
		if n.aborted || n.result == nil {
			out[key] = nil
			continue
		}
		out[key] = n.result
	}
	emit(GraphComplete{Results: out})

	s.fatalM.Lock()
	fatalErr := s.fatalErr
	s.fatalM.Unlock()
	return out, fatalErr
}

type solverRun struct {
	cfg  Config
	emit func(Event)

	all map[task.Prereq]*node

	resultsM *sync.Mutex
	results  map[task.Prereq]*task.Result

	versions   *task.Versions
	semaphores map[task.Type]chan struct{}

	ready chan *node
	wg    sync.WaitGroup

	// cancel stops every worker's runCtx; fail calls it the moment a
	// command-fatal error (errs.Kind.Fatal) surfaces, so the rest of the
	// pass aborts instead of just the failing task's descendants.
	cancel context.CancelFunc

	fatalM   sync.Mutex
	fatalErr error
}

// liveContext builds the Config Context Hierarchy's ActionOutputs layer
// backed by already-completed task results, per §4.2. Resolving a path
// under actions.<kind>.<name>.outputs never has to trigger evaluation of
// the producing task here, because the solver only asks for a ref's
// version or resolved spec once everything it could depend on has already
// run, by construction of the prerequisite closure.
func (s *solverRun) liveContext() *cfgcontext.Composite {
	return cfgcontext.Root(nil, nil, nil, s.produce, nil)
}

func (s *solverRun) produce(ref action.Ref) (cty.Value, error) {
	pt := primaryType(ref.Kind)
	s.resultsM.Lock()
	res, ok := s.results[task.Prereq{Type: pt, Ref: ref}]
	s.resultsM.Unlock()
	if !ok || res == nil {
		return cty.DynamicVal, nil
	}
	return template.ToCty(res.Output)
}

func primaryType(k action.Kind) task.Type {
	switch k {
	case action.Build:
		return task.Build
	case action.Deploy:
		return task.Deploy
	case action.Run:
		return task.Run
	case action.Test:
		return task.Test
	default:
		return ""
	}
}

func (s *solverRun) worker(ctx context.Context) {
	for n := range s.ready {
		s.runNode(ctx, n)
	}
}

func (s *solverRun) runNode(ctx context.Context, n *node) {
	if ctx.Err() != nil {
		n.doneOnce.Do(func() {
			n.aborted = true
			s.wg.Done()
			skipDependents(n, func(*node) { s.wg.Done() })
		})
		return
	}

	if sem, ok := s.semaphores[n.prereq.Type]; ok {
		sem <- struct{}{}
		defer func() { <-sem }()
	}

	key, err := s.versions.Key(n.prereq.Type, n.prereq.Ref)
	if err != nil {
		s.fail(n, err)
		return
	}

	resolved, err := s.cfg.Graph.Resolve(n.prereq.Ref, s.liveContext())
	if err != nil {
		s.fail(n, err)
		return
	}

	deps := make(map[task.Prereq]*task.Result, len(n.deps))
	for _, d := range n.deps {
		s.resultsM.Lock()
		deps[d.prereq] = s.results[d.prereq]
		s.resultsM.Unlock()
	}

	runCtx := ctx
	if n.timeoutSec > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(n.timeoutSec)*time.Second)
		defer cancelTimeout()
	}

	res, err := task.Execute(runCtx, n.prereq.Type, task.ExecRequest{
		Key:            key,
		Resolved:       resolved,
		Deps:           deps,
		Registry:       s.cfg.Registry,
		Cache:          s.cfg.Cache,
		Log:            ctxlog.FromContext(ctx).With("task", n.prereq.Type, "action", n.prereq.Ref),
		RuntimeContext: s.cfg.RuntimeContext,
		Graph:          s.cfg.Graph,
		Forced:         n.forced,
	})
	if ctx.Err() != nil {
		// Cancelled while running: the handler finished, but §4.6 discards
		// its result and surfaces the task as aborted rather than errored.
		n.doneOnce.Do(func() {
			n.aborted = true
			s.wg.Done()
			skipDependents(n, func(*node) { s.wg.Done() })
		})
		return
	}
	if err == nil && runCtx.Err() != nil {
		err = errs.New(errs.TimeoutError, "task %s exceeded its timeout", key)
	}
	if err != nil {
		s.fail(n, err)
		return
	}
	if res.Status == task.StatusError {
		s.fail(n, res.Err)
		return
	}

	s.resultsM.Lock()
	s.results[n.prereq] = res
	s.resultsM.Unlock()
	n.result = res
	s.emit(TaskComplete{Key: key, Result: res})

	for _, dep := range n.dependents {
		if dep.depCount.Add(-1) == 0 {
			s.ready <- dep
		}
	}
	s.wg.Done()
}

// fail marks n itself as a genuine error result (it appears in
// GraphResults with status=error, not as an abort) and transitively
// aborts everything downstream of it. If err's Kind is command-fatal
// (errs.Kind.Fatal), it also cancels every other node still ready or
// pending, per §4.6/§7: a ConfigurationError or InternalError aborts the
// whole pass, not just the branch that raised it.
func (s *solverRun) fail(n *node, err error) {
	n.doneOnce.Do(func() {
		n.result = &task.Result{Key: task.Key{Type: n.prereq.Type, Ref: n.prereq.Ref}, Status: task.StatusError, Err: err}
		s.resultsM.Lock()
		s.results[n.prereq] = n.result
		s.resultsM.Unlock()
		s.emit(TaskError{Key: n.result.Key, Err: err})

		if kind, ok := errs.KindOf(err); ok && kind.Fatal() {
			s.fatalM.Lock()
			if s.fatalErr == nil {
				s.fatalErr = err
			}
			s.fatalM.Unlock()
			if s.cancel != nil {
				s.cancel()
			}
		}

		s.wg.Done()
		skipDependents(n, func(*node) { s.wg.Done() })
	})
}
