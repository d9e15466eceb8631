package watch

import (
	"context"
	"log/slog"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/solver"
	"github.com/vk/gardenflow/internal/task"
)

// ChangeHandler maps a refreshed graph and the action that changed to the
// task list the loop should schedule next — the "change handler" §4.8
// names.
type ChangeHandler func(g *configgraph.Graph, changed action.Ref) []solver.InitialTask

// Reparse re-parses the project from disk into a fresh ConfigGraph. The
// loop calls it on config_* events.
type Reparse func(ctx context.Context) (*configgraph.Graph, error)

// Loop runs the §4.8 Watch & Reconcile Loop: it owns the current
// ConfigGraph, reacts to Bus events, and drives Solve calls through run.
type Loop struct {
	Bus     *Bus
	Graph   *configgraph.Graph
	Root    *cfgcontext.Composite
	Handler ChangeHandler
	Reparse Reparse
	Run     func(ctx context.Context, tasks []solver.InitialTask)

	// RestartRequired is set once the loop exits due to a successful
	// config reparse, telling the caller to rebuild the whole session
	// rather than just re-entering Loop.Start.
	RestartRequired bool
}

// Start blocks, processing bus events, until a _exit message arrives or ctx
// is cancelled. A successful config reparse triggers a "restart": Start
// returns with RestartRequired set to true so the caller can rebuild its
// session around the new graph, per §4.8 step 2.
func (l *Loop) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	events, cancel := l.Bus.Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-events:
			switch ev := e.(type) {
			case SourcesChanged:
				l.onSourcesChanged(ctx, ev)
			case ConfigAdded:
				if l.reparseAndMaybeRestart(ctx, logger) {
					return nil
				}
			case ConfigChanged:
				if l.reparseAndMaybeRestart(ctx, logger) {
					return nil
				}
			case ConfigRemoved:
				if l.reparseAndMaybeRestart(ctx, logger) {
					return nil
				}
			case BuildRequested:
				l.schedule(ctx, []solver.InitialTask{{Type: task.Build, Ref: ev.Ref}})
			case DeployRequested:
				l.schedule(ctx, []solver.InitialTask{{Type: task.Deploy, Ref: ev.Ref}})
			case TestRequested:
				l.schedule(ctx, []solver.InitialTask{{Type: task.Test, Ref: ev.Ref}})
			case TaskRequested:
				l.schedule(ctx, []solver.InitialTask{{Type: task.Type(ev.Type), Ref: ev.Ref}})
			case Restart:
				logger.Info("watch: restart requested.", "reason", ev.Reason)
				l.RestartRequired = true
				return nil
			case Exit:
				logger.Info("watch: exit requested.", "reason", ev.Reason)
				return nil
			}
		}
	}
}

func (l *Loop) onSourcesChanged(ctx context.Context, ev SourcesChanged) {
	logger := ctxlog.FromContext(ctx)
	for _, ref := range ev.Refs {
		logger.Info("watch: sources changed, reconciling.", "action", ref.String())
		tasks := l.Handler(l.Graph, ref)
		l.schedule(ctx, tasks)
	}
}

func (l *Loop) schedule(ctx context.Context, tasks []solver.InitialTask) {
	if len(tasks) == 0 || l.Run == nil {
		return
	}
	l.Run(ctx, tasks)
}

// reparseAndMaybeRestart re-parses the project. A parse failure keeps the
// prior graph and only logs, per §4.8 step 2; a success replaces the graph
// and signals Start to return so the caller can treat it as a restart.
func (l *Loop) reparseAndMaybeRestart(ctx context.Context, logger *slog.Logger) bool {
	g, err := l.Reparse(ctx)
	if err != nil {
		logger.Error("watch: config reparse failed, keeping prior graph.", "err", err)
		return false
	}
	l.Graph = g
	l.RestartRequired = true
	logger.Info("watch: config reparsed, restarting.")
	return true
}
