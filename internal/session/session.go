// Package session defines the Garden session object: the fields the
// original kept as process-wide mutable state (a global event emitter, a
// cached handler-description map) are instead instance fields here,
// constructed at command start and destroyed at exit, so tests can run
// several independent sessions side by side (§9 "Global mutable state").
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cache"
	"github.com/vk/gardenflow/internal/cfgcontext"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/ctxlog"
	"github.com/vk/gardenflow/internal/registry"
	"github.com/vk/gardenflow/internal/solver"
	"github.com/vk/gardenflow/internal/task"
	"github.com/vk/gardenflow/internal/watch"
	"github.com/vk/gardenflow/internal/yamlconfig"
	"github.com/zclconf/go-cty/cty"
)

// Config holds everything a Session needs to load a project and stand up
// its graph.
type Config struct {
	ConfigPaths        []string
	Environment        string
	StateDir            string
	DefaultConcurrency  int
	ConcurrencyLimit    map[task.Type]int
	ForceActions        map[action.Ref]bool
	ProjectVars         map[string]cty.Value
	EnvironmentVars     map[string]cty.Value
}

// Session is one project load plus everything scheduling against it needs:
// the plugin Registry, the resolved ConfigGraph, the process-local Result
// Cache, and the event Bus the Watch & Reconcile Loop runs on. A Session is
// immutable once built except for its Graph, which a config reparse in dev
// mode replaces wholesale.
type Session struct {
	ID uuid.UUID

	cfg      Config
	registry *registry.Registry
	cache    *cache.Cache
	bus      *watch.Bus
	graph    *configgraph.Graph
	root     *cfgcontext.Composite
}

// New loads cfg.ConfigPaths, normalizes them into the ConfigGraph, and
// returns a ready-to-use Session wired to reg.
func New(ctx context.Context, cfg Config, reg *registry.Registry) (*Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("session: loading project.", "paths", cfg.ConfigPaths)

	model, err := yamlconfig.NewLoader().Load(cfg.ConfigPaths...)
	if err != nil {
		return nil, err
	}
	cfgs, err := yamlconfig.Normalize(model)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:       uuid.New(),
		cfg:      cfg,
		registry: reg,
		cache:    cache.New(),
		bus:      watch.NewBus(),
	}

	s.root = cfgcontext.Root(cfg.ProjectVars, cfg.EnvironmentVars, nil, produceUnknown, nil)
	graph, err := configgraph.Build(ctx, cfgs, s.root)
	if err != nil {
		return nil, err
	}
	s.graph = graph

	logger.Info("session: ready.", "id", s.ID, "action_count", len(graph.GetActions(nil)))
	return s, nil
}

// produceUnknown backs the graph-build-time ActionOutputs layer: before any
// task has run, every action output is unknown, so the builder's partial
// resolution pass must never block on it.
func produceUnknown(action.Ref) (cty.Value, error) {
	return cty.DynamicVal, nil
}

// Graph returns the session's current ConfigGraph.
func (s *Session) Graph() *configgraph.Graph { return s.graph }

// Registry returns the session's plugin registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Cache returns the session's Result Cache.
func (s *Session) Cache() *cache.Cache { return s.cache }

// Bus returns the session's event bus, for a Watch Loop or CLI command to
// subscribe to or publish on.
func (s *Session) Bus() *watch.Bus { return s.bus }

// Solve runs initial and its prerequisite closure against this session's
// graph, registry and cache.
func (s *Session) Solve(ctx context.Context, initial []solver.InitialTask, emit func(solver.Event)) (task.GraphResults, error) {
	return solver.Solve(ctx, solver.Config{
		Graph:              s.graph,
		Registry:           s.registry,
		Cache:              s.cache,
		DefaultConcurrency: s.cfg.DefaultConcurrency,
		ConcurrencyLimit:   s.cfg.ConcurrencyLimit,
		ForceActions:       s.cfg.ForceActions,
	}, initial, emit)
}

// Reparse reloads cfg.ConfigPaths from disk and, on success, replaces the
// session's graph. The caller decides whether to treat this as a restart
// (see internal/watch.Loop.Reparse).
func (s *Session) Reparse(ctx context.Context) (*configgraph.Graph, error) {
	model, err := yamlconfig.NewLoader().Load(s.cfg.ConfigPaths...)
	if err != nil {
		return nil, err
	}
	cfgs, err := yamlconfig.Normalize(model)
	if err != nil {
		return nil, err
	}
	graph, err := configgraph.Build(ctx, cfgs, s.root)
	if err != nil {
		return nil, err
	}
	s.graph = graph
	return graph, nil
}

// Close releases session resources. A Session holds nothing that outlives
// the process beyond its in-memory cache; Close exists so callers can defer
// it uniformly and so a future persistent resource (a sync manager, an open
// provider connection) has somewhere to be torn down.
func (s *Session) Close(ctx context.Context) error {
	return nil
}
