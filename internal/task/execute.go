package task

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/cache"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/plugin"
	"github.com/vk/gardenflow/internal/registry"
)

// ExecRequest is everything Execute needs to run one task instance.
type ExecRequest struct {
	Key      Key
	Resolved *action.Resolved
	// Deps holds the already-completed results of this task's
	// prerequisites, keyed by the same (type, ref) pair Prerequisites
	// returned them as.
	Deps     map[Prereq]*Result
	Registry *registry.Registry
	Cache    *cache.Cache
	Log      *slog.Logger
	// Graph and RuntimeContext are forwarded into the plugin.Request
	// verbatim; the core treats both as opaque.
	Graph           any
	RuntimeContext  any
	Forced          bool
	DevModeMismatch bool
}

// Execute runs one task instance: the cache lookup, handler dispatch, and
// short-circuit rule for t, per §4.5's table.
func Execute(ctx context.Context, t Type, req ExecRequest) (*Result, error) {
	switch t {
	case BuildStatus:
		return statusTask(ctx, req, action.Build, plugin.GetStatus)
	case Build:
		return shortCircuitOrCall(ctx, req, Prereq{BuildStatus, req.Key.Ref}, action.Build, plugin.Build)
	case DeployStatus:
		return statusTask(ctx, req, action.Deploy, plugin.GetStatus)
	case Deploy:
		return deploy(ctx, req)
	case DeleteDeploy:
		return callHandler(ctx, req, action.Deploy, plugin.Delete)
	case RunResult:
		return cacheLookup(req, action.Run, alwaysReady)
	case Run:
		return shortCircuitOrCall(ctx, req, Prereq{RunResult, req.Key.Ref}, action.Run, plugin.RunHandler)
	case TestResult:
		return cacheLookup(req, action.Test, succeeded)
	case Test:
		if err := requireStatusDepsReady(req); err != nil {
			return errorResult(req.Key, err), nil
		}
		return shortCircuitOrCall(ctx, req, Prereq{TestResult, req.Key.Ref}, action.Test, plugin.RunHandler)
	default:
		return nil, errs.New(errs.InternalError, "task: unknown task type %q", t)
	}
}

// alwaysReady is RunResult's cache predicate: any cached entry is usable,
// there is no success flag to inspect.
func alwaysReady(cache.Entry) bool { return true }

// succeeded is TestResult's cache predicate: a cached run whose output
// reports success=false (or a non-bool success value) does not count as
// ready; any other cached run, including one whose output carries no
// success flag at all, does.
func succeeded(e cache.Entry) bool {
	m, ok := e.Output.(map[string]any)
	if !ok {
		return true
	}
	v, ok := m["success"]
	if !ok {
		return true
	}
	b, _ := v.(bool)
	return b
}

// statusTask is BuildStatus/DeployStatus's shape: a cache hit for this
// exact version means the thing kind produced is still current, and the
// optional GetStatus handler never has to make its own external check.
// A miss falls through to the handler, which is itself optional — a plugin
// with no GetStatus handler always reports unknown, pushing the decision
// down to Build/Deploy's own handler call.
func statusTask(ctx context.Context, req ExecRequest, kind action.Kind, name string) (*Result, error) {
	if req.Cache != nil {
		if e, found := req.Cache.Get(kind, req.Key.Ref.Name, req.Key.Version); found {
			return &Result{Key: req.Key, Status: StatusReady, Output: e.Output, Log: e.Log, CompletedAt: e.CompletedAt}, nil
		}
	}
	return callHandler(ctx, req, kind, name)
}

func callHandler(ctx context.Context, req ExecRequest, kind action.Kind, name string) (*Result, error) {
	resolved, err := req.Registry.Resolve(req.Resolved.Config.Type, kind, name)
	if err != nil {
		return errorResult(req.Key, err), nil
	}
	if resolved.Handler == nil {
		return &Result{Key: req.Key, Status: StatusUnknown}, nil
	}

	out, err := resolved.Handler(ctx, &plugin.Request{
		Log:            req.Log,
		Action:         req.Resolved,
		Graph:          req.Graph,
		RuntimeContext: req.RuntimeContext,
		Force:          req.Forced,
	})
	if err != nil {
		return errorResult(req.Key, err), nil
	}
	return &Result{Key: req.Key, Status: statusOf(out), Output: out}, nil
}

func statusOf(out any) Status {
	m, ok := out.(map[string]any)
	if !ok {
		return StatusReady
	}
	if s, ok := m["status"].(string); ok {
		switch Status(s) {
		case StatusReady, StatusMissing, StatusOutdated, StatusUnknown, StatusUnhealthy, StatusStopped, StatusError:
			return Status(s)
		}
	}
	return StatusReady
}

// requireStatusDepsReady enforces, for a Test run with --skip-dependencies,
// that every BuildStatus/DeployStatus prerequisite Prerequisites substituted
// in place of the real Build/Deploy task is already ready — "still requires
// a ready prior deploy" (internal/cli's --skip-dependencies help text). A
// normal (non-skipped) Test depends on Build/Deploy themselves, never their
// status tasks, so the presence of a not-ready BuildStatus/DeployStatus dep
// here only ever happens in the skipped path.
func requireStatusDepsReady(req ExecRequest) error {
	var notReady []string
	for p, res := range req.Deps {
		if p.Type != BuildStatus && p.Type != DeployStatus {
			continue
		}
		if res == nil || res.Status != StatusReady {
			notReady = append(notReady, p.Ref.String())
		}
	}
	if len(notReady) == 0 {
		return nil
	}
	sort.Strings(notReady)
	return errs.New(errs.NotFoundError, "test %s: dependency not ready", req.Key.Ref).WithRefs(notReady...)
}

func errorResult(key Key, err error) *Result {
	return &Result{Key: key, Status: StatusError, Err: err}
}

// shortCircuitOrCall is Build/Run/Test's shared shape: inspect the named
// status/result prerequisite, and either reuse it (when it reports ready
// and the task was not forced) or call kind's primary handler and, on
// success, write the cache entry the next status/result lookup will find.
func shortCircuitOrCall(ctx context.Context, req ExecRequest, statusPrereq Prereq, kind action.Kind, handlerName string) (*Result, error) {
	if dep, ok := req.Deps[statusPrereq]; ok && !req.Forced && dep != nil && dep.Status == StatusReady {
		return &Result{Key: req.Key, Status: StatusReady, Output: dep.Output, Log: dep.Log}, nil
	}

	res, err := callHandler(ctx, req, kind, handlerName)
	if err != nil {
		return res, err
	}
	if res.Status != StatusError && req.Cache != nil {
		req.Cache.Put(kind, req.Key.Ref.Name, req.Key.Version, cache.Entry{
			Output: res.Output,
			Log:    res.Log,
		})
	}
	return res, nil
}

func deploy(ctx context.Context, req ExecRequest) (*Result, error) {
	dep := req.Deps[Prereq{DeployStatus, req.Key.Ref}]
	if dep != nil && !req.Forced && !req.DevModeMismatch && dep.Status == StatusReady {
		return &Result{Key: req.Key, Status: StatusReady, Output: dep.Output, Log: dep.Log}, nil
	}
	res, err := callHandler(ctx, req, action.Deploy, plugin.Deploy)
	if err != nil {
		return res, err
	}
	if res.Status != StatusError && req.Cache != nil {
		req.Cache.Put(action.Deploy, req.Key.Ref.Name, req.Key.Version, cache.Entry{
			Output: res.Output,
			Log:    res.Log,
		})
	}
	return res, nil
}

func cacheLookup(req ExecRequest, kind action.Kind, ready func(cache.Entry) bool) (*Result, error) {
	if req.Cache == nil {
		return &Result{Key: req.Key, Status: StatusMissing}, nil
	}
	e, found := req.Cache.Get(kind, req.Key.Ref.Name, req.Key.Version)
	if !found {
		return &Result{Key: req.Key, Status: StatusMissing}, nil
	}
	if !ready(e) {
		return &Result{Key: req.Key, Status: StatusMissing, Output: e.Output, Log: e.Log}, nil
	}
	return &Result{Key: req.Key, Status: StatusReady, Output: e.Output, Log: e.Log, CompletedAt: e.CompletedAt}, nil
}
