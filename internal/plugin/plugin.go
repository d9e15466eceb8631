// Package plugin defines the handler interface contracts a plugin
// implements per action kind, and the request/result shapes the router
// passes across that boundary.
package plugin

import (
	"context"
	"log/slog"

	"github.com/vk/gardenflow/internal/action"
)

// HandlerFunc is the common shape of every plugin handler, regardless of
// which (action kind, handler name) it implements.
type HandlerFunc func(context.Context, *Request) (any, error)

// Request is what every handler receives: the resolved action it operates
// on, logging, and whatever of the project/provider/graph/runtime context it
// needs. Graph and RuntimeContext are passed as `any` here to avoid an
// import cycle with configgraph/cfgcontext; callers downcast to the
// concrete type they know the router was wired with.
type Request struct {
	Log            *slog.Logger
	Action         *action.Resolved
	Graph          any
	RuntimeContext any
	// Force reports whether the invoking task carries the force flag,
	// bypassing any handler-side short-circuit.
	Force bool
}

// Handler slot names, across every kind; HandlerNames says which slots
// belong to which kind.
const (
	Build        = "build"
	GetStatus    = "getStatus"
	Publish      = "publish"
	RunHandler   = "run"
	Deploy       = "deploy"
	Delete       = "delete"
	Exec         = "exec"
	GetLogs      = "getLogs"
	GetPortFwd   = "getPortForward"
	StopPortFwd  = "stopPortForward"
	GetResult    = "getResult"
)

// HandlerNames lists every handler slot a plugin may implement for kind,
// per §4.4: Build — build/getStatus/publish/run; Deploy —
// deploy/getStatus/delete/exec/getLogs/getPortForward/stopPortForward/run;
// Run and Test — run/getResult.
func HandlerNames(kind action.Kind) []string {
	switch kind {
	case action.Build:
		return []string{Build, GetStatus, Publish, RunHandler}
	case action.Deploy:
		return []string{Deploy, GetStatus, Delete, Exec, GetLogs, GetPortFwd, StopPortFwd, RunHandler}
	case action.Run, action.Test:
		return []string{RunHandler, GetResult}
	default:
		return nil
	}
}

// Optional reports whether a missing handler of this name is a valid
// no-op rather than a plugin-not-implemented error. Every handler except
// the kind's primary verb (build/deploy/run for Run and Test) is optional.
func Optional(kind action.Kind, handlerName string) bool {
	switch kind {
	case action.Build:
		return handlerName != Build
	case action.Deploy:
		return handlerName != Deploy
	case action.Run, action.Test:
		return handlerName != RunHandler
	default:
		return true
	}
}

// ActionTypeDef is one action type's handler table for a single kind, as
// declared or extended by a plugin.
type ActionTypeDef struct {
	Kind     action.Kind
	Handlers map[string]HandlerFunc
}

// Definition is a full action type: its type name plus the per-kind
// handler tables a plugin contributes for it. A plugin declares a
// Definition for an action type it owns, or an Extension (same shape) for
// one owned by another plugin further down its base chain.
type Definition struct {
	Type        string
	ConfigKinds map[action.Kind]*ActionTypeDef
}

// Plugin is the full unit of registration: name, optional base plugin
// (whose handlers this one may override), the action types it defines, the
// action types it extends, and its CLI extension commands. It carries no
// config or output schema.
type Plugin struct {
	Name       string
	Base       string // name of the base plugin, or "" for none
	Defines    []*Definition
	Extends    []*Definition
	CLIExtensions []CLICommand
}

// CLICommand is a plugin-contributed CLI extension command, e.g. a
// provider-specific "delete secret" implementation.
type CLICommand struct {
	Name string
	Run  func(ctx context.Context, args []string) error
}
