// Package errs defines the typed error kinds used across the graph builder,
// registry and solver, per the kind/propagation rules they're classified by.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the solver's propagation rules: fatal kinds
// abort the whole pass, task-fatal kinds only abort the task and its
// descendants.
type Kind string

const (
	ConfigurationError Kind = "configuration-error" // fatal for the command
	ParameterError     Kind = "parameter-error"     // fatal, bad CLI input
	PluginError        Kind = "plugin-error"         // task-fatal
	RuntimeError       Kind = "runtime-error"        // task-fatal, plugin-reported
	TimeoutError       Kind = "timeout-error"        // task-fatal
	CancellationError  Kind = "cancellation-error"   // propagates synchronously
	NotFoundError      Kind = "not-found-error"      // missing referenced key
	InternalError      Kind = "internal-error"       // fatal, surfaces a bug
)

// Fatal reports whether an error of this kind aborts the whole solver pass
// rather than just the task that raised it.
func (k Kind) Fatal() bool {
	switch k {
	case ConfigurationError, ParameterError, InternalError:
		return true
	default:
		return false
	}
}

// Error is the common error type every core component raises, carrying
// enough context (the offending action/key path) for the CLI to render it.
type Error struct {
	Kind Kind
	// Refs names the offending action reference(s), e.g. ["build.api"], or
	// for a cycle, every ref in the cycle in order.
	Refs []string
	Msg  string
	// Cause, when set, is the underlying error this one wraps.
	Cause error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if len(e.Refs) > 0 {
		s += fmt.Sprintf(" (%v)", e.Refs)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// WithRefs attaches offending action references to an Error and returns it,
// for chaining at the construction site.
func (e *Error) WithRefs(refs ...string) *Error {
	e.Refs = refs
	return e
}

// KindOf is a thin convenience wrapper over errors.As for the common case of
// asking "what Kind is this error, if any".
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
