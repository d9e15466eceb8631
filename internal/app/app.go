package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/gardenflow/internal/registry"
)

// AppConfig holds the process-wide settings an App needs before it has
// loaded any project: how to log, and nothing about where a project lives,
// since that belongs to the Session a command builds afterwards.
type AppConfig struct {
	LogFormat string
	LogLevel  string
}

// App encapsulates the process-wide dependencies that outlive any single
// project load: the logger and the plugin Registry assembled from the
// compiled-in modules. A command builds a session.Session on top of it once
// it knows which project to load.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
}

// NewApp wires a logger and a Registry populated from modules (or
// coreModules if none are given), and validates the registry's structural
// invariants. A validation failure is a programmer error — a plugin
// declaring an unknown base or an out-of-table handler name — so it panics
// rather than returning an error a caller could plausibly recover from.
func NewApp(outW io.Writer, appConfig *AppConfig, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("logger configured.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("modules registered.", "count", len(modules))

	if err := reg.ValidateRegistry(); err != nil {
		panic(fmt.Errorf("registry validation failed: %w", err))
	}
	logger.Debug("registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the application's plugin registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
