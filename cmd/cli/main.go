package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/gardenflow/internal/app"
	"github.com/vk/gardenflow/internal/cli"
	"github.com/vk/gardenflow/internal/ctxlog"
)

// main is the entrypoint for the gardenflow CLI.
func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Stdout, os.Args[1:])
	os.Exit(cli.ExitCodeFor(err))
}

// run builds the App and command tree and executes args against out, kept
// separate from main so tests can drive it without os.Exit. NewApp panics on
// a registry validation failure; recovered here so a broken plugin build
// still exits cleanly instead of crashing the process.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	appConfig := &app.AppConfig{
		LogFormat: envOr("GARDEN_LOG_FORMAT", "text"),
		LogLevel:  envOr("GARDEN_LOG_LEVEL", "info"),
	}

	a := app.NewApp(outW, appConfig)
	ctx = ctxlog.WithLogger(ctx, a.Logger())
	root := cli.NewRootCommand(a, outW)
	root.SetArgs(args)
	root.SetContext(ctx)

	if env := os.Getenv("GARDEN_ENV"); env != "" {
		root.PersistentFlags().Set("env", env)
	}

	return root.Execute()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
