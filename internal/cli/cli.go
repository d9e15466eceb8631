// Package cli assembles the Cobra command tree §6 names: deploy, test, run
// (build|deploy|task|test|workflow), delete (deploy|environment|secret), and
// dev. Every command builds its own session.Session from the global flags
// and the project path, so unrelated invocations never share mutable state.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/gardenflow/internal/action"
	"github.com/vk/gardenflow/internal/app"
	"github.com/vk/gardenflow/internal/configgraph"
	"github.com/vk/gardenflow/internal/devsync"
	"github.com/vk/gardenflow/internal/errs"
	"github.com/vk/gardenflow/internal/session"
	"github.com/vk/gardenflow/internal/solver"
	"github.com/vk/gardenflow/internal/task"
	"github.com/vk/gardenflow/internal/watch"
)

// ExitError carries the process exit code §6 assigns to a command outcome:
// 0 success, 1 runtime failure, 2 configuration error, 130 cancellation.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// ExitCodeFor maps a returned error to its §7/§6 exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*ExitError); ok {
		return ee.Code
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	if kind, ok := errs.KindOf(err); ok {
		switch kind {
		case errs.ConfigurationError, errs.ParameterError:
			return 2
		case errs.CancellationError:
			return 130
		default:
			return 1
		}
	}
	return 1
}

// globals holds the §6 global flags, bound once on the root command. env,
// force and stateDir are read by the subcommands; yes and logLevel are
// parsed but not read by any command.
type globals struct {
	env     string
	yes     bool
	force   bool
	logLevel string
	stateDir string
}

// NewRootCommand builds the full command tree wired to a.
func NewRootCommand(a *app.App, out io.Writer) *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "garden",
		Short:         "Resolve and run build/deploy/run/test actions across a project graph.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.env, "env", "default", "Environment to target.")
	root.PersistentFlags().BoolVarP(&g.yes, "yes", "y", false, "Skip interactive confirmation prompts.")
	root.PersistentFlags().BoolVar(&g.force, "force", false, "Bypass cache/status short-circuiting for every targeted action.")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn, or error. Parsed but not applied; the level comes from GARDEN_LOG_LEVEL.")
	root.PersistentFlags().StringVar(&g.stateDir, "state-dir", ".garden", "Project state directory.")

	root.AddCommand(
		newDeployCommand(a, g),
		newTestCommand(a, g),
		newRunCommand(a, g),
		newDeleteCommand(a, g),
		newDevCommand(a, g),
	)
	return root
}

func newSession(ctx context.Context, a *app.App, g *globals, paths []string, forceRefs map[action.Ref]bool) (*session.Session, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return session.New(ctx, session.Config{
		ConfigPaths:        paths,
		Environment:        g.env,
		StateDir:           g.stateDir,
		DefaultConcurrency:  0,
		ForceActions:       forceRefs,
	}, a.Registry())
}

func printEvent(out io.Writer, e solver.Event) {
	switch ev := e.(type) {
	case solver.TaskComplete:
		fmt.Fprintf(out, "done  %s (%s)\n", ev.Key.Ref, ev.Key.Type)
	case solver.TaskError:
		fmt.Fprintf(out, "FAIL  %s: %v\n", ev.Key.Ref, ev.Err)
	case solver.DeployStatusUpdate:
		fmt.Fprintf(out, "status %s -> %s\n", ev.Ref, ev.Status)
	}
}

// runAndReport solves initial against s and returns an *ExitError summarizing
// any task failures, per §7's "each failed task produces ... the command
// exits with aggregated count" rule.
func runAndReport(ctx context.Context, out io.Writer, s *session.Session, initial []solver.InitialTask) error {
	results, err := s.Solve(ctx, initial, func(e solver.Event) { printEvent(out, e) })
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r != nil && r.Status == task.StatusError {
			failed++
		}
	}
	if failed > 0 {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d task(s) failed", failed)}
	}
	return nil
}

func deployRefs(s *session.Session, names []string) []action.Ref {
	if len(names) == 0 {
		return s.Graph().GetActions(func(c *action.Config) bool { return c.Ref.Kind == action.Deploy })
	}
	refs := make([]action.Ref, 0, len(names))
	for _, n := range names {
		refs = append(refs, action.Ref{Kind: action.Deploy, Name: n})
	}
	return refs
}

func testRefs(s *session.Session, names []string) []action.Ref {
	if len(names) == 0 {
		return s.Graph().GetActions(func(c *action.Config) bool { return c.Ref.Kind == action.Test })
	}
	refs := make([]action.Ref, 0, len(names))
	for _, n := range names {
		refs = append(refs, action.Ref{Kind: action.Test, Name: n})
	}
	return refs
}

func newDeployCommand(a *app.App, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy [names...]",
		Short: "Deploy every named Deploy action, or every Deploy action if none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			refs := deployRefs(s, args)
			initial := make([]solver.InitialTask, 0, len(refs))
			for _, r := range refs {
				initial = append(initial, solver.InitialTask{Type: task.Deploy, Ref: r, Force: g.force})
			}
			return runAndReport(ctx, cmd.OutOrStdout(), s, initial)
		},
	}
}

func newTestCommand(a *app.App, g *globals) *cobra.Command {
	var watchFlag bool
	var skipDeps bool

	cmd := &cobra.Command{
		Use:   "test [names...]",
		Short: "Run every named Test action, or every Test action if none are named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			refs := testRefs(s, args)
			initial := make([]solver.InitialTask, 0, len(refs))
			for _, r := range refs {
				initial = append(initial, solver.InitialTask{
					Type:             task.Test,
					Ref:              r,
					Force:            g.force,
					SkipDependencies: skipDeps,
				})
			}
			if err := runAndReport(ctx, cmd.OutOrStdout(), s, initial); err != nil {
				return err
			}
			if !watchFlag {
				return nil
			}
			return runWatch(ctx, cmd.OutOrStdout(), s, refs, task.Test)
		},
	}
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "Re-run affected tests when their sources change.")
	cmd.Flags().BoolVar(&skipDeps, "skip-dependencies", false, "Skip re-running this test's own prerequisite chain; still requires a ready prior deploy.")
	return cmd
}

func newRunCommand(a *app.App, g *globals) *cobra.Command {
	run := &cobra.Command{
		Use:   "run",
		Short: "Run a single build, deploy, task, test, or workflow by name.",
	}
	run.AddCommand(
		newRunKindCommand(a, g, "build", task.Build, action.Build),
		newRunKindCommand(a, g, "deploy", task.Deploy, action.Deploy),
		newRunKindCommand(a, g, "test", task.Test, action.Test),
		newRunTaskCommand(a, g),
		newRunWorkflowCommand(a, g),
	)
	return run
}

func newRunKindCommand(a *app.App, g *globals, use string, t task.Type, kind action.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: fmt.Sprintf("Run a single %s action.", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			ref := action.Ref{Kind: kind, Name: args[0]}
			initial := []solver.InitialTask{{Type: t, Ref: ref, Force: g.force}}
			return runAndReport(ctx, cmd.OutOrStdout(), s, initial)
		},
	}
}

// newRunTaskCommand runs an arbitrary task.Type by name, for the rarer case
// of driving a status/result task directly (e.g. "run task deploy.api
// DeployStatus") rather than one of the four primary verbs.
func newRunTaskCommand(a *app.App, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "task <action-ref> <task-type>",
		Short: "Run an arbitrary task type against a single action.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ref, err := action.ParseRef(args[0])
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			initial := []solver.InitialTask{{Type: task.Type(args[1]), Ref: ref, Force: g.force}}
			return runAndReport(ctx, cmd.OutOrStdout(), s, initial)
		},
	}
}

// newRunWorkflowCommand runs every Deploy and Test action in the project in
// dependency order; the config model has no separate "workflow" document
// kind, so a named workflow here is just shorthand for "deploy and test
// everything".
func newRunWorkflowCommand(a *app.App, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "workflow <name>",
		Short: "Deploy and test every action in the project.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			var initial []solver.InitialTask
			for _, r := range deployRefs(s, nil) {
				initial = append(initial, solver.InitialTask{Type: task.Deploy, Ref: r, Force: g.force})
			}
			for _, r := range testRefs(s, nil) {
				initial = append(initial, solver.InitialTask{Type: task.Test, Ref: r, Force: g.force})
			}
			return runAndReport(ctx, cmd.OutOrStdout(), s, initial)
		},
	}
}

func newDeleteCommand(a *app.App, g *globals) *cobra.Command {
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete a deploy, environment, or secret.",
	}
	del.AddCommand(newDeleteDeployCommand(a, g))
	del.AddCommand(&cobra.Command{
		Use:   "environment <name>",
		Short: "Delete every deployment in an environment.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return &ExitError{Code: 1, Message: "delete environment requires a plugin-contributed CLI extension; none is registered"}
		},
	})
	del.AddCommand(&cobra.Command{
		Use:   "secret <name>",
		Short: "Delete a provider-managed secret.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return &ExitError{Code: 1, Message: "delete secret requires a plugin-contributed CLI extension; none is registered"}
		},
	})
	return del
}

func newDeleteDeployCommand(a *app.App, g *globals) *cobra.Command {
	var dependantsFirst bool
	var withDependants bool

	cmd := &cobra.Command{
		Use:   "deploy [names...]",
		Short: "Delete one or more deployments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			refs := deployRefs(s, args)
			if withDependants {
				refs = append(refs, dependantsOf(s, refs)...)
			}
			initial := make([]solver.InitialTask, 0, len(refs))
			for _, r := range refs {
				initial = append(initial, solver.InitialTask{Type: task.DeleteDeploy, Ref: r, DependantsFirst: dependantsFirst})
			}
			return runAndReport(ctx, cmd.OutOrStdout(), s, initial)
		},
	}
	cmd.Flags().BoolVar(&dependantsFirst, "dependants-first", false, "Delete each target's dependants before the target itself.")
	cmd.Flags().BoolVar(&withDependants, "with-dependants", false, "Also delete every deployment that depends on a target.")
	return cmd
}

func dependantsOf(s *session.Session, targets []action.Ref) []action.Ref {
	return s.Graph().GetDependantsForMany(targets, true)
}

func newDevCommand(a *app.App, g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Deploy the project, then watch sources and reconcile on change.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, a, g, nil, nil)
			if err != nil {
				return err
			}
			refs := deployRefs(s, nil)
			var initial []solver.InitialTask
			for _, r := range refs {
				initial = append(initial, solver.InitialTask{Type: task.Deploy, Ref: r, Force: g.force})
			}
			if err := runAndReport(ctx, cmd.OutOrStdout(), s, initial); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for code changes...")
			return runWatch(ctx, cmd.OutOrStdout(), s, refs, task.Deploy)
		},
	}
}

// runWatch stands up a FileWatcher over each ref's source path, a devsync
// Syncer for every ref declaring a sync_target in its spec, and a Loop that
// re-runs t for whatever changed, until ctx is cancelled.
func runWatch(ctx context.Context, out io.Writer, s *session.Session, refs []action.Ref, t task.Type) error {
	fw, err := watch.NewFileWatcher(s.Bus(), ".garden")
	if err != nil {
		return err
	}
	var syncers []*devsync.Syncer
	for _, ref := range refs {
		cfg := s.Graph().GetConfig(ref)
		if cfg == nil || cfg.SourcePath == "" {
			continue
		}
		if err := fw.Watch(watch.Root{Ref: ref, Path: cfg.SourcePath}); err != nil {
			return err
		}
		if target, ok := cfg.Spec["sync_target"].(string); ok && target != "" {
			syncer := devsync.NewSyncer(s.Bus(), ref, devsync.Config{SourcePath: cfg.SourcePath, TargetPath: target})
			if err := syncer.Start(ctx); err != nil {
				return err
			}
			syncers = append(syncers, syncer)
		}
	}
	defer func() {
		for _, syncer := range syncers {
			syncer.Stop()
		}
	}()

	stop := make(chan struct{})
	go fw.Run(stop)
	defer close(stop)

	loop := &watch.Loop{
		Bus:   s.Bus(),
		Graph: s.Graph(),
		Handler: func(g *configgraph.Graph, changed action.Ref) []solver.InitialTask {
			return []solver.InitialTask{{Type: t, Ref: changed}}
		},
		Reparse: s.Reparse,
		Run: func(ctx context.Context, tasks []solver.InitialTask) {
			if err := runAndReport(ctx, out, s, tasks); err != nil {
				fmt.Fprintln(out, err)
			}
			fmt.Fprintln(out, "Waiting for code changes...")
		},
	}
	return loop.Start(ctx)
}
