// Package orchestrator wires together configuration resolution, the
// category registry and the job scheduler into one run (§4.G), a single
// entry point for cmd/ to call into.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/henneberg-systemdesign/devsync/internal/category"
	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/job"
	"github.com/henneberg-systemdesign/devsync/internal/progress"
	"github.com/henneberg-systemdesign/devsync/internal/registry"
	"github.com/henneberg-systemdesign/devsync/internal/scheduler"
	"github.com/henneberg-systemdesign/devsync/internal/session"
)

// Exit codes, §6 "CLI flags".
const (
	ExitOK         = 0
	ExitJobFailure = 1
	ExitInvalid    = 2
	ExitAborted    = 3
)

// RunInput is everything a caller (cmd/, or a test) supplies to start a
// run. CLIFlags carries only flags the user explicitly set, keyed by koanf
// tag name, taking precedence over every other layer.
type RunInput struct {
	CLIFlags map[string]any
	Env      []string
	Sink     progress.Sink
}

// Result summarizes a completed (or aborted) run.
type Result struct {
	Options  *config.SyncOptions
	Snapshot progress.Snapshot
	ExitCode int
}

// Run resolves options, validates the roots, walks the source tree and
// returns the final counters and exit code. It never calls os.Exit itself
// — cmd/ does that, keeping the exit-code decision separate from the
// command dispatch that triggers it.
func Run(ctx context.Context, in RunInput) (Result, error) {
	opts, err := resolveOptions(in)
	if err != nil {
		return Result{ExitCode: ExitInvalid}, err
	}

	state := progress.New(in.Sink)

	if opts.Source == "" || opts.Target == "" {
		return invalid(state, opts, "source and target are required")
	}
	srcInfo, err := os.Stat(opts.Source)
	if err != nil || !srcInfo.IsDir() {
		state.Log(progress.LevelError, fmt.Sprintf("source root %s is not a readable directory", opts.Source))
		writeLog(opts.Target, state)
		return Result{Options: opts, Snapshot: state.Snapshot(), ExitCode: ExitInvalid},
			devsyncerr.New(devsyncerr.Config, opts.Source, err)
	}

	overridesPath := opts.CategoryOverridesFile
	if overridesPath == "" {
		overridesPath = filepath.Join(opts.Source, ".devsync-categories.yaml")
	}
	overrides, err := registry.LoadOverrides(overridesPath)
	if err != nil {
		return invalid(state, opts, err.Error())
	}
	reg := registry.New(overrides)

	sched := scheduler.New(opts.Jobs, reg)
	root := &job.DirectoryJob{
		Source:     opts.Source,
		Target:     opts.Target,
		Depth:      0,
		Options:    opts,
		Progress:   state,
		Reclassify: true,
		Pinned:     category.Plain,
	}
	sched.Submit(root)

	runErr := sched.Run(ctx)

	if err := session.Save(filepath.Join(opts.Target, session.FileName), opts); err != nil {
		state.Log(progress.LevelWarn, fmt.Sprintf("could not write session file: %v", err))
	}
	writeLog(opts.Target, state)

	snap := state.Snapshot()
	result := Result{Options: opts, Snapshot: snap, ExitCode: exitCodeFor(ctx, runErr, snap)}
	return result, runErr
}

func resolveOptions(in RunInput) (*config.SyncOptions, error) {
	target, _ := in.CLIFlags["target"].(string)
	if target == "" {
		if t, ok := in.CLIFlags["source"].(string); ok {
			target = t
		}
	}

	var sessionValues map[string]string
	if target != "" {
		if vals, err := session.Load(filepath.Join(target, session.FileName)); err == nil {
			sessionValues = vals
		} else {
			slog.Warn("ignoring unreadable session file", "target", target, "err", err)
		}
	}

	projectPath := ""
	if src, ok := in.CLIFlags["source"].(string); ok && src != "" {
		projectPath = config.DefaultProjectConfigPath(src)
	}

	opts, _, err := config.Resolve(config.ResolveInput{
		ProjectConfigPath: projectPath,
		SessionValues:     sessionValues,
		Env:               in.Env,
		CLIFlags:          in.CLIFlags,
	})
	return opts, err
}

// invalid records reason as an error-level event and, when a target root is
// known, flushes it to .devsync.log before returning — scenarios rejected
// before a target is even resolved (e.g. a missing target) have nowhere
// to write one.
func invalid(state *progress.State, opts *config.SyncOptions, reason string) (Result, error) {
	state.Log(progress.LevelError, reason)
	if opts.Target != "" {
		writeLog(opts.Target, state)
	}
	return Result{Options: opts, Snapshot: state.Snapshot(), ExitCode: ExitInvalid},
		devsyncerr.Newf(devsyncerr.Config, opts.Source, "%s", reason)
}

func exitCodeFor(ctx context.Context, runErr error, snap progress.Snapshot) int {
	if ctx.Err() != nil {
		return ExitAborted
	}
	if runErr != nil {
		return ExitJobFailure
	}
	if snap.Failed > 0 {
		return ExitJobFailure
	}
	return ExitOK
}

// writeLog writes .devsync.log at the target root, one line per error or
// skipped directory (§6 "Log file").
func writeLog(target string, state *progress.State) {
	if err := os.MkdirAll(target, 0o755); err != nil {
		slog.Warn("could not create target root for log file", "target", target, "err", err)
		return
	}
	path := filepath.Join(target, ".devsync.log")
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("could not create log file", "path", path, "err", err)
		return
	}
	defer f.Close()

	for _, rec := range state.Records() {
		if rec.Level != progress.LevelError && rec.Level != progress.LevelInfo {
			continue
		}
		fmt.Fprintf(f, "%s\t%s\t%s\t%s\n", rec.Time.Format("2006-01-02T15:04:05Z07:00"), rec.Level, rec.Path, rec.Message)
	}
}
