package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/henneberg-systemdesign/devsync/internal/progress"
)

func TestRun_MissingSourceAndTargetIsInvalid(t *testing.T) {
	res, err := Run(context.Background(), RunInput{})
	if err == nil {
		t.Fatal("expected an error for a run with no source/target")
	}
	if res.ExitCode != ExitInvalid {
		t.Fatalf("ExitCode = %d, want %d", res.ExitCode, ExitInvalid)
	}
}

func TestRun_UnreadableSourceIsInvalid(t *testing.T) {
	target := t.TempDir()
	res, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{
			"source": filepath.Join(t.TempDir(), "does-not-exist"),
			"target": target,
		},
	})
	if err == nil {
		t.Fatal("expected an error for an unreadable source root")
	}
	if res.ExitCode != ExitInvalid {
		t.Fatalf("ExitCode = %d, want %d", res.ExitCode, ExitInvalid)
	}
	logBytes, err := os.ReadFile(filepath.Join(target, ".devsync.log"))
	if err != nil {
		t.Fatalf("log file not written for an unreadable source: %v", err)
	}
	if len(logBytes) == 0 {
		t.Fatal("log file is empty, want one Config/Io failure record")
	}
}

func TestRun_MissingTargetIsInvalidWithoutWritingAnywhere(t *testing.T) {
	res, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": t.TempDir()},
	})
	if err == nil {
		t.Fatal("expected an error when target is unset")
	}
	if res.ExitCode != ExitInvalid {
		t.Fatalf("ExitCode = %d, want %d", res.ExitCode, ExitInvalid)
	}
}

func TestRun_CMakeTreeSkippedByDefault(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()

	os.MkdirAll(filepath.Join(source, "plainA"), 0o755)
	os.MkdirAll(filepath.Join(source, "plainB"), 0o755)
	buildDir := filepath.Join(source, "buildtree")
	os.MkdirAll(buildDir, 0o755)
	os.WriteFile(filepath.Join(buildDir, "CMakeCache.txt"), nil, 0o644)

	res, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": source, "target": target, "jobs": 2},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ExitCode != ExitOK {
		t.Fatalf("ExitCode = %d, want %d", res.ExitCode, ExitOK)
	}
	snap := res.Snapshot
	// root + plainA + plainB + buildtree(skipped) = 4 discovered.
	if snap.Discovered != 4 {
		t.Fatalf("Discovered = %d, want 4", snap.Discovered)
	}
	if snap.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1 (the CMake build tree)", snap.Skipped)
	}
	if snap.Completed != 3 {
		t.Fatalf("Completed = %d, want 3", snap.Completed)
	}
	if _, err := os.Stat(filepath.Join(target, "plainA")); err != nil {
		t.Fatal("plainA should have been copied")
	}
	if _, err := os.Stat(filepath.Join(target, "buildtree")); !os.IsNotExist(err) {
		t.Fatal("buildtree should not have been created under target by default")
	}
}

func TestRun_WritesSessionFileAndLog(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	os.MkdirAll(filepath.Join(source, "a"), 0o755)

	_, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": source, "target": target},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, ".devsync.session")); err != nil {
		t.Fatal("session file not written")
	}
	if _, err := os.Stat(filepath.Join(target, ".devsync.log")); err != nil {
		t.Fatal("log file not written")
	}
}

func TestRun_SecondRunPicksUpPreviousSession(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	os.MkdirAll(filepath.Join(source, "a"), 0o755)

	if _, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": source, "target": target, "jobs": 3},
	}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	res, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": source, "target": target},
	})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Options.Jobs != 3 {
		t.Fatalf("Jobs = %d, want 3 (carried over from the session file)", res.Options.Jobs)
	}
}

func TestRun_AbortedContextReportsExitAborted(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	os.MkdirAll(filepath.Join(source, "a"), 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, _ := Run(ctx, RunInput{
		CLIFlags: map[string]any{"source": source, "target": target},
	})
	if res.ExitCode != ExitAborted {
		t.Fatalf("ExitCode = %d, want %d", res.ExitCode, ExitAborted)
	}
}

func TestRun_SinkReceivesEvents(t *testing.T) {
	source := t.TempDir()
	target := t.TempDir()
	os.MkdirAll(filepath.Join(source, "a"), 0o755)

	var discovered []string
	sink := sinkFunc{onDiscovered: func(p string) { discovered = append(discovered, p) }}

	if _, err := Run(context.Background(), RunInput{
		CLIFlags: map[string]any{"source": source, "target": target},
		Sink:     sink,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(discovered) == 0 {
		t.Fatal("expected the sink to observe at least one Discovered event")
	}
}

type sinkFunc struct {
	onDiscovered func(string)
}

func (s sinkFunc) Discovered(path string) {
	if s.onDiscovered != nil {
		s.onDiscovered(path)
	}
}
func (sinkFunc) Started(string, string)       {}
func (sinkFunc) Finished(string, string)      {}
func (sinkFunc) Logged(string, string)        {}

var _ progress.Sink = sinkFunc{}
