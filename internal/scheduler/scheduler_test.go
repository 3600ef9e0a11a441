package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/job"
	"github.com/henneberg-systemdesign/devsync/internal/progress"
	"github.com/henneberg-systemdesign/devsync/internal/registry"
)

func buildTree(t *testing.T, root string, depth, breadth int) {
	t.Helper()
	if depth == 0 {
		return
	}
	for i := 0; i < breadth; i++ {
		sub := filepath.Join(root, "d"+string(rune('a'+i)))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(sub, "f.txt"), []byte("x"), 0o644)
		buildTree(t, sub, depth-1, breadth)
	}
}

func rootJob(src, dst string, opts *config.SyncOptions, state *progress.State) *job.DirectoryJob {
	return &job.DirectoryJob{Source: src, Target: dst, Depth: 0, Options: opts, Progress: state, Reclassify: true}
}

func TestScheduler_QuiescenceSingleWorker(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	buildTree(t, src, 2, 2)

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(1, registry.New(nil))
	s.Submit(rootJob(src, dst, opts, state))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := state.Snapshot()
	if !snap.Quiescent() {
		t.Fatalf("snapshot not quiescent: %+v", snap)
	}
	if snap.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", snap)
	}
}

func TestScheduler_QuiescenceManyWorkers(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	buildTree(t, src, 3, 3)

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(8, registry.New(nil))
	s.Submit(rootJob(src, dst, opts, state))

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not reach quiescence in time")
	}

	if !state.Snapshot().Quiescent() {
		t.Fatalf("snapshot not quiescent: %+v", state.Snapshot())
	}
}

func TestScheduler_ChildJobsAreAllProcessed(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	buildTree(t, src, 2, 4)

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(4, registry.New(nil))
	s.Submit(rootJob(src, dst, opts, state))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// root + 4 depth-1 dirs + 16 depth-2 dirs = 21 discovered jobs.
	snap := state.Snapshot()
	if snap.Discovered != 21 {
		t.Fatalf("Discovered = %d, want 21", snap.Discovered)
	}
	if snap.Completed != 21 {
		t.Fatalf("Completed = %d, want 21", snap.Completed)
	}
}

func TestScheduler_RootErrorAbortsRun(t *testing.T) {
	src := filepath.Join(t.TempDir(), "does-not-exist")
	dst := t.TempDir()

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(2, registry.New(nil))
	s.Submit(rootJob(src, dst, opts, state))

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected a root error for an unreadable source directory")
	}
}

func TestScheduler_NonRootFailureDoesNotSetRootErr(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	childSrc := filepath.Join(src, "bad")
	os.MkdirAll(childSrc, 0o755)
	os.MkdirAll(filepath.Join(src, "ok"), 0o755)

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(1, registry.New(nil))
	s.Submit(rootJob(src, dst, opts, state))
	// A depth>0 job with an unreadable source is recorded as a per-job
	// failure only; seed it directly so the root job above has already
	// been queued and completes normally first.
	s.Submit(&job.DirectoryJob{
		Source: filepath.Join(childSrc, "missing"), Target: filepath.Join(dst, "bad", "missing"),
		Depth: 1, Options: opts, Progress: state, Reclassify: true,
	})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.RootErr() != nil {
		t.Fatalf("RootErr() = %v, want nil (failure was at depth 1)", s.RootErr())
	}
	if state.Snapshot().Failed == 0 {
		t.Fatal("expected the depth-1 job against a missing source to be recorded as a failure")
	}
}

func TestScheduler_StopPreventsFurtherWork(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	buildTree(t, src, 2, 2)

	opts := config.Default()
	opts.Source = src
	opts.Target = dst
	state := progress.New(nil)

	s := New(1, registry.New(nil))
	s.Stop()
	s.Submit(rootJob(src, dst, opts, state))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	snap := state.Snapshot()
	if snap.Completed != 0 {
		t.Fatalf("Completed = %d, want 0 after Stop before any work started", snap.Completed)
	}
	if !snap.Quiescent() {
		t.Fatalf("snapshot not quiescent: %+v", snap)
	}
}
