package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/job"
	"github.com/henneberg-systemdesign/devsync/internal/progress"
)

func newTestJob(t *testing.T, src, dst string, opts *config.SyncOptions) *job.DirectoryJob {
	t.Helper()
	if opts == nil {
		opts = config.Default()
	}
	opts.Source = src
	opts.Target = dst
	return &job.DirectoryJob{
		Source:   src,
		Target:   dst,
		Options:  opts,
		Progress: progress.New(nil),
	}
}

func TestPlain_PrepareCreatesTarget(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	j := newTestJob(t, src, dst, nil)
	outcome, err := (Plain{}).Prepare(context.Background(), j)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if outcome.Kind != job.Done {
		t.Fatalf("outcome = %+v, want Done", outcome)
	}
	if info, err := os.Stat(dst); err != nil || !info.IsDir() {
		t.Fatalf("target dir not created: %v", err)
	}
}

func TestPlain_ProcessCopiesFilesAndEnqueuesChildren(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(filepath.Join(src, "sub"), 0o755)
	os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644)
	os.MkdirAll(dst, 0o755)

	j := newTestJob(t, src, dst, nil)
	outcome, children, err := (Plain{}).Process(context.Background(), j)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Kind != job.Done {
		t.Fatalf("outcome = %+v, want Done", outcome)
	}
	if len(children) != 1 || children[0].Source != filepath.Join(src, "sub") {
		t.Fatalf("children = %+v, want one child for sub/", children)
	}
	if got, err := os.ReadFile(filepath.Join(dst, "a.txt")); err != nil || string(got) != "a" {
		t.Fatalf("a.txt not copied: %v, %q", err, got)
	}
}

func TestPlain_ProcessSkipsIgnoredNamesAndGlobs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.WriteFile(filepath.Join(src, "debug.o"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(src, "keep.go"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(src, "gen.generated.go"), []byte("x"), 0o644)
	os.MkdirAll(dst, 0o755)

	opts := config.Default()
	opts.IgnoreNames = []string{".o"}
	opts.ExtraIgnoreGlobs = []string{"**/*.generated.go"}
	j := newTestJob(t, src, dst, opts)

	if _, _, err := (Plain{}).Process(context.Background(), j); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "debug.o")); !os.IsNotExist(err) {
		t.Fatal("debug.o should have been ignored by suffix")
	}
	if _, err := os.Stat(filepath.Join(dst, "gen.generated.go")); !os.IsNotExist(err) {
		t.Fatal("gen.generated.go should have been ignored by glob")
	}
	if _, err := os.Stat(filepath.Join(dst, "keep.go")); err != nil {
		t.Fatal("keep.go should have been copied")
	}
}

func TestPlain_FinishReconcilesExtraneous(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.MkdirAll(dst, 0o755)
	os.WriteFile(filepath.Join(dst, "stale.txt"), []byte("x"), 0o644)

	opts := config.Default()
	opts.DeleteExtraneous = true
	j := newTestJob(t, src, dst, opts)

	if err := (Plain{}).Finish(context.Background(), j, job.DoneOutcome()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); !os.IsNotExist(err) {
		t.Fatal("stale.txt should have been removed by reconcile")
	}
}

func TestPlain_FinishLeavesExtraneousWhenDisabled(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.MkdirAll(dst, 0o755)
	os.WriteFile(filepath.Join(dst, "stale.txt"), []byte("x"), 0o644)

	j := newTestJob(t, src, dst, nil)
	if err := (Plain{}).Finish(context.Background(), j, job.DoneOutcome()); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); err != nil {
		t.Fatal("stale.txt should be left alone when delete_extraneous is off")
	}
}
