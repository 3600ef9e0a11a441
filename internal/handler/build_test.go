package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/job"
)

func TestBuild_DisabledSkipsWithoutCopying(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.WriteFile(filepath.Join(src, "CMakeCache.txt"), nil, 0o644)

	j := newTestJob(t, src, dst, nil)
	b := Build{Enabled: false}

	outcome, err := b.Prepare(context.Background(), j)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if outcome.Kind != job.Skipped {
		t.Fatalf("outcome = %+v, want Skipped", outcome)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("target should not have been created for a disabled build category")
	}
}

func TestBuild_DisabledReconcilesStaleTargetWhenDeleteExtraneous(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.MkdirAll(dst, 0o755)
	os.WriteFile(filepath.Join(dst, "leftover"), nil, 0o644)

	opts := config.Default()
	opts.DeleteExtraneous = true
	j := newTestJob(t, src, dst, opts)
	b := Build{Enabled: false}

	outcome, err := b.Prepare(context.Background(), j)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if outcome.Kind != job.Skipped {
		t.Fatalf("outcome = %+v, want Skipped", outcome)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("stale target should have been removed when delete_extraneous is set")
	}
}

func TestBuild_EnabledBehavesLikePlain(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	os.MkdirAll(src, 0o755)
	os.WriteFile(filepath.Join(src, "Cargo.toml"), []byte("x"), 0o644)

	j := newTestJob(t, src, dst, nil)
	b := Build{Enabled: true}

	if outcome, err := b.Prepare(context.Background(), j); err != nil || outcome.Kind != job.Done {
		t.Fatalf("Prepare = %+v, %v, want Done", outcome, err)
	}
	outcome, _, err := b.Process(context.Background(), j)
	if err != nil || outcome.Kind != job.Done {
		t.Fatalf("Process = %+v, %v, want Done", outcome, err)
	}
	if _, err := os.Stat(filepath.Join(dst, "Cargo.toml")); err != nil {
		t.Fatal("enabled build category should copy like Plain")
	}
}
