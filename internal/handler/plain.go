// Package handler implements the Plain, Build and Special category
// strategies (§4.D) — every handler except Git, which lives in
// internal/gitrepo because of its size and its git-library dependency.
package handler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/henneberg-systemdesign/devsync/internal/category"
	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/fsutil"
	"github.com/henneberg-systemdesign/devsync/internal/job"
)

// Plain is the only handler that continues category scanning into
// subdirectories unconditionally: it copies every immediate file and
// enqueues every immediate subdirectory as a child job (§4.D).
type Plain struct{}

func (Plain) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	srcInfo, err := os.Stat(j.Source)
	if err != nil {
		return job.Outcome{}, devsyncerr.New(devsyncerr.Classify, j.Source, err)
	}
	if err := fsutil.EnsureDir(j.Target, j.Options.PreserveAttrs, srcInfo); err != nil {
		return job.Outcome{}, err
	}
	return job.DoneOutcome(), nil
}

func (Plain) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
	entries, err := os.ReadDir(j.Source)
	if err != nil {
		return job.Outcome{}, nil, devsyncerr.New(devsyncerr.Classify, j.Source, err)
	}

	var children []*job.DirectoryJob
	uid := -1
	if j.Options.OwnedOnly {
		uid = fsutil.CurrentUID()
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return job.AbortedOutcome(), children, nil
		}
		name := e.Name()
		if fsutil.MatchesIgnore(name, j.Options.IgnoreNames) {
			continue
		}
		srcPath := filepath.Join(j.Source, name)
		dstPath := filepath.Join(j.Target, name)

		if rel, err := filepath.Rel(j.Options.Source, srcPath); err == nil &&
			fsutil.MatchesExtraIgnoreGlob(rel, j.Options.ExtraIgnoreGlobs) {
			continue
		}

		if e.IsDir() {
			children = append(children, childJob(j, srcPath, dstPath))
			continue
		}

		if _, err := fsutil.CopyFile(srcPath, dstPath, fsutil.CopyOptions{
			PreserveAttrs: j.Options.PreserveAttrs,
			OwnedOnlyUID:  uid,
		}); err != nil {
			return job.FailedOutcome(err), children, nil
		}
	}
	return job.DoneOutcome(), children, nil
}

func (Plain) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	return reconcileExtraneous(j)
}

// childJob builds the child DirectoryJob for name under j, propagating
// whether descendants keep re-classifying (§4.D) — a plain directory
// reached through ordinary classification re-classifies its children;
// one reached as the pinned interior of a terminal category (Yocto,
// Sysroot) keeps its descendants pinned Plain forever.
func childJob(j *job.DirectoryJob, src, dst string) *job.DirectoryJob {
	return &job.DirectoryJob{
		Source:     src,
		Target:     dst,
		Depth:      j.Depth + 1,
		Options:    j.Options,
		Progress:   j.Progress,
		Reclassify: j.Reclassify,
		Pinned:     category.Plain,
	}
}

// reconcileExtraneous removes target entries whose source counterpart no
// longer exists, when delete_extraneous is set (§4.C "finish").
// Disabled-category skips do not call it: their skip paths in
// build.go/special.go remove the skipped directory's whole target via
// removeIfExists instead.
func reconcileExtraneous(j *job.DirectoryJob) error {
	if !j.Options.DeleteExtraneous {
		return nil
	}
	srcNames, err := listNames(j.Source)
	if err != nil {
		return nil // source unreadable is reported elsewhere; don't fail Finish for it
	}
	targetEntries, err := os.ReadDir(j.Target)
	if err != nil {
		return nil
	}
	for _, te := range targetEntries {
		if !srcNames[te.Name()] {
			if err := fsutil.RemoveTree(filepath.Join(j.Target, te.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func listNames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names, nil
}
