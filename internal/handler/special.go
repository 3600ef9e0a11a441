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

// Yocto copies top-level content and recurses into subdirectories, with
// two carve-outs (downloads, build subtrees) gated by their own toggles.
// Once recognized, its subdirectories are never re-classified (§4.D).
type Yocto struct{}

var yoctoBuildDirs = map[string]bool{
	"build": true, "BUILD": true, "cache": true, "sstate-cache": true, "buildhistory": true,
}

func (Yocto) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	if j.Options.YoctoIgnore {
		if j.Options.DeleteExtraneous {
			if err := removeIfExists(j.Target); err != nil {
				return job.Outcome{}, err
			}
		}
		return job.SkippedOutcome("yocto_ignore set"), nil
	}
	srcInfo, err := os.Stat(j.Source)
	if err != nil {
		return job.Outcome{}, devsyncerr.New(devsyncerr.Classify, j.Source, err)
	}
	if err := fsutil.EnsureDir(j.Target, j.Options.PreserveAttrs, srcInfo); err != nil {
		return job.Outcome{}, err
	}
	return job.DoneOutcome(), nil
}

func (Yocto) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
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
			if name == "downloads" && !j.Options.YoctoDownloads {
				continue
			}
			if yoctoBuildDirs[name] && !j.Options.YoctoBuild {
				continue
			}
			children = append(children, &job.DirectoryJob{
				Source: srcPath, Target: dstPath, Depth: j.Depth + 1,
				Options: j.Options, Progress: j.Progress,
				Reclassify: false, Pinned: category.Plain,
			})
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

func (Yocto) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	return reconcileExtraneous(j)
}

// Sysroot is skipped by default; copied plainly (children pinned, not
// re-classified) when sysroot_sync is set (§4.D).
type Sysroot struct {
	plain Plain
}

func (s Sysroot) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	if !j.Options.SysrootSync {
		if j.Options.DeleteExtraneous {
			if err := removeIfExists(j.Target); err != nil {
				return job.Outcome{}, err
			}
		}
		return job.SkippedOutcome("sysroot_sync not set"), nil
	}
	return s.plain.Prepare(ctx, j)
}

func (s Sysroot) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
	outcome, children, err := s.plain.Process(ctx, j)
	for _, c := range children {
		c.Reclassify = false
		c.Pinned = category.Plain
	}
	return outcome, children, err
}

func (s Sysroot) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	return s.plain.Finish(ctx, j, outcome)
}

// Svn copies plainly by default; svn_ignore skips. Unlike Yocto/Sysroot,
// its subdirectories ARE re-classified (§4.D) — pre-existing build trees
// inside a checkout are still filtered by their own category.
type Svn struct {
	plain Plain
}

func (s Svn) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	if j.Options.SvnIgnore {
		if j.Options.DeleteExtraneous {
			if err := removeIfExists(j.Target); err != nil {
				return job.Outcome{}, err
			}
		}
		return job.SkippedOutcome("svn_ignore set"), nil
	}
	return s.plain.Prepare(ctx, j)
}

func (s Svn) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
	outcome, children, err := s.plain.Process(ctx, j)
	for _, c := range children {
		c.Reclassify = true
	}
	return outcome, children, err
}

func (s Svn) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	return s.plain.Finish(ctx, j, outcome)
}
