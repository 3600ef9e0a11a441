// Package gitrepo implements the Git handler (§4.E), the most intricate of
// devsync's category strategies: it extracts everything needed to
// reconstruct a repository's uncommitted state (stashes, untracked files,
// unstaged diffs) and, on branch divergence, produces a full bare clone.
//
// Stash enumeration, untracked listing and unstaged diff generation shell
// out to the git binary — go-git has no stash porcelain and its status/diff
// plumbing is a weaker match for this than the CLI (see DESIGN.md). Branch/
// upstream comparison and the bare clone itself use go-git directly.
package gitrepo

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/fsutil"
	"github.com/henneberg-systemdesign/devsync/internal/handler"
	"github.com/henneberg-systemdesign/devsync/internal/job"
)

// Snapshot groups the transient per-repository data of §3
// "GitWorkspaceSnapshot". Process does not fill one in: each of its
// concurrent steps gathers its own part and writes it directly.
type Snapshot struct {
	Stashes    []Stash
	Untracked  []string // paths relative to the worktree root
	Modified   []string // tracked paths with worktree or index modifications
	Divergent  bool
	DivergentBranches []string
}

// Handler is the Git category strategy (§4.E).
type Handler struct {
	plain handler.Plain
}

func New() Handler { return Handler{} }

func (h Handler) Prepare(ctx context.Context, j *job.DirectoryJob) (job.Outcome, error) {
	if j.Options.GitIgnore {
		return job.SkippedOutcome("git_ignore set"), nil
	}
	if j.Options.GitFull {
		return h.plain.Prepare(ctx, j)
	}

	// Git's deletion policy overrides delete_extraneous entirely (§4.E):
	// pre-existing target content is always wiped before writing, since
	// partial artifacts from a previous run would be misleading.
	if err := fsutil.RemoveTree(j.Target); err != nil {
		return job.Outcome{}, err
	}
	if err := os.MkdirAll(j.Target, 0o755); err != nil {
		return job.Outcome{}, devsyncerr.New(devsyncerr.Io, j.Target, err)
	}
	return job.DoneOutcome(), nil
}

func (h Handler) Process(ctx context.Context, j *job.DirectoryJob) (job.Outcome, []*job.DirectoryJob, error) {
	if j.Options.GitFull {
		outcome, children, err := h.plain.Process(ctx, j)
		for _, c := range children {
			c.Reclassify = true
		}
		return outcome, children, err
	}

	opts := j.Options

	// The four extraction steps read independent git state and write to
	// disjoint target paths, so they run concurrently under one errgroup;
	// the first failure cancels gctx, which stops the git commands run by
	// the stash listing, the untracked listing and the unstaged diffs. The
	// per-stash diffs, the divergence check and the bare clone do not
	// observe gctx and run to completion.
	g, gctx := errgroup.WithContext(ctx)

	if !opts.GitIgnoreStashes {
		g.Go(func() error {
			stashes, err := listStashes(gctx, j.Source)
			if err != nil {
				return devsyncerr.New(devsyncerr.Vcs, j.Source, err)
			}
			return writeStashes(j.Source, j.Target, stashes)
		})
	}

	if !opts.GitIgnoreUntracked {
		g.Go(func() error {
			files, err := listUntracked(gctx, j.Source, opts.IgnoreNames)
			if err != nil {
				return devsyncerr.New(devsyncerr.Vcs, j.Source, err)
			}
			return writeUntracked(j.Source, j.Target, files)
		})
	}

	if !opts.GitIgnoreUnstaged {
		g.Go(func() error {
			if err := writeUnstagedDiffs(gctx, j.Source, j.Target); err != nil {
				return devsyncerr.New(devsyncerr.Vcs, j.Source, err)
			}
			return nil
		})
	}

	if !opts.GitIgnoreUnpushed {
		g.Go(func() error {
			divergent, _, err := anyBranchDivergent(j.Source)
			if err != nil {
				return devsyncerr.New(devsyncerr.Vcs, j.Source, err)
			}
			if !divergent {
				return nil
			}
			if err := bareClone(j.Source, filepath.Join(j.Target, "repo")); err != nil {
				return devsyncerr.New(devsyncerr.Vcs, j.Source, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return job.FailedOutcome(err), nil, nil
	}

	// Category-terminal (§4.E): no children, the worktree is not walked as
	// ordinary files.
	return job.DoneOutcome(), nil, nil
}

func (h Handler) Finish(ctx context.Context, j *job.DirectoryJob, outcome job.Outcome) error {
	if j.Options.GitFull {
		return h.plain.Finish(ctx, j, outcome)
	}
	// delete_extraneous is ignored for Git (§4.E); Prepare already wiped
	// the target directory, so there is nothing left to reconcile.
	return nil
}
