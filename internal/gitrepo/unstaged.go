package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// writeUnstagedDiffs writes one unified diff per tracked file with worktree
// or index modifications, against HEAD (§4.E.3). Deletions and renames are
// recorded in the same diff stream `git diff` already produces.
func writeUnstagedDiffs(ctx context.Context, repoDir, target string) error {
	out, err := runGit(ctx, repoDir, "diff", "--name-only", "HEAD")
	if err != nil {
		return err
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil
	}

	base := filepath.Join(target, "unstaged")
	for _, rel := range strings.Split(out, "\n") {
		if rel == "" {
			continue
		}
		diff, err := runGit(ctx, repoDir, "diff", "HEAD", "--", rel)
		if err != nil {
			return err
		}
		dst := filepath.Join(base, rel+".diff")
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return devsyncerr.New(devsyncerr.Io, dst, err)
		}
		if err := os.WriteFile(dst, []byte(diff), 0o644); err != nil {
			return devsyncerr.New(devsyncerr.Io, dst, err)
		}
	}
	return nil
}
