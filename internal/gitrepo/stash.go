package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// Stash is one entry of the atomic stash snapshot taken at handler start
// (§4.E.1). Stashes created concurrently with the run are not chased.
type Stash struct {
	Index   int
	Ref     string // e.g. "stash@{0}"
	OID     string
	Parent  string
	Message string
}

const stashFieldSep = "\x1f"

// listStashes enumerates the stash list as it stands right now — a
// snapshot, not a live view.
func listStashes(ctx context.Context, repoDir string) ([]Stash, error) {
	out, err := runGit(ctx, repoDir, "stash", "list",
		"--format=%gd"+stashFieldSep+"%H"+stashFieldSep+"%P"+stashFieldSep+"%gs")
	if err != nil {
		return nil, err
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil, nil
	}

	var stashes []Stash
	for i, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, stashFieldSep)
		if len(fields) != 4 {
			continue
		}
		parents := strings.Fields(fields[2])
		parent := ""
		if len(parents) > 0 {
			parent = parents[0]
		}
		stashes = append(stashes, Stash{
			Index:   i,
			Ref:     fields[0],
			OID:     fields[1],
			Parent:  parent,
			Message: fields[3],
		})
	}
	return stashes, nil
}

// writeStashes materializes each stash as a <n>.meta + <n>.patch pair
// under target/stashes/ (§6 "Persisted target layout").
func writeStashes(repoDir, target string, stashes []Stash) error {
	if len(stashes) == 0 {
		return nil
	}
	dir := filepath.Join(target, "stashes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return devsyncerr.New(devsyncerr.Io, dir, err)
	}

	for _, s := range stashes {
		metaPath := filepath.Join(dir, fmt.Sprintf("%d.meta", s.Index))
		meta := fmt.Sprintf("name: %s\noid: %s\nparent: %s\nmessage: %s\n", s.Ref, s.OID, s.Parent, s.Message)
		if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
			return devsyncerr.New(devsyncerr.Io, metaPath, err)
		}

		patch, err := diffBetween(context.Background(), repoDir, s.Parent, s.OID)
		if err != nil {
			return devsyncerr.New(devsyncerr.Vcs, s.Ref, err)
		}
		patchPath := filepath.Join(dir, fmt.Sprintf("%d.patch", s.Index))
		if err := os.WriteFile(patchPath, []byte(patch), 0o644); err != nil {
			return devsyncerr.New(devsyncerr.Io, patchPath, err)
		}
	}
	return nil
}

// runGit executes git with -C repoDir and the given args, returning stdout.
func runGit(ctx context.Context, repoDir string, args ...string) (string, error) {
	full := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

func diffBetween(ctx context.Context, repoDir, from, to string) (string, error) {
	if from == "" {
		return runGit(ctx, repoDir, "show", to)
	}
	return runGit(ctx, repoDir, "diff", from, to)
}
