package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
	"github.com/henneberg-systemdesign/devsync/internal/fsutil"
)

// listUntracked returns every untracked file in the worktree, relative to
// repoDir, honoring the repository's own .gitignore hierarchy plus the
// caller's ignore_names (§4.E.2). git itself is asked for the raw
// untracked candidate set; ignoring is then reapplied with go-gitignore so
// nested .gitignore files are honored the same way whether or not the
// installed git binary's --exclude-standard matches devsync's own policy.
func listUntracked(ctx context.Context, repoDir string, ignoreNames []string) ([]string, error) {
	out, err := runGit(ctx, repoDir, "ls-files", "--others")
	if err != nil {
		return nil, err
	}
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return nil, nil
	}

	matcher := newGitignoreMatcher(repoDir)

	var result []string
	for _, rel := range strings.Split(out, "\n") {
		if rel == "" {
			continue
		}
		if matcher.isIgnored(rel) {
			continue
		}
		if fsutil.MatchesIgnore(filepath.Base(rel), ignoreNames) {
			continue
		}
		result = append(result, rel)
	}
	sort.Strings(result)
	return result, nil
}

// writeUntracked copies every listed path verbatim from repoDir into
// target/untracked/, preserving relative paths (§4.E.2).
func writeUntracked(repoDir, target string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	base := filepath.Join(target, "untracked")
	for _, rel := range paths {
		dst := filepath.Join(base, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return devsyncerr.New(devsyncerr.Io, dst, err)
		}
		if _, err := fsutil.CopyFile(filepath.Join(repoDir, rel), dst, fsutil.CopyOptions{OwnedOnlyUID: -1}); err != nil {
			return err
		}
	}
	return nil
}

// gitignoreMatcher compiles every .gitignore found under repoDir. A path
// is ignored when the .gitignore of its own directory or of any ancestor
// up to repoDir matches it; a negation in an inner file does not override
// a match in an outer one.
type gitignoreMatcher struct {
	root     string
	matchers map[string]*gitignore.GitIgnore
}

func newGitignoreMatcher(root string) *gitignoreMatcher {
	m := &gitignoreMatcher{root: root, matchers: make(map[string]*gitignore.GitIgnore)}
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || !info.IsDir() {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}
		gi := filepath.Join(path, ".gitignore")
		if _, statErr := os.Stat(gi); statErr == nil {
			if compiled, compileErr := gitignore.CompileIgnoreFile(gi); compileErr == nil {
				rel, _ := filepath.Rel(root, path)
				m.matchers[rel] = compiled
			}
		}
		return nil
	})
	return m
}

func (m *gitignoreMatcher) isIgnored(relPath string) bool {
	dir := filepath.Dir(relPath)
	for {
		if gi, ok := m.matchers[dir]; ok {
			target := relPath
			if dir != "." {
				if rel, err := filepath.Rel(dir, relPath); err == nil {
					target = rel
				}
			}
			if gi.MatchesPath(target) {
				return true
			}
		}
		if dir == "." {
			break
		}
		parent := filepath.Dir(dir)
		dir = parent
	}
	return false
}
