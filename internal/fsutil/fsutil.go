// Package fsutil implements the filesystem primitives every handler is
// built on (§4.A): attribute-preserving file copy, directory creation,
// tree removal and ignore-name matching.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/xxh3"

	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// CopyOptions configures a single CopyFile call.
type CopyOptions struct {
	PreserveAttrs bool
	// OwnedOnlyUID, when >= 0, causes entries not owned by this uid to be
	// skipped (not failed) — §4.A "owned_only".
	OwnedOnlyUID int
}

// CopyResult reports what CopyFile actually did, for progress/idempotence
// bookkeeping.
type CopyResult struct {
	Skipped       bool
	SkippedReason string
	Copied        bool
}

// CopyFile copies src to dst. When opts.PreserveAttrs is set the copy is
// atomic at file granularity (temp sibling + rename) and mode/mtime are
// carried over; otherwise a plain stream copy suffices (§4.A). When dst
// already exists with the same size, both files are hashed with xxh3 and
// the copy is skipped if they match — the fast path behind the §8
// idempotence property.
func CopyFile(src, dst string, opts CopyOptions) (CopyResult, error) {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return CopyResult{}, devsyncerr.New(devsyncerr.Io, src, err)
	}

	if opts.OwnedOnlyUID >= 0 {
		owned, err := isOwnedBy(srcInfo, opts.OwnedOnlyUID)
		if err != nil {
			return CopyResult{}, devsyncerr.New(devsyncerr.Permission, src, err)
		}
		if !owned {
			return CopyResult{Skipped: true, SkippedReason: "not owned by invoking user"}, nil
		}
	}

	if srcInfo.Mode()&os.ModeSymlink != 0 {
		return copySymlink(src, dst, srcInfo)
	}

	if dstInfo, err := os.Stat(dst); err == nil && dstInfo.Size() == srcInfo.Size() {
		same, err := contentsEqual(src, dst)
		if err == nil && same {
			return CopyResult{Skipped: true, SkippedReason: "unchanged"}, nil
		}
	}

	if opts.PreserveAttrs {
		if err := atomicCopy(src, dst, srcInfo); err != nil {
			return CopyResult{}, err
		}
	} else {
		if err := streamCopy(src, dst); err != nil {
			return CopyResult{}, err
		}
	}
	return CopyResult{Copied: true}, nil
}

func copySymlink(src, dst string, info os.FileInfo) (CopyResult, error) {
	target, err := os.Readlink(src)
	if err != nil {
		return CopyResult{}, devsyncerr.New(devsyncerr.Io, src, err)
	}
	os.Remove(dst)
	if err := os.Symlink(target, dst); err != nil {
		return CopyResult{}, devsyncerr.New(devsyncerr.Io, dst, err)
	}
	return CopyResult{Copied: true}, nil
}

func streamCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return devsyncerr.New(devsyncerr.Io, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	return nil
}

// atomicCopy writes to a temp sibling of dst then renames, so a reader
// never observes a partially-written target file, and preserves mode and
// modification time from src.
func atomicCopy(src, dst string, srcInfo os.FileInfo) error {
	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".devsync-tmp-*")
	if err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	in, err := os.Open(src)
	if err != nil {
		tmp.Close()
		return devsyncerr.New(devsyncerr.Io, src, err)
	}
	defer in.Close()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	if err := tmp.Close(); err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}

	if err := os.Chmod(tmpPath, srcInfo.Mode()); err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	if err := os.Chtimes(tmpPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return devsyncerr.New(devsyncerr.Io, dst, err)
	}
	return nil
}

func contentsEqual(a, b string) (bool, error) {
	ha, err := hashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := hashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// EnsureDir creates path (and parents) if missing. When preserve is set
// and srcInfo is non-nil, the new directory's mode is copied from srcInfo.
func EnsureDir(path string, preserve bool, srcInfo os.FileInfo) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return devsyncerr.New(devsyncerr.Io, path, err)
	}
	if preserve && srcInfo != nil {
		if err := os.Chmod(path, srcInfo.Mode()); err != nil {
			return devsyncerr.New(devsyncerr.Io, path, err)
		}
	}
	return nil
}

// RemoveTree deletes path and everything under it. Removing a path that
// does not exist is not an error.
func RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return devsyncerr.New(devsyncerr.Io, path, err)
	}
	return nil
}

// MatchesIgnore reports whether any pattern in patterns is a suffix of
// name (§4.A) — devsync's one, deliberately simple ignore rule.
func MatchesIgnore(name string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.HasSuffix(name, p) {
			return true
		}
	}
	return false
}

// MatchesExtraIgnoreGlob reports whether relPath (source-root-relative,
// slash-separated) matches any of the project's extra_ignore doublestar
// globs. This is additive to MatchesIgnore's suffix rule, never a
// replacement for it (SPEC_FULL.md domain stack).
func MatchesExtraIgnoreGlob(relPath string, globs []string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, g := range globs {
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
