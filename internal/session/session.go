// Package session implements the .devsync.session file: a textual record
// of the SyncOptions used on the most recent run, written at the target
// root (§6).
package session

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/henneberg-systemdesign/devsync/internal/config"
	"github.com/henneberg-systemdesign/devsync/internal/devsyncerr"
)

// FileName is the session file's fixed name at the target root.
const FileName = ".devsync.session"

// Load reads key=value pairs from path. Missing files are not an error —
// the caller gets a nil map, meaning "no session yet". Unknown keys are
// logged and ignored per §6.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, devsyncerr.New(devsyncerr.Config, path, err)
	}
	defer f.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("ignoring malformed session line", "path", path, "line", line)
			continue
		}
		key = strings.TrimSpace(key)
		if !knownKeys[key] {
			slog.Warn("ignoring unknown session key", "path", path, "key", key)
			continue
		}
		values[key] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, devsyncerr.New(devsyncerr.Config, path, err)
	}
	return values, nil
}

// Save writes the effective SyncOptions to path, one option per line,
// list values comma-separated.
func Save(path string, opts *config.SyncOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return devsyncerr.New(devsyncerr.Io, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	pairs := toPairs(opts)
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s=%s\n", k, pairs[k])
	}
	return w.Flush()
}

func toPairs(o *config.SyncOptions) map[string]string {
	b := func(v bool) string { return strconv.FormatBool(v) }
	return map[string]string{
		"source":               o.Source,
		"target":               o.Target,
		"delete_extraneous":    b(o.DeleteExtraneous),
		"preserve_attrs":       b(o.PreserveAttrs),
		"owned_only":           b(o.OwnedOnly),
		"ignore_names":         strings.Join(o.IgnoreNames, ","),
		"jobs":                 strconv.Itoa(o.Jobs),
		"yocto_ignore":         b(o.YoctoIgnore),
		"yocto_downloads":      b(o.YoctoDownloads),
		"yocto_build":          b(o.YoctoBuild),
		"sysroot_sync":         b(o.SysrootSync),
		"cargo_sync":           b(o.CargoSync),
		"cmake_sync":           b(o.CMakeSync),
		"flutter_sync":         b(o.FlutterSync),
		"meson_sync":           b(o.MesonSync),
		"ninja_sync":           b(o.NinjaSync),
		"svn_ignore":           b(o.SvnIgnore),
		"git_ignore":           b(o.GitIgnore),
		"git_full":             b(o.GitFull),
		"git_ignore_stashes":   b(o.GitIgnoreStashes),
		"git_ignore_unstaged":  b(o.GitIgnoreUnstaged),
		"git_ignore_untracked": b(o.GitIgnoreUntracked),
		"git_ignore_unpushed":  b(o.GitIgnoreUnpushed),
	}
}

var knownKeys = func() map[string]bool {
	m := make(map[string]bool)
	for k := range toPairs(config.Default()) {
		m[k] = true
	}
	return m
}()
