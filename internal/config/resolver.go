package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/providers/confmap"
	koanf "github.com/knadh/koanf/v2"
)

// Source identifies which resolution layer supplied a field's value.
type Source string

const (
	SourceDefault Source = "default"
	SourceProject Source = "project"
	SourceSession Source = "session"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// SourceMap tracks, per koanf key, the layer that last set it.
type SourceMap map[string]Source

// EnvPrefix is the prefix devsync reads layered overrides from.
const EnvPrefix = "DEVSYNC_"

// ResolveInput carries everything the five-layer pipeline needs to produce a
// final SyncOptions.
type ResolveInput struct {
	// ProjectConfigPath is the optional .devsync.toml at the source root.
	ProjectConfigPath string
	// SessionValues is the already-parsed .devsync.session content (see
	// internal/session); nil if the file didn't exist.
	SessionValues map[string]string
	// Env is the process environment, as os.Environ() (overridable in tests).
	Env []string
	// CLIFlags holds only the flags the user explicitly set on the command
	// line, keyed by koanf tag name ("source", "jobs", "git_ignore", ...).
	CLIFlags map[string]any
}

// Resolve runs the five-layer resolution pipeline from SPEC_FULL.md:
// defaults -> project config (TOML) -> session file -> environment ->
// CLI flags, highest precedence last.
func Resolve(in ResolveInput) (*SyncOptions, SourceMap, error) {
	k := koanf.New(".")
	sources := make(SourceMap)

	if err := layer(k, sources, SourceDefault, structToMap(Default())); err != nil {
		return nil, nil, fmt.Errorf("loading defaults: %w", err)
	}

	if in.ProjectConfigPath != "" {
		if m, ok, err := loadTOML(in.ProjectConfigPath); err != nil {
			return nil, nil, err
		} else if ok {
			if err := layer(k, sources, SourceProject, m); err != nil {
				return nil, nil, fmt.Errorf("applying project config: %w", err)
			}
		}
	}

	if len(in.SessionValues) > 0 {
		m := sessionMapToKoanf(in.SessionValues)
		if err := layer(k, sources, SourceSession, m); err != nil {
			return nil, nil, fmt.Errorf("applying session file: %w", err)
		}
	}

	if envMap := envOverrides(in.Env); len(envMap) > 0 {
		if err := layer(k, sources, SourceEnv, envMap); err != nil {
			return nil, nil, fmt.Errorf("applying environment: %w", err)
		}
	}

	if len(in.CLIFlags) > 0 {
		if err := layer(k, sources, SourceFlag, in.CLIFlags); err != nil {
			return nil, nil, fmt.Errorf("applying flags: %w", err)
		}
	}

	var opts SyncOptions
	if err := k.Unmarshal("", &opts); err != nil {
		return nil, nil, fmt.Errorf("unmarshaling resolved options: %w", err)
	}

	return &opts, sources, nil
}

func layer(k *koanf.Koanf, sources SourceMap, src Source, m map[string]any) error {
	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return err
	}
	for key := range m {
		sources[key] = src
	}
	return nil
}

func loadTOML(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading project config %s: %w", path, err)
	}
	var m map[string]any
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, false, fmt.Errorf("parsing project config %s: %w", path, err)
	}
	known := structToMap(Default())
	var unknown []string
	for key := range m {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		slog.Warn("unknown project config keys ignored", "path", path, "keys", strings.Join(unknown, ", "))
	}
	return m, true, nil
}

// envOverrides maps DEVSYNC_<KEY> environment variables onto koanf keys,
// e.g. DEVSYNC_JOBS=4 -> {"jobs": 4}. coerce turns list, int and boolean
// values into typed values as they are read.
func envOverrides(env []string) map[string]any {
	out := make(map[string]any)
	for _, kv := range env {
		name, val, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		out[key] = coerce(key, val)
	}
	return out
}

func coerce(key, val string) any {
	if key == "ignore_names" || key == "extra_ignore" {
		return splitList(val)
	}
	if key == "jobs" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		return val
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return val
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sessionMapToKoanf(session map[string]string) map[string]any {
	out := make(map[string]any, len(session))
	for k, v := range session {
		out[k] = coerce(k, v)
	}
	return out
}

// structToMap flattens a *SyncOptions into a koanf-compatible map via its
// `koanf` tags, mirroring Harvx's profileToFlatMap.
func structToMap(o *SyncOptions) map[string]any {
	return map[string]any{
		"source":                   o.Source,
		"target":                   o.Target,
		"delete_extraneous":        o.DeleteExtraneous,
		"preserve_attrs":           o.PreserveAttrs,
		"owned_only":               o.OwnedOnly,
		"ignore_names":             o.IgnoreNames,
		"jobs":                     o.Jobs,
		"yocto_ignore":             o.YoctoIgnore,
		"yocto_downloads":          o.YoctoDownloads,
		"yocto_build":              o.YoctoBuild,
		"sysroot_sync":             o.SysrootSync,
		"cargo_sync":               o.CargoSync,
		"cmake_sync":               o.CMakeSync,
		"flutter_sync":             o.FlutterSync,
		"meson_sync":               o.MesonSync,
		"ninja_sync":               o.NinjaSync,
		"svn_ignore":               o.SvnIgnore,
		"git_ignore":               o.GitIgnore,
		"git_full":                 o.GitFull,
		"git_ignore_stashes":       o.GitIgnoreStashes,
		"git_ignore_unstaged":      o.GitIgnoreUnstaged,
		"git_ignore_untracked":     o.GitIgnoreUntracked,
		"git_ignore_unpushed":      o.GitIgnoreUnpushed,
		"extra_ignore":             o.ExtraIgnoreGlobs,
		"category_overrides_file":  o.CategoryOverridesFile,
	}
}

// DefaultProjectConfigPath returns the conventional .devsync.toml path
// under root, for callers that don't want to hardcode the filename.
func DefaultProjectConfigPath(root string) string {
	return filepath.Join(root, ".devsync.toml")
}
