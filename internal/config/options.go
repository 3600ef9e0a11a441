// Package config resolves SyncOptions, devsync's immutable run configuration,
// from defaults, the project config file, the session file, the environment
// and CLI flags, in that precedence order (lowest to highest).
package config

// SyncOptions is the fixed set of recognized configuration, §3. It is
// immutable from the moment a run starts: the orchestrator resolves one
// value and hands every job a pointer to it.
type SyncOptions struct {
	Source  string `koanf:"source"`
	Target  string `koanf:"target"`

	DeleteExtraneous bool `koanf:"delete_extraneous"`
	PreserveAttrs    bool `koanf:"preserve_attrs"`
	OwnedOnly        bool `koanf:"owned_only"`

	IgnoreNames []string `koanf:"ignore_names"`
	Jobs        int      `koanf:"jobs"`

	YoctoIgnore     bool `koanf:"yocto_ignore"`
	YoctoDownloads  bool `koanf:"yocto_downloads"`
	YoctoBuild      bool `koanf:"yocto_build"`
	SysrootSync     bool `koanf:"sysroot_sync"`

	CargoSync   bool `koanf:"cargo_sync"`
	CMakeSync   bool `koanf:"cmake_sync"`
	FlutterSync bool `koanf:"flutter_sync"`
	MesonSync   bool `koanf:"meson_sync"`
	NinjaSync   bool `koanf:"ninja_sync"`

	SvnIgnore bool `koanf:"svn_ignore"`

	GitIgnore          bool `koanf:"git_ignore"`
	GitFull            bool `koanf:"git_full"`
	GitIgnoreStashes   bool `koanf:"git_ignore_stashes"`
	GitIgnoreUnstaged  bool `koanf:"git_ignore_unstaged"`
	GitIgnoreUntracked bool `koanf:"git_ignore_untracked"`
	GitIgnoreUnpushed  bool `koanf:"git_ignore_unpushed"`

	// ExtraIgnoreGlobs is an additive, doublestar-matched exclude list read
	// from the project config file (SPEC_FULL.md domain stack); it is
	// independent of the suffix-matched IgnoreNames (§4.A) and never
	// overrides it.
	ExtraIgnoreGlobs []string `koanf:"extra_ignore"`

	// CategoryOverridesFile, when non-empty, points at a
	// .devsync-categories.yaml file the registry loads ahead of Plain.
	CategoryOverridesFile string `koanf:"category_overrides_file"`
}

// Default returns the built-in defaults layer: jobs=10, every category
// toggle off except the ones §4.D/§4.E specify default to "copy" (SVN).
func Default() *SyncOptions {
	return &SyncOptions{
		Jobs:      10,
		SvnIgnore: false, // SVN copies plainly by default
		GitIgnore: false, // Git handler runs by default
	}
}

// YoctoBuildDirNames are the build subtrees gated by YoctoBuild (§4.D).
var YoctoBuildDirNames = []string{"build", "BUILD", "cache", "sstate-cache", "buildhistory"}
