package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/henneberg-systemdesign/devsync/internal/logging"
	"github.com/henneberg-systemdesign/devsync/internal/orchestrator"
	"github.com/henneberg-systemdesign/devsync/internal/progress"
	"github.com/henneberg-systemdesign/devsync/internal/ui"
)

// confirmDeleteExtraneous gates a destructive run behind a single
// interactive prompt; non-interactive runs (no-ui, piped stdout, or
// --yes) proceed without asking.
func confirmDeleteExtraneous(target string) (bool, error) {
	ok := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("delete-extraneous will remove entries under %s with no source counterpart. Continue?", target),
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

var (
	flagDeleteExtraneous bool
	flagPreserveAttrs    bool
	flagOwnedOnly        bool
	flagIgnoreNames      []string
	flagJobs             int

	flagYoctoIgnore    bool
	flagYoctoDownloads bool
	flagYoctoBuild     bool
	flagSysrootSync    bool

	flagCargoSync   bool
	flagCMakeSync   bool
	flagFlutterSync bool
	flagMesonSync   bool
	flagNinjaSync   bool

	flagSvnIgnore bool

	flagGitIgnore          bool
	flagGitFull            bool
	flagGitIgnoreStashes   bool
	flagGitIgnoreUnstaged  bool
	flagGitIgnoreUntracked bool
	flagGitIgnoreUnpushed  bool

	flagExtraIgnore  []string
	flagCategoryFile string
	flagNoUI         bool
	flagYes          bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <source> <target>",
	Short: "Mirror source into target, applying each directory's backup strategy",
	Args:  cobra.ExactArgs(2),
	RunE:  runSync,
}

func init() {
	f := syncCmd.Flags()
	f.BoolVar(&flagDeleteExtraneous, "delete-extraneous", false, "remove target entries with no corresponding source entry")
	f.BoolVar(&flagPreserveAttrs, "preserve-attrs", false, "preserve mode and mtime on copy")
	f.BoolVar(&flagOwnedOnly, "owned-only", false, "skip files not owned by the current user instead of failing")
	f.StringSliceVar(&flagIgnoreNames, "ignore", nil, "entry name or suffix to always skip (repeatable)")
	f.IntVarP(&flagJobs, "jobs", "j", 0, "number of concurrent worker goroutines (default 10)")

	f.BoolVar(&flagYoctoIgnore, "yocto-ignore", false, "skip recognized Yocto build trees entirely")
	f.BoolVar(&flagYoctoDownloads, "yocto-downloads", false, "include the Yocto downloads/ cache")
	f.BoolVar(&flagYoctoBuild, "yocto-build", false, "include Yocto build/sstate-cache subtrees")
	f.BoolVar(&flagSysrootSync, "sysroot-sync", false, "copy recognized sysroot trees instead of skipping them")

	f.BoolVar(&flagCargoSync, "cargo-sync", false, "copy recognized Cargo target/ trees instead of skipping them")
	f.BoolVar(&flagCMakeSync, "cmake-sync", false, "copy recognized CMake build trees instead of skipping them")
	f.BoolVar(&flagFlutterSync, "flutter-sync", false, "copy recognized Flutter build trees instead of skipping them")
	f.BoolVar(&flagMesonSync, "meson-sync", false, "copy recognized Meson build trees instead of skipping them")
	f.BoolVar(&flagNinjaSync, "ninja-sync", false, "copy recognized Ninja build trees instead of skipping them")

	f.BoolVar(&flagSvnIgnore, "svn-ignore", false, "skip recognized SVN checkouts entirely")

	f.BoolVar(&flagGitIgnore, "git-ignore", false, "skip recognized Git repositories entirely")
	f.BoolVar(&flagGitFull, "git-full", false, "copy Git working trees in full instead of reducing to stashes/diffs/clone")
	f.BoolVar(&flagGitIgnoreStashes, "git-ignore-stashes", false, "don't extract stashes")
	f.BoolVar(&flagGitIgnoreUnstaged, "git-ignore-unstaged", false, "don't extract unstaged diffs")
	f.BoolVar(&flagGitIgnoreUntracked, "git-ignore-untracked", false, "don't copy untracked files")
	f.BoolVar(&flagGitIgnoreUnpushed, "git-ignore-unpushed", false, "don't bare-clone on branch divergence")

	f.StringSliceVar(&flagExtraIgnore, "extra-ignore", nil, "additional glob pattern to skip (repeatable)")
	f.StringVar(&flagCategoryFile, "category-overrides", "", "path to a .devsync-categories.yaml file")
	f.BoolVar(&flagNoUI, "no-ui", false, "disable the terminal progress UI and print plain progress lines to stdout instead")
	f.BoolVarP(&flagYes, "yes", "y", false, "skip the delete-extraneous confirmation prompt (for non-interactive/CI use)")
}

func runSync(cmd *cobra.Command, args []string) error {
	logging.Configure()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	source, target := args[0], args[1]
	cliFlags := collectFlags(cmd, source, target)

	interactive := !flagNoUI && isTerminal(os.Stdout)

	if flagDeleteExtraneous && interactive && !flagYes {
		ok, err := confirmDeleteExtraneous(target)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			cmdExit = orchestrator.ExitAborted
			return nil
		}
	}

	var sink progress.Sink
	var stopUI func()
	if interactive {
		uiSink := ui.NewSink()
		stopUI = ui.Run(uiSink)
		sink = uiSink
	} else {
		sink = logging.NewTerminalSink()
	}

	result, err := orchestrator.Run(ctx, orchestrator.RunInput{
		CLIFlags: cliFlags,
		Env:      os.Environ(),
		Sink:     sink,
	})

	if stopUI != nil {
		stopUI()
	}

	cmdExit = result.ExitCode
	if err != nil && result.ExitCode == orchestrator.ExitInvalid {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result orchestrator.Result) {
	snap := result.Snapshot
	fmt.Printf("discovered=%d completed=%d skipped=%d failed=%d\n",
		snap.Discovered, snap.Completed, snap.Skipped, snap.Failed)
}

// collectFlags builds the koanf-tagged flag map orchestrator.Run expects,
// including only flags the user actually set (Changed), so lower
// precedence layers (project config, session, env) aren't silently
// overridden by cobra's unset zero values.
func collectFlags(cmd *cobra.Command, source, target string) map[string]any {
	out := map[string]any{
		"source": source,
		"target": target,
	}
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("delete-extraneous") {
		out["delete_extraneous"] = flagDeleteExtraneous
	}
	if changed("preserve-attrs") {
		out["preserve_attrs"] = flagPreserveAttrs
	}
	if changed("owned-only") {
		out["owned_only"] = flagOwnedOnly
	}
	if changed("ignore") {
		out["ignore_names"] = flagIgnoreNames
	}
	if changed("jobs") {
		out["jobs"] = flagJobs
	}
	if changed("yocto-ignore") {
		out["yocto_ignore"] = flagYoctoIgnore
	}
	if changed("yocto-downloads") {
		out["yocto_downloads"] = flagYoctoDownloads
	}
	if changed("yocto-build") {
		out["yocto_build"] = flagYoctoBuild
	}
	if changed("sysroot-sync") {
		out["sysroot_sync"] = flagSysrootSync
	}
	if changed("cargo-sync") {
		out["cargo_sync"] = flagCargoSync
	}
	if changed("cmake-sync") {
		out["cmake_sync"] = flagCMakeSync
	}
	if changed("flutter-sync") {
		out["flutter_sync"] = flagFlutterSync
	}
	if changed("meson-sync") {
		out["meson_sync"] = flagMesonSync
	}
	if changed("ninja-sync") {
		out["ninja_sync"] = flagNinjaSync
	}
	if changed("svn-ignore") {
		out["svn_ignore"] = flagSvnIgnore
	}
	if changed("git-ignore") {
		out["git_ignore"] = flagGitIgnore
	}
	if changed("git-full") {
		out["git_full"] = flagGitFull
	}
	if changed("git-ignore-stashes") {
		out["git_ignore_stashes"] = flagGitIgnoreStashes
	}
	if changed("git-ignore-unstaged") {
		out["git_ignore_unstaged"] = flagGitIgnoreUnstaged
	}
	if changed("git-ignore-untracked") {
		out["git_ignore_untracked"] = flagGitIgnoreUntracked
	}
	if changed("git-ignore-unpushed") {
		out["git_ignore_unpushed"] = flagGitIgnoreUnpushed
	}
	if changed("extra-ignore") {
		out["extra_ignore"] = flagExtraIgnore
	}
	if changed("category-overrides") {
		out["category_overrides_file"] = flagCategoryFile
	}
	return out
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
