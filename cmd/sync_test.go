package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// newSyncFlagsForTest builds a fresh *cobra.Command with the same flags as
// syncCmd, bound to the same package-level vars collectFlags reads, but with
// its own pflag.FlagSet so each test starts from a clean "changed" state.
func newSyncFlagsForTest() *cobra.Command {
	c := &cobra.Command{Use: "sync"}
	f := c.Flags()
	f.BoolVar(&flagDeleteExtraneous, "delete-extraneous", false, "")
	f.BoolVar(&flagPreserveAttrs, "preserve-attrs", false, "")
	f.BoolVar(&flagOwnedOnly, "owned-only", false, "")
	f.StringSliceVar(&flagIgnoreNames, "ignore", nil, "")
	f.IntVarP(&flagJobs, "jobs", "j", 0, "")
	f.BoolVar(&flagYoctoIgnore, "yocto-ignore", false, "")
	f.BoolVar(&flagYoctoDownloads, "yocto-downloads", false, "")
	f.BoolVar(&flagYoctoBuild, "yocto-build", false, "")
	f.BoolVar(&flagSysrootSync, "sysroot-sync", false, "")
	f.BoolVar(&flagCargoSync, "cargo-sync", false, "")
	f.BoolVar(&flagCMakeSync, "cmake-sync", false, "")
	f.BoolVar(&flagFlutterSync, "flutter-sync", false, "")
	f.BoolVar(&flagMesonSync, "meson-sync", false, "")
	f.BoolVar(&flagNinjaSync, "ninja-sync", false, "")
	f.BoolVar(&flagSvnIgnore, "svn-ignore", false, "")
	f.BoolVar(&flagGitIgnore, "git-ignore", false, "")
	f.BoolVar(&flagGitFull, "git-full", false, "")
	f.BoolVar(&flagGitIgnoreStashes, "git-ignore-stashes", false, "")
	f.BoolVar(&flagGitIgnoreUnstaged, "git-ignore-unstaged", false, "")
	f.BoolVar(&flagGitIgnoreUntracked, "git-ignore-untracked", false, "")
	f.BoolVar(&flagGitIgnoreUnpushed, "git-ignore-unpushed", false, "")
	f.StringSliceVar(&flagExtraIgnore, "extra-ignore", nil, "")
	f.StringVar(&flagCategoryFile, "category-overrides", "", "")
	f.BoolVar(&flagNoUI, "no-ui", false, "")
	f.BoolVarP(&flagYes, "yes", "y", false, "")
	return c
}

func TestCollectFlags_OnlyIncludesExplicitlySetFlags(t *testing.T) {
	cmd := newSyncFlagsForTest()
	if err := cmd.Flags().Parse([]string{"--jobs", "4", "--cargo-sync"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := collectFlags(cmd, "/src", "/dst")
	if out["jobs"] != 4 {
		t.Fatalf("jobs = %v, want 4", out["jobs"])
	}
	if out["cargo_sync"] != true {
		t.Fatalf("cargo_sync = %v, want true", out["cargo_sync"])
	}
	if _, present := out["cmake_sync"]; present {
		t.Fatal("cmake_sync should be absent: the flag was never set on the command line")
	}
	if _, present := out["delete_extraneous"]; present {
		t.Fatal("delete_extraneous should be absent: the flag was never set")
	}
	if out["source"] != "/src" || out["target"] != "/dst" {
		t.Fatalf("source/target = %v/%v, want /src//dst", out["source"], out["target"])
	}
}

func TestCollectFlags_NoFlagsSetYieldsOnlySourceAndTarget(t *testing.T) {
	cmd := newSyncFlagsForTest()
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := collectFlags(cmd, "/src", "/dst")
	if len(out) != 2 {
		t.Fatalf("collectFlags with no flags set = %v, want only source+target", out)
	}
}

func TestCollectFlags_IgnoreNamesSliceFlag(t *testing.T) {
	cmd := newSyncFlagsForTest()
	if err := cmd.Flags().Parse([]string{"--ignore", ".o", "--ignore", "~"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out := collectFlags(cmd, "/src", "/dst")
	names, ok := out["ignore_names"].([]string)
	if !ok || len(names) != 2 {
		t.Fatalf("ignore_names = %v, want two entries", out["ignore_names"])
	}
}

func TestIsTerminal_RegularFileIsNotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "plain.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if isTerminal(f) {
		t.Fatal("a regular file should not be reported as a terminal")
	}
}
