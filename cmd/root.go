// Package cmd implements the devsync command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/henneberg-systemdesign/devsync/internal/orchestrator"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "devsync",
	Short:   "Back up developer working directories, skipping or reducing what's reproducible",
	Version: Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}

// cmdExit is read by Execute after rootCmd.Execute returns, since cobra's
// own error path always implies exit code 1 and devsync needs the
// exit code taxonomy from §6 (0/1/2/3).
var cmdExit = orchestrator.ExitOK

// osExit is a variable so tests can override it.
var osExit = os.Exit

// Execute runs the root command and exits with devsync's own exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if cmdExit == orchestrator.ExitOK {
			cmdExit = orchestrator.ExitInvalid
		}
	}
	osExit(cmdExit)
}
