package cmd

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-cribo/cribo/pkg/types"
	"github.com/go-cribo/cribo/pkg/version"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "cribo",
	Short:   "cribo bundles a Python package into a single dependency-free module",
	Long:    "cribo follows first-party imports from an entry module, resolves import-\ntime cycles where possible, assigns collision-free names across every\nbundled module, and emits one flat Python file that behaves like the\noriginal package.",
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.SilenceErrors = true
}

// Execute runs the root command and exits with code 1 on error.
// ExitError is handled specially: its Code is used as the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		var exitErr *types.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
