package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-cribo/cribo/internal/bundler"
	"github.com/go-cribo/cribo/internal/classify"
	"github.com/go-cribo/cribo/internal/config"
	"github.com/go-cribo/cribo/internal/fsys"
)

var (
	configPath string
	entryFlag  string
	outputPath string
	jsonDiag   bool
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <entry-module>",
	Short: "Bundle a Python entry module and its first-party dependencies",
	Long: `Bundle follows first-party imports from the given entry module (a dotted
module name or a .py path) and writes a single, flattened Python file to
stdout or --output.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot resolve working directory: %w", err)
		}

		projectCfg, err := config.LoadProjectConfig(dir, configPath)
		if err != nil {
			return fmt.Errorf("load project config: %w", err)
		}

		entry := entryFlag
		if len(args) == 1 {
			entry = args[0]
		}
		roots := []string{"."}
		output := outputPath
		if projectCfg != nil {
			roots = projectCfg.ResolveSrcRoots(dir)
			if entry == "" {
				entry = projectCfg.Entry
			}
			if output == "" {
				output = projectCfg.Output
			}
		}
		if entry == "" {
			return fmt.Errorf("entry module required: pass it as an argument, --entry, or \"entry\" in .cribo.yml")
		}

		classifier := classify.NewDefault(fsys.NewOS(), roots)
		if projectCfg != nil {
			for _, hint := range projectCfg.Classify.FirstParty {
				classifier.AddFirstPartyHint(hint)
			}
			for _, hint := range projectCfg.Classify.ThirdParty {
				classifier.AddThirdPartyHint(hint)
			}
		}

		spinner := bundler.NewSpinner(os.Stderr)
		onProgress := func(stage, detail string) {
			spinner.Update(detail)
		}
		spinner.Start("Bundling...")
		started := time.Now()

		result, err := bundler.Bundle(bundler.Options{
			SrcRoots:   roots,
			Entry:      entry,
			Classifier: classifier,
			OnProgress: onProgress,
		})
		if err != nil {
			spinner.Stop("")
			return err
		}
		spinner.Stop("Done.")

		if jsonDiag {
			if data, jerr := result.Diag.JSON(); jerr == nil {
				fmt.Fprintln(os.Stderr, string(data))
			}
		} else {
			warn := color.New(color.FgYellow)
			for _, d := range result.Diag.Items {
				warn.Fprintf(os.Stderr, "warning: %s\n", d.Error())
			}
		}
		fmt.Fprintf(os.Stderr, "Bundled %d modules (%s) in %s\n",
			result.Modules,
			humanize.Bytes(uint64(len(result.Source))),
			time.Since(started).Round(time.Millisecond))

		if output == "" {
			_, err := cmd.OutOrStdout().Write(result.Source)
			return err
		}
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(output, result.Source, 0o644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bundled %s\n", output)
		return nil
	},
}

func init() {
	bundleCmd.Flags().StringVar(&configPath, "config", "", "path to .cribo.yml project config file")
	bundleCmd.Flags().StringVar(&entryFlag, "entry", "", "entry module (dotted name or path); overrides .cribo.yml")
	bundleCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (defaults to stdout)")
	bundleCmd.Flags().BoolVar(&jsonDiag, "json", false, "emit diagnostics as JSON on stderr")
	rootCmd.AddCommand(bundleCmd)
}
