package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/treeshake"
	"github.com/jward/treeshake/plugins"
	"github.com/spf13/cobra"
)

var (
	flagDB     string
	flagFormat string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "treeshake",
	Short:         "Tree-shaking bundler for JavaScript modules",
	Long:          "Treeshake follows static imports from an entry module and writes one file containing only the top-level statements the entry needs.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "manifest database path (default: .treeshake/manifest.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
}

var (
	flagOutput     string
	flagRecord     bool
	flagPlugins    []string
	flagScriptsDir string
	flagGlobals    []string
	flagNoSimplify bool
	flagStdout     bool
	flagVerbose    bool
)

var buildCmd = &cobra.Command{
	Use:   "build <entry>",
	Short: "Bundle an entry module",
	Long:  "Fetches the entry and every module it imports, keeps the statements the entry depends on and writes them in dependency order.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file")
	buildCmd.Flags().BoolVar(&flagRecord, "record", false, "record a build manifest in the database")
	buildCmd.Flags().StringArrayVar(&flagPlugins, "plugin", nil, "output plugin script to run (repeatable, runs in order)")
	buildCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load plugins from disk path instead of embedded")
	buildCmd.Flags().StringArrayVar(&flagGlobals, "global", nil, "extra ambient global name (repeatable)")
	buildCmd.Flags().BoolVar(&flagNoSimplify, "no-simplify", false, "keep if statements with literal conditions")
	buildCmd.Flags().BoolVar(&flagStdout, "stdout", false, "write the bundle to stdout instead of a file")
	buildCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log build events to stderr")
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := checkBuildFlags(flagOutput, flagStdout, flagRecord); err != nil {
		return outputError("build", err)
	}

	entry, err := filepath.Abs(args[0])
	if err != nil {
		return outputError("build", fmt.Errorf("resolving entry %q: %w", args[0], err))
	}

	opts := buildOptions()
	if flagRecord {
		s, err := openManifest(filepath.Dir(entry), true)
		if err != nil {
			return outputError("build", err)
		}
		defer s.Close()
		opts = append(opts, treeshake.WithRecorder(s))
	}

	ctx := context.Background()

	if flagStdout {
		b := treeshake.NewBundle(entry, opts...)
		defer b.Close()
		code, err := b.Build(ctx)
		if err != nil {
			return outputError("build", err)
		}
		fmt.Fprintln(os.Stdout, code)
		return nil
	}

	res, err := treeshake.Rollup(ctx, treeshake.Options{Entry: entry, OutputFile: flagOutput}, opts...)
	if err != nil {
		return outputError("build", err)
	}

	fmt.Fprintf(os.Stderr, "Bundled %s in %s (%d modules, %d statements)\n",
		res.Entry, res.Duration.Round(time.Millisecond), len(res.Modules), res.Statements)

	return outputResult(CLIResult{
		Command: "build",
		Results: buildToCLI(res, flagOutput),
	})
}

// checkBuildFlags rejects flag combinations runBuild cannot honour.
// Only builds written to a file are recorded.
func checkBuildFlags(output string, stdout, record bool) error {
	if stdout && record {
		return fmt.Errorf("--record cannot be combined with --stdout")
	}
	if !stdout && output == "" {
		return fmt.Errorf("an output file is required (use -o or --stdout)")
	}
	return nil
}

// buildOptions maps the build flags to bundle options.
func buildOptions() []treeshake.Option {
	var opts []treeshake.Option
	if flagVerbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, treeshake.WithLogger(logger))
	}
	if len(flagGlobals) > 0 {
		opts = append(opts, treeshake.WithGlobals(flagGlobals...))
	}
	if flagNoSimplify {
		opts = append(opts, treeshake.WithSimplify(false))
	}
	if len(flagPlugins) > 0 {
		// Plugin source: --scripts-dir overrides embedded FS.
		opts = append(opts, treeshake.WithPlugins(flagScriptsDir, flagPlugins...))
		if flagScriptsDir == "" {
			opts = append(opts, treeshake.WithPluginFS(plugins.FS))
		}
	}
	return opts
}

// openManifest opens the manifest database. With create unset, a missing
// database is an error.
func openManifest(startDir string, create bool) (*treeshake.Store, error) {
	dbPath := resolveDBPath(findRepoRoot(startDir))
	if !create {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s (run 'treeshake build --record' first)", dbPath)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	return treeshake.OpenManifest(dbPath)
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".treeshake", "manifest.db")
}
