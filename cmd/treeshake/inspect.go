package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jward/treeshake"
	"github.com/spf13/cobra"
)

var (
	flagLimit  int
	flagOffset int
	flagBuild  int64
	flagModule int64
	flagAll    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Query recorded build manifests",
	Long:  "Inspect builds recorded with 'treeshake build --record'. Line numbers are 1-based. Commands default to the latest build.",
}

func init() {
	inspectCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	inspectCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	inspectCmd.PersistentFlags().Int64Var(&flagBuild, "build", 0, "build ID (default: latest)")

	statementsCmd.Flags().Int64Var(&flagModule, "module", 0, "list every statement of one module")
	statementsCmd.Flags().BoolVar(&flagAll, "all", false, "include statements that were not emitted")

	inspectCmd.AddCommand(buildsCmd)
	inspectCmd.AddCommand(modulesCmd)
	inspectCmd.AddCommand(bindingsCmd)
	inspectCmd.AddCommand(statementsCmd)
	inspectCmd.AddCommand(dependentsCmd)
	inspectCmd.AddCommand(deleteCmd)
}

// --- Helpers ---

// openStore opens the manifest from the --db flag path (or default).
func openStore() (*treeshake.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	return openManifest(cwd, false)
}

// parseIDArg parses a positional argument as a positive row ID.
func parseIDArg(value, name string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	return n, nil
}

// resolveBuildID returns the --build flag value or the latest build's ID.
func resolveBuildID(qb *treeshake.QueryBuilder) (int64, error) {
	if flagBuild != 0 {
		b, err := qb.Build(flagBuild)
		if err != nil {
			return 0, err
		}
		if b == nil {
			return 0, fmt.Errorf("build %d not found", flagBuild)
		}
		return b.ID, nil
	}
	b, err := qb.LatestBuild()
	if err != nil {
		return 0, err
	}
	if b == nil {
		return 0, fmt.Errorf("no builds recorded")
	}
	return b.ID, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() treeshake.Pagination {
	return treeshake.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// page applies --limit and --offset to an unpaged list.
func page[T any](items []T) []T {
	p := buildPagination().Normalize()
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[p.Offset:]
	if p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// --- Commands ---

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List recorded builds, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBuilds,
}

func runBuilds(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("builds", err)
	}
	defer s.Close()

	res, err := treeshake.NewQueryBuilder(s).Builds(buildPagination())
	if err != nil {
		return outputError("builds", err)
	}
	out := make([]CLIBuild, 0, len(res.Items))
	for i := range res.Items {
		out = append(out, buildRecordToCLI(&res.Items[i]))
	}
	return outputResult(CLIResult{
		Command:    "builds",
		Results:    out,
		TotalCount: &res.TotalCount,
	})
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules fetched by a build, entry first",
	Args:  cobra.NoArgs,
	RunE:  runModules,
}

func runModules(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("modules", err)
	}
	defer s.Close()

	qb := treeshake.NewQueryBuilder(s)
	buildID, err := resolveBuildID(qb)
	if err != nil {
		return outputError("modules", err)
	}
	mods, err := qb.Modules(buildID)
	if err != nil {
		return outputError("modules", err)
	}
	out := make([]CLIModule, 0, len(mods))
	for _, m := range mods {
		out = append(out, moduleToCLI(m))
	}
	total := len(out)
	return outputResult(CLIResult{
		Command:    "modules",
		Results:    page(out),
		TotalCount: &total,
	})
}

var bindingsCmd = &cobra.Command{
	Use:   "bindings <module-id>",
	Short: "List the import and export bindings of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runBindings,
}

func runBindings(cmd *cobra.Command, args []string) error {
	moduleID, err := parseIDArg(args[0], "module-id")
	if err != nil {
		return outputError("bindings", err)
	}
	s, err := openStore()
	if err != nil {
		return outputError("bindings", err)
	}
	defer s.Close()

	binds, err := treeshake.NewQueryBuilder(s).Bindings(moduleID)
	if err != nil {
		return outputError("bindings", err)
	}
	out := make([]CLIBinding, 0, len(binds))
	for _, b := range binds {
		out = append(out, bindingToCLI(b))
	}
	total := len(out)
	return outputResult(CLIResult{
		Command:    "bindings",
		Results:    page(out),
		TotalCount: &total,
	})
}

var statementsCmd = &cobra.Command{
	Use:   "statements",
	Short: "List the statements a build emitted, in output order",
	Args:  cobra.NoArgs,
	RunE:  runStatements,
}

func runStatements(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("statements", err)
	}
	defer s.Close()
	qb := treeshake.NewQueryBuilder(s)

	var out []CLIStatement
	if flagModule != 0 {
		stmts, err := qb.Statements(flagModule)
		if err != nil {
			return outputError("statements", err)
		}
		for _, st := range stmts {
			if flagAll || st.Included {
				out = append(out, statementToCLI(st, ""))
			}
		}
	} else {
		buildID, err := resolveBuildID(qb)
		if err != nil {
			return outputError("statements", err)
		}
		stmts, err := qb.IncludedStatements(buildID)
		if err != nil {
			return outputError("statements", err)
		}
		for _, st := range stmts {
			out = append(out, statementToCLI(&st.StatementRecord, st.ModulePath))
		}
	}
	if out == nil {
		out = []CLIStatement{}
	}
	total := len(out)
	return outputResult(CLIResult{
		Command:    "statements",
		Results:    page(out),
		TotalCount: &total,
	})
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <name>",
	Short: "List the statements of a build that depend on a name",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func runDependents(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("dependents", err)
	}
	defer s.Close()

	qb := treeshake.NewQueryBuilder(s)
	buildID, err := resolveBuildID(qb)
	if err != nil {
		return outputError("dependents", err)
	}
	stmts, err := qb.Dependents(buildID, args[0])
	if err != nil {
		return outputError("dependents", err)
	}
	out := make([]CLIStatement, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, statementToCLI(&st.StatementRecord, st.ModulePath))
	}
	total := len(out)
	return outputResult(CLIResult{
		Command:    "dependents",
		Results:    page(out),
		TotalCount: &total,
	})
}

var deleteCmd = &cobra.Command{
	Use:   "delete <build-id>",
	Short: "Delete a recorded build and everything recorded with it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	buildID, err := parseIDArg(args[0], "build-id")
	if err != nil {
		return outputError("delete", err)
	}
	s, err := openStore()
	if err != nil {
		return outputError("delete", err)
	}
	defer s.Close()

	b, err := treeshake.NewQueryBuilder(s).Build(buildID)
	if err != nil {
		return outputError("delete", err)
	}
	if b == nil {
		return outputError("delete", fmt.Errorf("build %d not found", buildID))
	}
	if err := s.DeleteBuild(buildID); err != nil {
		return outputError("delete", err)
	}
	return outputResult(CLIResult{
		Command: "delete",
		Results: CLIDeleted{BuildID: buildID},
	})
}
