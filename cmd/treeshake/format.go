package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatBuildsText formats CLIBuild results as aligned columns.
func formatBuildsText(w io.Writer, builds []CLIBuild) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENTRY\tOUTPUT\tSTATEMENTS\tDURATION")
	for _, b := range builds {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%dms\n",
			b.ID, b.Entry, b.OutputFile, b.StatementCount, b.DurationMS)
	}
	tw.Flush()
}

// formatBuildText formats a single finished build as readable text.
func formatBuildText(w io.Writer, b CLIBuild) {
	fmt.Fprintf(w, "Entry: %s\n", b.Entry)
	fmt.Fprintf(w, "Output: %s\n", b.OutputFile)
	if b.ID != 0 {
		fmt.Fprintf(w, "Build: %d\n", b.ID)
	}
	fmt.Fprintf(w, "Statements: %d\n", b.StatementCount)
	if len(b.Modules) > 0 {
		fmt.Fprintln(w, "Modules:")
		for _, m := range b.Modules {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
}

// formatModulesText formats CLIModule results as aligned columns.
func formatModulesText(w io.Writer, mods []CLIModule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLINES\tHASH")
	for _, m := range mods {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", m.ID, m.Path, m.LineCount, shortHash(m.Hash))
	}
	tw.Flush()
}

// formatBindingsText formats CLIBinding results as aligned columns.
func formatBindingsText(w io.Writer, binds []CLIBinding) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tLOCAL\tEXPORTED\tSOURCE")
	for _, b := range binds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Kind, b.LocalName, b.ExportedName, b.Source)
	}
	tw.Flush()
}

// formatStatementsText formats CLIStatement results as aligned columns.
func formatStatementsText(w io.Writer, stmts []CLIStatement) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tMODULE\tLINE\tKIND\tDEFINES\tDEPENDS ON")
	for _, st := range stmts {
		order := "-"
		if st.OutputOrder != nil {
			order = fmt.Sprint(*st.OutputOrder)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			order, st.Module, st.Line, st.Kind,
			strings.Join(st.Defines, ","), strings.Join(st.DependsOn, ","))
	}
	tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIBuild:
		formatBuildsText(w, v)
	case CLIBuild:
		formatBuildText(w, v)
	case []CLIModule:
		formatModulesText(w, v)
	case []CLIBinding:
		formatBindingsText(w, v)
	case []CLIStatement:
		formatStatementsText(w, v)
	case CLIDeleted:
		fmt.Fprintf(w, "Deleted build %d\n", v.BuildID)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIBuild:
		return len(r)
	case []CLIModule:
		return len(r)
	case []CLIBinding:
		return len(r)
	case []CLIStatement:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
