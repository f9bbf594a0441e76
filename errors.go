package treeshake

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEntry is returned by Rollup when Options.Entry is empty.
	ErrNoEntry = errors.New("treeshake: entry is required")
	// ErrNoOutput is returned by Rollup when Options.OutputFile is empty.
	ErrNoOutput = errors.New("treeshake: output file is required")
)

// UnresolvedExportError reports an import of a name the source module does
// not export.
type UnresolvedExportError struct {
	Module   string // path of the module that was expected to export Name
	Name     string
	Importer string // path of the importing module
}

func (e *UnresolvedExportError) Error() string {
	return fmt.Sprintf("module %s does not export %s (imported by %s)", e.Module, e.Name, e.Importer)
}

// UndefinedVariableError reports a free name that is neither defined in its
// module, imported, nor ambient.
type UndefinedVariableError struct {
	Name   string
	Module string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("variable '%s' is not defined in %s", e.Name, e.Module)
}

// UnsupportedSpecifierError reports an import specifier that is neither
// relative nor absolute.
type UnsupportedSpecifierError struct {
	Specifier string
	Importer  string
}

func (e *UnsupportedSpecifierError) Error() string {
	return fmt.Sprintf("cannot resolve %q imported by %s: only relative and absolute specifiers are supported", e.Specifier, e.Importer)
}

// UnsupportedSyntaxError reports a module construct the bundler does not
// handle, such as namespace imports or export-all.
type UnsupportedSyntaxError struct {
	Module    string
	Line      int
	Construct string
}

func (e *UnsupportedSyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s is not supported", e.Module, e.Line, e.Construct)
}

// CircularReexportError reports a chain of re-exports that leads back to
// itself. Chain lists "module:name" hops in the order they were followed.
type CircularReexportError struct {
	Chain []string
}

func (e *CircularReexportError) Error() string {
	return "circular re-export: " + strings.Join(e.Chain, " -> ")
}
