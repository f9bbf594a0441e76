// Package treeshake bundles a graph of JavaScript modules linked by static
// import and export declarations into one file that contains only the
// top-level statements the entry module transitively needs.
//
// # Pipeline
//
// A build runs in three steps:
//
//  1. Fetch: starting at the entry, each module is read once, optionally
//     simplified (if statements with literal conditions are replaced by
//     the branch that is always taken), parsed with tree-sitter and
//     analysed. Analysis records, for every top-level statement, the names
//     it defines in module scope and the free names it depends on.
//
//  2. Expand: every executable top-level statement of the entry is
//     included together with the statements defining the names it depends
//     on. Imported names are followed through export tables, including
//     re-exports, to the module that declares them. Each statement is
//     emitted at most once and always after the statements it depends on.
//
//  3. Generate: the included statements are concatenated with their import
//     and export syntax removed, then passed through any output plugins.
//
// # Usage
//
//	res, err := treeshake.Rollup(ctx, treeshake.Options{
//		Entry:      "src/main.js",
//		OutputFile: "dist/bundle.js",
//	})
//
// Use [WithRecorder] to keep a manifest of each build in SQLite and
// [QueryBuilder] to inspect it: which modules were fetched, which
// statements were emitted, and which statements depend on a name.
//
// # Plugins
//
// Output plugins are Risor scripts. Each receives the generated code in
// the global code and must evaluate to the replacement string. See the
// internal/plugin package for the globals exposed to scripts.
package treeshake
