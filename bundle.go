package treeshake

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/treeshake/internal/plugin"
	"github.com/jward/treeshake/internal/store"
	"github.com/jward/treeshake/internal/syntax"
)

// ambientGlobals are free names that never need a defining statement.
var ambientGlobals = []string{
	"console", "log",
	"arguments", "undefined", "NaN", "Infinity", "globalThis",
	"Object", "Function", "Array", "String", "Number", "Boolean", "Symbol", "BigInt",
	"Math", "JSON", "Date", "RegExp", "Promise", "Proxy", "Reflect",
	"Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError",
	"Map", "Set", "WeakMap", "WeakSet",
	"parseInt", "parseFloat", "isNaN", "isFinite",
	"encodeURIComponent", "decodeURIComponent", "encodeURI", "decodeURI",
	"setTimeout", "clearTimeout", "setInterval", "clearInterval", "queueMicrotask",
	"window", "document", "process", "require", "module", "exports",
}

// Bundle owns the module graph of one build. It parses each module at most
// once and shares that instance between all importers. A Bundle is not safe
// for concurrent use.
type Bundle struct {
	entry string

	logger     *slog.Logger
	globals    map[string]bool
	simplify   bool
	recorder   *store.Store
	plugins    []string
	pluginsDir string
	pluginFS   fs.FS

	modules  map[string]*Module
	order    []*Module
	included []*Statement
}

// NewBundle creates a Bundle for the entry module at entry.
func NewBundle(entry string, opts ...Option) *Bundle {
	b := &Bundle{
		entry:    entry,
		logger:   slog.New(slog.DiscardHandler),
		globals:  make(map[string]bool, len(ambientGlobals)),
		simplify: true,
		modules:  make(map[string]*Module),
	}
	for _, name := range ambientGlobals {
		b.globals[name] = true
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close releases the syntax trees of every fetched module.
func (b *Bundle) Close() {
	for _, m := range b.order {
		m.close()
	}
}

// Modules returns the fetched modules in fetch order.
func (b *Bundle) Modules() []*Module {
	return b.order
}

// Module returns the module fetched for the resolved path, or nil.
func (b *Bundle) Module(path string) *Module {
	return b.modules[path]
}

// Included returns the statements selected by the last Build, in output
// order.
func (b *Bundle) Included() []*Statement {
	return b.included
}

// Build fetches the entry module, expands the statements it needs across the
// module graph and returns the generated code with output plugins applied.
// Any error anywhere in the graph aborts the build.
func (b *Bundle) Build(ctx context.Context) (string, error) {
	entry, err := b.fetchModule(ctx, b.entry, "")
	if err != nil {
		return "", err
	}
	stmts, err := entry.ExpandAllStatements(ctx)
	if err != nil {
		return "", err
	}
	b.included = stmts

	code := b.Generate()
	if len(b.plugins) > 0 {
		code, err = b.runPlugins(ctx, entry.Path, code)
		if err != nil {
			return "", err
		}
	}
	b.logger.Debug("build finished", "entry", entry.Path, "modules", len(b.order), "statements", len(stmts), "bytes", len(code))
	return code, nil
}

func (b *Bundle) runPlugins(ctx context.Context, entry, code string) (string, error) {
	opts := []plugin.RuntimeOption{plugin.WithLogger(b.logger)}
	if b.pluginFS != nil {
		opts = append(opts, plugin.WithFS(b.pluginFS))
	}
	rt := plugin.NewRuntime(b.pluginsDir, opts...)

	paths := make([]string, len(b.order))
	for i, m := range b.order {
		paths[i] = m.Path
	}
	out, err := rt.Chain(ctx, b.plugins, plugin.Input{Code: code, Entry: entry, Modules: paths})
	if err != nil {
		return "", fmt.Errorf("run plugins: %w", err)
	}
	return out, nil
}

// resolvePath maps an import specifier to an absolute module path. The
// entry (empty importer) is taken as-is; relative specifiers resolve against
// the importer's directory.
func resolvePath(specifier, importer string) (string, error) {
	var path string
	switch {
	case importer == "":
		abs, err := filepath.Abs(specifier)
		if err != nil {
			return "", fmt.Errorf("resolve entry %s: %w", specifier, err)
		}
		path = abs
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == "..":
		path = filepath.Join(filepath.Dir(importer), specifier)
	case filepath.IsAbs(specifier):
		path = filepath.Clean(specifier)
	default:
		return "", &UnsupportedSpecifierError{Specifier: specifier, Importer: importer}
	}
	return syntax.WithExt(path), nil
}

// fetchModule returns the module for specifier as imported by importer,
// reading and analysing it on first use.
func (b *Bundle) fetchModule(ctx context.Context, specifier, importer string) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := resolvePath(specifier, importer)
	if err != nil {
		return nil, err
	}
	if m, ok := b.modules[path]; ok {
		return m, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		if importer != "" {
			return nil, fmt.Errorf("read module %s (imported by %s): %w", path, importer, err)
		}
		return nil, fmt.Errorf("read module %s: %w", path, err)
	}
	m, err := newModule(ctx, b, path, src)
	if err != nil {
		return nil, err
	}
	b.modules[path] = m
	b.order = append(b.order, m)
	b.logger.Debug("module fetched", "path", path, "hash", m.Hash[:12], "statements", len(m.Statements))
	return m, nil
}

func (b *Bundle) markIncluded(st *Statement) {
	st.Included = true
	b.logger.Debug("statement included", "module", st.Module, "line", st.Line, "kind", st.Kind)
}

func (b *Bundle) isAmbient(name string) bool {
	return b.globals[name]
}

// Result describes a finished Rollup.
type Result struct {
	Code       string
	Entry      string
	Modules    []string
	Statements int
	// BuildID is the manifest row of the build, or 0 without a recorder.
	BuildID  int64
	Duration time.Duration
}

// Rollup builds opts.Entry and writes the bundle to opts.OutputFile. With a
// recorder configured, the build manifest is committed after the output file
// is written; a failed build writes neither.
func Rollup(ctx context.Context, opts Options, bundleOpts ...Option) (*Result, error) {
	if opts.Entry == "" {
		return nil, ErrNoEntry
	}
	if opts.OutputFile == "" {
		return nil, ErrNoOutput
	}

	start := time.Now()
	b := NewBundle(opts.Entry, bundleOpts...)
	defer b.Close()

	code, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("rollup %s: %w", opts.Entry, err)
	}

	var batch *store.BatchedStore
	if b.recorder != nil {
		batch = store.NewBatchedStore()
		if err := b.Record(batch, opts.OutputFile, code, start); err != nil {
			return nil, fmt.Errorf("rollup %s: record manifest: %w", opts.Entry, err)
		}
	}

	if dir := filepath.Dir(opts.OutputFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("rollup %s: create output dir: %w", opts.Entry, err)
		}
	}
	if err := os.WriteFile(opts.OutputFile, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("rollup %s: write output: %w", opts.Entry, err)
	}

	res := &Result{
		Code:       code,
		Entry:      b.order[0].Path,
		Statements: len(b.included),
	}
	for _, m := range b.order {
		res.Modules = append(res.Modules, m.Path)
	}
	if batch != nil {
		if res.BuildID, err = b.recorder.CommitBatch(batch); err != nil {
			return nil, fmt.Errorf("rollup %s: %w", opts.Entry, err)
		}
	}
	res.Duration = time.Since(start)
	return res, nil
}
