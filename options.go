package treeshake

import (
	"io/fs"
	"log/slog"

	"github.com/jward/treeshake/internal/store"
)

// Options is the build invocation configuration accepted by Rollup.
type Options struct {
	// Entry is the path of the entry module. Required.
	Entry string
	// OutputFile is where the bundle is written. Required.
	OutputFile string
}

// Option configures a Bundle.
type Option func(*Bundle)

// WithLogger sets the logger for build events. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bundle) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithGlobals adds names to the ambient whitelist: free names that are
// always available and never need a defining statement.
func WithGlobals(names ...string) Option {
	return func(b *Bundle) {
		for _, name := range names {
			b.globals[name] = true
		}
	}
}

// WithSimplify controls literal-condition pruning before analysis. Enabled
// by default.
func WithSimplify(enabled bool) Option {
	return func(b *Bundle) {
		b.simplify = enabled
	}
}

// WithRecorder records a manifest of every successful Rollup into s. The
// manifest is buffered during the build and committed only after the output
// file has been written.
func WithRecorder(s *store.Store) Option {
	return func(b *Bundle) {
		b.recorder = s
	}
}

// WithPlugins runs the given Risor scripts over the generated code, in
// order. Relative paths resolve against dir; dir may be empty.
func WithPlugins(dir string, paths ...string) Option {
	return func(b *Bundle) {
		b.pluginsDir = dir
		b.plugins = append(b.plugins, paths...)
	}
}

// WithPluginFS loads plugin scripts and their imports from fsys instead of
// from disk. This enables embedding plugins via go:embed.
func WithPluginFS(fsys fs.FS) Option {
	return func(b *Bundle) {
		b.pluginFS = fsys
	}
}
