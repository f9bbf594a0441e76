// Package plugin runs Risor output transforms over a generated bundle.
//
// A plugin is a Risor script evaluated with the bundle text in the global
// code. The value of its final expression must be a string, which becomes
// the new bundle text. Plugins run in the order given, each seeing the
// previous one's output.
package plugin

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// Input is what a plugin sees of a finished bundle.
type Input struct {
	Code    string
	Entry   string
	Modules []string
}

// Runtime evaluates plugin scripts loaded from disk or an fs.FS.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithFS configures the Runtime to load scripts and Risor imports from fsys
// instead of from disk.
func WithFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes the scripts' log object to logger.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime that resolves relative script paths and
// imports against scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Transform runs the script at scriptPath over in and returns the new code.
func (r *Runtime) Transform(ctx context.Context, scriptPath string, in Input) (string, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return "", err
	}
	return r.eval(ctx, src, scriptPath, in)
}

// TransformSource runs Risor source directly over in.
func (r *Runtime) TransformSource(ctx context.Context, source string, in Input) (string, error) {
	return r.eval(ctx, source, "<inline>", in)
}

// Chain runs each script in order, feeding every output to the next.
func (r *Runtime) Chain(ctx context.Context, scripts []string, in Input) (string, error) {
	for _, path := range scripts {
		out, err := r.Transform(ctx, path, in)
		if err != nil {
			return "", err
		}
		in.Code = out
	}
	return in.Code, nil
}

func (r *Runtime) eval(ctx context.Context, source, label string, in Input) (string, error) {
	globals := r.buildGlobals(label, in)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return "", fmt.Errorf("plugin %s: %w", label, err)
	}
	s, ok := result.(*object.String)
	if !ok {
		return "", fmt.Errorf("plugin %s: result must be a string, got %s", label, typeName(result))
	}
	return s.Value(), nil
}

func typeName(obj object.Object) string {
	if obj == nil {
		return "nothing"
	}
	return string(obj.Type())
}

// buildImporter returns a Risor importer configured for the Runtime's script
// source, or nil if neither an fs.FS nor a scripts directory is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on it; otherwise reads from
// disk with scriptsDir as the base directory for relative paths.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("plugin: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("plugin: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the globals exposed to a plugin script.
func (r *Runtime) buildGlobals(label string, in Input) map[string]any {
	modules := make([]object.Object, len(in.Modules))
	for i, m := range in.Modules {
		modules[i] = object.NewString(m)
	}
	return map[string]any{
		"code":       object.NewString(in.Code),
		"entry":      object.NewString(in.Entry),
		"modules":    object.NewList(modules),
		"statements": makeStatementsFn(),
		"log":        mustProxy(&logObject{logger: r.logger.With("plugin", label)}),
	}
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("plugin: proxy error: %v", err))
	}
	return p
}
