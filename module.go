package treeshake

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treeshake/internal/analyze"
	"github.com/jward/treeshake/internal/simplify"
	"github.com/jward/treeshake/internal/store"
	"github.com/jward/treeshake/internal/syntax"
)

// Statement is a top-level statement annotated by analysis.
type Statement = analyze.Statement

// ImportBinding maps a local name to an export of another module.
type ImportBinding struct {
	LocalName string
	Name      string // exported name in the source module
	Source    string // specifier as written
}

// ExportBinding maps an exported name to the local name backing it.
type ExportBinding struct {
	Name      string
	LocalName string
	Statement *Statement
}

// Module is one parsed and analysed source file of a bundle. A bundle holds
// exactly one Module per resolved path.
type Module struct {
	Path      string
	Hash      string // content hash of the source as read
	LineCount int

	Imports     map[string]*ImportBinding
	Exports     map[string]*ExportBinding
	Definitions map[string]*Statement
	Statements  []*Statement

	importOrder []string
	exportOrder []string

	file   *syntax.File
	bundle *Bundle
}

func newModule(ctx context.Context, b *Bundle, path string, src []byte) (*Module, error) {
	m := &Module{
		Path:        path,
		Hash:        store.ContentHash(src),
		LineCount:   bytes.Count(src, []byte("\n")) + 1,
		Imports:     make(map[string]*ImportBinding),
		Exports:     make(map[string]*ExportBinding),
		Definitions: make(map[string]*Statement),
		bundle:      b,
	}

	f, err := syntax.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if b.simplify {
		if out, changed := simplify.Source(f); changed {
			f.Close()
			if f, err = syntax.Parse(ctx, path, []byte(out)); err != nil {
				return nil, fmt.Errorf("simplify %s: %w", path, err)
			}
		}
	}
	m.file = f

	if err := m.analyse(); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// analyse fills the statement list and the import, export and definition
// tables.
func (m *Module) analyse() error {
	m.Statements = analyze.Analyse(m.file).Statements

	for _, st := range m.Statements {
		var err error
		switch st.Kind {
		case syntax.NodeImportStatement:
			err = m.collectImports(st)
		case syntax.NodeExportStatement:
			err = m.collectExports(st)
		}
		if err != nil {
			return err
		}
	}

	for _, st := range m.Statements {
		for _, name := range st.Defines.Slice() {
			m.Definitions[name] = st
		}
	}
	if exp, ok := m.Exports["default"]; ok && exp.LocalName == "default" {
		m.Definitions["default"] = exp.Statement
	}
	return nil
}

func (m *Module) collectImports(st *Statement) error {
	source := m.file.StringValue(st.Node.ChildByFieldName("source"))
	clause := syntax.ChildOfType(st.Node, syntax.NodeImportClause)
	for _, c := range syntax.NamedChildren(clause) {
		switch c.Type() {
		case syntax.NodeIdentifier:
			m.addImport(m.file.Text(c), "default", source)
		case syntax.NodeNamespaceImport:
			return &UnsupportedSyntaxError{Module: m.Path, Line: st.Line, Construct: "namespace import"}
		case syntax.NodeNamedImports:
			for _, spec := range syntax.NamedChildren(c) {
				if spec.Type() != syntax.NodeImportSpecifier {
					continue
				}
				name := m.moduleExportName(spec.ChildByFieldName("name"))
				local := name
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = m.file.Text(alias)
				}
				m.addImport(local, name, source)
			}
		}
	}
	return nil
}

func (m *Module) collectExports(st *Statement) error {
	n := st.Node
	sourceNode := n.ChildByFieldName("source")
	if syntax.HasChild(n, "*") || syntax.ChildOfType(n, "namespace_export") != nil {
		return &UnsupportedSyntaxError{Module: m.Path, Line: st.Line, Construct: "export *"}
	}

	if syntax.HasChild(n, syntax.NodeDefault) {
		local := "default"
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			if name := decl.ChildByFieldName("name"); name != nil {
				local = m.file.Text(name)
			}
		} else if value := n.ChildByFieldName("value"); value != nil && value.Type() == syntax.NodeIdentifier {
			local = m.file.Text(value)
		}
		m.addExport("default", local, st)
		return nil
	}

	if clause := syntax.ChildOfType(n, syntax.NodeExportClause); clause != nil {
		source := m.file.StringValue(sourceNode)
		for _, spec := range syntax.NamedChildren(clause) {
			if spec.Type() != syntax.NodeExportSpecifier {
				continue
			}
			local := m.moduleExportName(spec.ChildByFieldName("name"))
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = m.moduleExportName(alias)
			}
			m.addExport(exported, local, st)
			if sourceNode != nil {
				m.addImport(local, local, source)
			}
		}
		return nil
	}

	for _, name := range st.Defines.Slice() {
		m.addExport(name, name, st)
	}
	return nil
}

// moduleExportName returns the text of an identifier or the value of a
// string used as a module export name.
func (m *Module) moduleExportName(n *sitter.Node) string {
	if n != nil && n.Type() == syntax.NodeString {
		return m.file.StringValue(n)
	}
	return m.file.Text(n)
}

func (m *Module) addImport(local, name, source string) {
	if _, ok := m.Imports[local]; !ok {
		m.importOrder = append(m.importOrder, local)
	}
	m.Imports[local] = &ImportBinding{LocalName: local, Name: name, Source: source}
}

func (m *Module) addExport(name, local string, st *Statement) {
	if _, ok := m.Exports[name]; !ok {
		m.exportOrder = append(m.exportOrder, name)
	}
	m.Exports[name] = &ExportBinding{Name: name, LocalName: local, Statement: st}
}

// ExpandAllStatements returns the module's statements in emission order
// together with everything they transitively depend on, across modules.
// Import declarations and bare variable declarations are skipped as roots;
// they are only pulled in when another statement depends on them.
func (m *Module) ExpandAllStatements(ctx context.Context) ([]*Statement, error) {
	var out []*Statement
	for _, st := range m.Statements {
		if st.Kind == syntax.NodeImportStatement || syntax.IsVariableDeclaration(st.Node) {
			continue
		}
		if st.Included {
			continue
		}
		stmts, err := m.expandStatement(ctx, st)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

type expandFrame struct {
	mod  *Module
	st   *Statement
	next int // index of the next name in st.DependsOn to define
}

// expandStatement marks st included and returns its not yet included
// dependencies followed by st itself. Dependencies are visited depth first
// in DependsOn order, so every statement follows the statements it needs.
func (m *Module) expandStatement(ctx context.Context, st *Statement) ([]*Statement, error) {
	var out []*Statement
	m.bundle.markIncluded(st)
	stack := []expandFrame{{mod: m, st: st}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := top.st.DependsOn.Slice()
		if top.next == len(deps) {
			out = append(out, top.st)
			stack = stack[:len(stack)-1]
			continue
		}
		name := deps[top.next]
		top.next++

		mod, def, err := top.mod.define(ctx, name)
		if err != nil {
			return nil, err
		}
		if def == nil || def.Included {
			continue
		}
		m.bundle.markIncluded(def)
		stack = append(stack, expandFrame{mod: mod, st: def})
	}
	return out, nil
}

// define resolves name as seen from m to the statement defining it. Imports
// are followed through every re-export to the module that declares the
// binding. A nil statement with a nil error means name is ambient.
func (m *Module) define(ctx context.Context, name string) (*Module, *Statement, error) {
	mod := m
	var chain []string
	seen := make(map[string]bool)
	for {
		imp, ok := mod.Imports[name]
		if !ok {
			break
		}
		hop := mod.Path + ":" + name
		chain = append(chain, hop)
		if seen[hop] {
			return nil, nil, &CircularReexportError{Chain: chain}
		}
		seen[hop] = true

		src, err := mod.bundle.fetchModule(ctx, imp.Source, mod.Path)
		if err != nil {
			return nil, nil, err
		}
		exp, ok := src.Exports[imp.Name]
		if !ok {
			return nil, nil, &UnresolvedExportError{Module: src.Path, Name: imp.Name, Importer: mod.Path}
		}
		mod, name = src, exp.LocalName
	}

	if st, ok := mod.Definitions[name]; ok {
		return mod, st, nil
	}
	if mod.bundle.isAmbient(name) {
		return mod, nil, nil
	}
	return nil, nil, &UndefinedVariableError{Name: name, Module: mod.Path}
}

// emit returns the output text of an included statement: its source with
// any export wrapper removed. Export clauses and re-exports emit nothing.
func (m *Module) emit(st *Statement) string {
	if st.Kind != syntax.NodeExportStatement {
		return st.Source
	}
	decl := st.Declaration()
	if decl == nil || st.Node.ChildByFieldName("source") != nil {
		return ""
	}
	return strings.TrimSpace(string(m.file.Source[decl.StartByte():st.End]))
}

func (m *Module) close() {
	if m.file != nil {
		m.file.Close()
		m.file = nil
	}
}
