// Package analyze annotates the top-level statements of a parsed module with
// the names each statement defines in module scope and the free names it
// depends on.
//
// Analysis runs two passes over every top-level statement. The first builds
// the scope tree and records bindings; the second replays the same scope
// discipline, reusing the scopes attached to nodes by the first pass, and
// resolves identifier references against them.
package analyze

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treeshake/internal/scope"
	"github.com/jward/treeshake/internal/syntax"
)

// Result is the output of Analyse.
type Result struct {
	Statements []*Statement
	Scopes     *scope.Tree
}

// nodeKey identifies a node across walks of the same tree.
type nodeKey struct {
	start, end uint32
	typ        string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), typ: n.Type()}
}

type analyzer struct {
	file    *syntax.File
	scopes  *scope.Tree
	cur     scope.ID
	scopeOf map[nodeKey]scope.ID
	// bindings holds the start offsets of identifiers in binding position.
	bindings map[uint32]bool
	stmt     *Statement
}

// Analyse builds scopes for f and returns its top-level statements annotated
// with Defines, DependsOn and Modifies. Comments and empty statements are
// not statements.
func Analyse(f *syntax.File) *Result {
	a := &analyzer{
		file:     f,
		scopes:   scope.NewTree(),
		cur:      scope.Root,
		scopeOf:  make(map[nodeKey]scope.ID),
		bindings: make(map[uint32]bool),
	}

	var stmts []*Statement
	for _, n := range syntax.NamedChildren(f.Root) {
		if syntax.IsTrivia(n) {
			continue
		}
		stmts = append(stmts, &Statement{
			Node:      n,
			Kind:      n.Type(),
			Index:     len(stmts),
			Module:    f.Path,
			Start:     n.StartByte(),
			End:       n.EndByte(),
			Line:      int(n.StartPoint().Row) + 1,
			Source:    strings.TrimSpace(f.Text(n)),
			Defines:   NewNames(),
			DependsOn: NewNames(),
			Modifies:  NewNames(),
		})
	}

	for _, s := range stmts {
		a.stmt = s
		syntax.Walk(s.Node, a.enterDeclare, a.leave)
	}
	for _, s := range stmts {
		a.stmt = s
		syntax.Walk(s.Node, a.enterResolve, a.leave)
	}
	a.stmt = nil

	return &Result{Statements: stmts, Scopes: a.scopes}
}

// push creates a scope for n, attaches it and makes it current.
func (a *analyzer) push(n *sitter.Node, kind scope.Kind, names ...string) {
	id := a.scopes.New(a.cur, kind, names...)
	a.scopeOf[keyOf(n)] = id
	a.cur = id
}

func (a *analyzer) leave(n *sitter.Node) {
	if _, ok := a.scopeOf[keyOf(n)]; ok {
		a.cur = a.scopes.Parent(a.cur)
	}
}

// declare binds every identifier of pattern in the current scope. A binding
// that lands in the module scope is a top-level definition of the statement
// being analysed.
func (a *analyzer) declare(pattern *sitter.Node, blockDecl bool) {
	for _, id := range bindingIdentifiers(pattern) {
		a.bindings[id.StartByte()] = true
		name := a.file.Text(id)
		if got := a.scopes.Add(a.cur, name, blockDecl); got == scope.Root {
			a.stmt.Defines.Add(name)
		}
	}
}

// seed marks the identifiers of pattern as binding sites and returns their
// names, for scopes created already holding them.
func (a *analyzer) seed(pattern *sitter.Node) []string {
	var names []string
	for _, id := range bindingIdentifiers(pattern) {
		a.bindings[id.StartByte()] = true
		names = append(names, a.file.Text(id))
	}
	return names
}

// enterDeclare is the first pass: it creates scopes and records bindings.
func (a *analyzer) enterDeclare(n *sitter.Node) bool {
	switch n.Type() {
	case syntax.NodeImportStatement:
		return false

	case syntax.NodeFunctionDeclaration, syntax.NodeGeneratorFuncDecl:
		if name := n.ChildByFieldName("name"); name != nil {
			a.declare(name, false)
		}
		a.push(n, scope.Function, a.seed(n.ChildByFieldName("parameters"))...)

	case syntax.NodeFunction, syntax.NodeFunctionExpression, syntax.NodeGeneratorFunction:
		params := a.seed(n.ChildByFieldName("parameters"))
		if name := n.ChildByFieldName("name"); name != nil {
			params = append(params, a.seed(name)...)
		}
		a.push(n, scope.Function, params...)

	case syntax.NodeArrowFunction:
		params := n.ChildByFieldName("parameters")
		if params == nil {
			params = n.ChildByFieldName("parameter")
		}
		a.push(n, scope.Function, a.seed(params)...)

	case syntax.NodeMethodDefinition:
		a.push(n, scope.Function, a.seed(n.ChildByFieldName("parameters"))...)

	case syntax.NodeClassDeclaration:
		if name := n.ChildByFieldName("name"); name != nil {
			a.declare(name, true)
		}

	case syntax.NodeClass:
		if name := n.ChildByFieldName("name"); name != nil {
			a.push(n, scope.Block, a.seed(name)...)
		}

	case syntax.NodeStatementBlock, syntax.NodeForStatement, syntax.NodeSwitchBody:
		a.push(n, scope.Block)

	case syntax.NodeForInStatement:
		a.push(n, scope.Block)
		if kind := forHeadKind(n); kind != "" {
			a.declare(n.ChildByFieldName("left"), kind != "var")
		}

	case syntax.NodeCatchClause:
		a.push(n, scope.Block, a.seed(n.ChildByFieldName("parameter"))...)

	case syntax.NodeVariableDeclaration, syntax.NodeLexicalDeclaration:
		blockDecl := false
		if n.Type() == syntax.NodeLexicalDeclaration {
			kind := n.ChildByFieldName("kind")
			blockDecl = kind == nil || kind.Type() != "var"
		}
		for _, d := range syntax.NamedChildren(n) {
			if d.Type() == syntax.NodeVariableDeclarator {
				a.declare(d.ChildByFieldName("name"), blockDecl)
			}
		}
	}
	return true
}

// enterResolve is the second pass: it restores the scopes created by the
// first pass and resolves references and write targets.
func (a *analyzer) enterResolve(n *sitter.Node) bool {
	if id, ok := a.scopeOf[keyOf(n)]; ok {
		a.cur = id
	}

	switch n.Type() {
	case syntax.NodeImportStatement:
		return false

	case syntax.NodeExportStatement:
		// Re-exports name bindings of another module, not of this one.
		if n.ChildByFieldName("source") != nil {
			return false
		}

	case syntax.NodeExportSpecifier:
		if name := n.ChildByFieldName("name"); name != nil && name.Type() == syntax.NodeIdentifier {
			a.reference(name)
		}
		return false

	case syntax.NodeIdentifier, syntax.NodeShorthandProperty, syntax.NodeShorthandPattern:
		if !a.bindings[n.StartByte()] {
			a.reference(n)
		}

	case syntax.NodeAssignment, syntax.NodeAugmentedAssignment:
		a.modifies(n.ChildByFieldName("left"))

	case syntax.NodeUpdateExpression:
		a.modifies(n.ChildByFieldName("argument"))

	case syntax.NodeCallExpression:
		for _, arg := range syntax.NamedChildren(n.ChildByFieldName("arguments")) {
			a.modifies(arg)
		}
	}
	return true
}

// reference records id as a dependency when no scope below the module scope
// binds it. Module-scope names are supplied by other top-level statements
// and so are dependencies as well.
func (a *analyzer) reference(id *sitter.Node) {
	name := a.file.Text(id)
	if def, ok := a.scopes.FindDefiningScope(a.cur, name); ok && def != scope.Root {
		return
	}
	a.stmt.DependsOn.Add(name)
}

func (a *analyzer) modifies(n *sitter.Node) {
	for n != nil {
		switch n.Type() {
		case syntax.NodeMemberExpression, syntax.NodeSubscriptExpression:
			n = n.ChildByFieldName("object")
			continue
		case syntax.NodeIdentifier:
			a.stmt.Modifies.Add(a.file.Text(n))
		}
		return
	}
}

// forHeadKind returns the declaration keyword of a for-in/of head, or "" when
// the head assigns to an existing target.
func forHeadKind(n *sitter.Node) string {
	if kind := n.ChildByFieldName("kind"); kind != nil {
		return kind.Type()
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		switch t := n.Child(i).Type(); t {
		case "var", "let", "const":
			return t
		case "in", "of":
			return ""
		}
	}
	return ""
}

// bindingIdentifiers returns the identifiers bound by a declaration target:
// a plain identifier, or the leaves of a destructuring or parameter pattern.
// Default values are not bindings.
func bindingIdentifiers(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case syntax.NodeIdentifier, syntax.NodeShorthandPattern:
		return []*sitter.Node{n}
	case syntax.NodeAssignmentPattern, syntax.NodeObjectAssignPattern:
		return bindingIdentifiers(n.ChildByFieldName("left"))
	case syntax.NodePairPattern:
		return bindingIdentifiers(n.ChildByFieldName("value"))
	case syntax.NodeObjectPattern, syntax.NodeArrayPattern, syntax.NodeRestPattern, syntax.NodeFormalParameters:
		var out []*sitter.Node
		for _, c := range syntax.NamedChildren(n) {
			out = append(out, bindingIdentifiers(c)...)
		}
		return out
	}
	return nil
}
