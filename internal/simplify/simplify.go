// Package simplify removes statically dead code from a module before
// analysis. It rewrites if statements whose condition is a literal into the
// branch that is always taken, and drops statements that follow an
// unconditional return or throw in the same block.
package simplify

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treeshake/internal/syntax"
)

// Source returns the text of f with dead branches removed, and whether
// anything changed. Text outside rewritten statements is kept verbatim.
func Source(f *syntax.File) (string, bool) {
	s := &simplifier{file: f}
	out := s.rewrite(f.Root)
	return out, s.changed
}

type simplifier struct {
	file    *syntax.File
	changed bool
}

// rewrite renders n with every dead branch below it removed.
func (s *simplifier) rewrite(n *sitter.Node) string {
	buf := syntax.NewBuffer(s.file.Source)
	s.collect(n, buf)
	return buf.Slice(int(n.StartByte()), int(n.EndByte()))
}

// collect records edits for the outermost rewritable nodes below n.
func (s *simplifier) collect(n *sitter.Node, buf *syntax.Buffer) {
	if n.Type() == syntax.NodeStatementBlock {
		s.pruneUnreachable(n, buf)
	}
	for _, c := range syntax.NamedChildren(n) {
		if c.Type() == syntax.NodeIfStatement {
			if taken, ok := literalBranch(s.file, c); ok {
				text := s.slotText(taken)
				if holdsStatementList(n) {
					text = s.branchText(taken)
				}
				if buf.Overwrite(int(c.StartByte()), int(c.EndByte()), text) == nil {
					s.changed = true
					continue
				}
			}
		}
		s.collect(c, buf)
	}
}

// pruneUnreachable removes statements of block that follow an unconditional
// return or throw. Function declarations and var declarations are hoisted
// and stay in place.
func (s *simplifier) pruneUnreachable(block *sitter.Node, buf *syntax.Buffer) {
	stmts := syntax.NamedChildren(block)
	for i, st := range stmts {
		if st.Type() != syntax.NodeReturnStatement && st.Type() != syntax.NodeThrowStatement {
			continue
		}
		for _, dead := range stmts[i+1:] {
			if syntax.IsFunctionDeclaration(dead) || dead.Type() == syntax.NodeVariableDeclaration {
				continue
			}
			if buf.Remove(int(dead.StartByte()), int(dead.EndByte())) == nil {
				s.changed = true
			}
		}
		return
	}
}

// branchText renders the statically taken branch. A nil branch renders as
// nothing. A block is unwrapped unless it declares block-scoped names.
func (s *simplifier) branchText(branch *sitter.Node) string {
	if branch == nil {
		return ""
	}
	if branch.Type() == syntax.NodeIfStatement {
		if taken, ok := literalBranch(s.file, branch); ok {
			return s.branchText(taken)
		}
	}
	text := s.rewrite(branch)
	if branch.Type() != syntax.NodeStatementBlock || declaresBlockScoped(branch) {
		return text
	}
	text = strings.TrimPrefix(text, "{")
	text = strings.TrimSuffix(text, "}")
	return strings.TrimSpace(text)
}

// slotText renders the taken branch for a position that holds exactly one
// statement, such as a loop body or an else clause. The result is always a
// block so statements of an unwrapped branch stay together.
func (s *simplifier) slotText(branch *sitter.Node) string {
	if branch == nil {
		return "{}"
	}
	if branch.Type() == syntax.NodeIfStatement {
		if taken, ok := literalBranch(s.file, branch); ok {
			return s.slotText(taken)
		}
	}
	text := s.rewrite(branch)
	if branch.Type() == syntax.NodeStatementBlock {
		return text
	}
	return "{ " + text + " }"
}

// holdsStatementList reports whether the children of n form a statement
// list, so a statement can be replaced by any number of statements.
func holdsStatementList(n *sitter.Node) bool {
	switch n.Type() {
	case syntax.NodeProgram, syntax.NodeStatementBlock,
		syntax.NodeSwitchCase, syntax.NodeSwitchDefault:
		return true
	}
	return false
}

// literalBranch returns the branch of an if statement selected by a literal
// condition. ok is false when the condition is not a literal.
func literalBranch(f *syntax.File, n *sitter.Node) (*sitter.Node, bool) {
	truthy, ok := LiteralTruth(f, n.ChildByFieldName("condition"))
	if !ok {
		return nil, false
	}
	if truthy {
		return n.ChildByFieldName("consequence"), true
	}
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		return nil, true
	}
	if alt.Type() == syntax.NodeElseClause {
		children := syntax.NamedChildren(alt)
		if len(children) == 0 {
			return nil, true
		}
		return children[0], true
	}
	return alt, true
}

// LiteralTruth evaluates the truthiness of a literal expression, looking
// through parentheses. ok is false for anything that is not a literal.
func LiteralTruth(f *syntax.File, n *sitter.Node) (truthy, ok bool) {
	for n != nil && n.Type() == syntax.NodeParenthesized {
		children := syntax.NamedChildren(n)
		if len(children) != 1 {
			return false, false
		}
		n = children[0]
	}
	if n == nil {
		return false, false
	}
	switch n.Type() {
	case syntax.NodeTrue:
		return true, true
	case syntax.NodeFalse, syntax.NodeNull, syntax.NodeUndefined:
		return false, true
	case syntax.NodeString:
		return f.StringValue(n) != "", true
	case syntax.NodeNumber:
		v, err := strconv.ParseFloat(strings.ReplaceAll(f.Text(n), "_", ""), 64)
		if err != nil {
			if i, ierr := strconv.ParseInt(strings.ReplaceAll(f.Text(n), "_", ""), 0, 64); ierr == nil {
				return i != 0, true
			}
			return false, false
		}
		return v != 0, true
	}
	return false, false
}

// declaresBlockScoped reports whether block directly declares names that
// would leak into the enclosing scope if its braces were removed.
func declaresBlockScoped(block *sitter.Node) bool {
	for _, c := range syntax.NamedChildren(block) {
		switch c.Type() {
		case syntax.NodeLexicalDeclaration, syntax.NodeClassDeclaration,
			syntax.NodeFunctionDeclaration, syntax.NodeGeneratorFuncDecl:
			return true
		}
	}
	return false
}
