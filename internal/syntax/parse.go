// Package syntax wraps tree-sitter for the bundler: parsing module source
// into a concrete syntax tree, reading node text, and splicing source text.
package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// File is one parsed module source. The tree must be released with Close.
type File struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
}

// ParseError reports the first syntax error tree-sitter recovered from.
// Lines and columns are 1-based.
type ParseError struct {
	Path string
	Line int
	Col  int
	Near string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error in %s at %d:%d near %q", e.Path, e.Line, e.Col, e.Near)
}

// Parse parses src as an ES module. Source that tree-sitter can only parse
// with error recovery is rejected with a *ParseError.
func Parse(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		perr := &ParseError{Path: path}
		if bad := firstError(root); bad != nil {
			pt := bad.StartPoint()
			perr.Line = int(pt.Row) + 1
			perr.Col = int(pt.Column) + 1
			perr.Near = clip(bad.Content(src), 20)
		}
		tree.Close()
		return nil, perr
	}
	return &File{Path: path, Source: src, Tree: tree, Root: root}, nil
}

// Close releases the underlying tree-sitter tree.
func (f *File) Close() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// Text returns the source text spanned by n.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(f.Source[n.StartByte():n.EndByte()])
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !c.HasError() && !c.IsMissing() {
			continue
		}
		if bad := firstError(c); bad != nil {
			return bad
		}
	}
	return nil
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
