package analyze

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/treeshake/internal/syntax"
)

// Statement is a top-level statement of a module together with the facts the
// analyzer derived for it. Defines, DependsOn and Modifies are computed once
// by Analyse; Included flips from false to true at most once, when the
// closure walk first emits the statement.
type Statement struct {
	Node  *sitter.Node
	Kind  string
	Index int

	// Module is the resolved path of the owning module.
	Module string

	Start, End uint32
	Line       int
	Source     string

	// Defines holds names this statement binds in the module scope.
	Defines *Names
	// DependsOn holds free names referenced anywhere in the statement, in
	// order of first reference.
	DependsOn *Names
	// Modifies holds roots of assignment, update and call-argument targets.
	// It is informational and does not drive inclusion.
	Modifies *Names

	Included bool
}

// Declaration returns the node wrapped by an export statement: its
// declaration, or the value of a default export. It returns nil for export
// clauses and for statements that are not exports.
func (s *Statement) Declaration() *sitter.Node {
	if s.Node.Type() != syntax.NodeExportStatement {
		return nil
	}
	if d := s.Node.ChildByFieldName("declaration"); d != nil {
		return d
	}
	return s.Node.ChildByFieldName("value")
}
