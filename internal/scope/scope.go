// Package scope implements the lexical binding chain used by the statement
// analyzer. Scopes live in an arena (Tree) and refer to their parent by
// index, so a scope never owns its parent and no cycles can form.
package scope

// ID identifies a scope within a Tree.
type ID int

// Root is the module top-level scope. It is created by NewTree and is never a
// block scope.
const Root ID = 0

// None is returned when no scope applies.
const None ID = -1

// Kind distinguishes function-like scopes from block scopes.
type Kind int

const (
	// Function scopes terminate var and function-declaration hoisting.
	Function Kind = iota
	// Block scopes hold only let, const and class bindings; hoisted
	// bindings pass through to the nearest enclosing function scope.
	Block
)

type record struct {
	parent ID
	kind   Kind
	names  map[string]struct{}
}

// Tree is an arena of scope records for one module.
type Tree struct {
	scopes []record
}

// NewTree returns a Tree holding only the root scope.
func NewTree() *Tree {
	t := &Tree{}
	t.scopes = append(t.scopes, record{parent: None, kind: Function, names: map[string]struct{}{}})
	return t
}

// New creates a child scope of parent seeded with the given names (function
// parameters, the name of a named function expression).
func (t *Tree) New(parent ID, kind Kind, names ...string) ID {
	r := record{parent: parent, kind: kind, names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		r.names[n] = struct{}{}
	}
	t.scopes = append(t.scopes, r)
	return ID(len(t.scopes) - 1)
}

// Len reports the number of scopes in the tree, including the root.
func (t *Tree) Len() int {
	return len(t.scopes)
}

// Parent returns the parent of id, or None for the root.
func (t *Tree) Parent(id ID) ID {
	return t.scopes[id].parent
}

// IsBlock reports whether id is a block scope.
func (t *Tree) IsBlock(id ID) bool {
	return t.scopes[id].kind == Block
}

// Add binds name starting at scope id and returns the scope that received
// the binding. Block declarations bind to id itself. Hoisting declarations
// skip block scopes until they reach a function scope. If hoisting runs off
// the top of the tree, Add is a no-op and returns None.
func (t *Tree) Add(id ID, name string, blockDecl bool) ID {
	for id != None {
		r := &t.scopes[id]
		if r.kind != Block || blockDecl {
			r.names[name] = struct{}{}
			return id
		}
		id = r.parent
	}
	return None
}

// Has reports whether id binds name directly.
func (t *Tree) Has(id ID, name string) bool {
	_, ok := t.scopes[id].names[name]
	return ok
}

// FindDefiningScope returns the nearest scope, starting at id and walking
// toward the root, that binds name.
func (t *Tree) FindDefiningScope(id ID, name string) (ID, bool) {
	for id != None {
		if _, ok := t.scopes[id].names[name]; ok {
			return id, true
		}
		id = t.scopes[id].parent
	}
	return None, false
}
