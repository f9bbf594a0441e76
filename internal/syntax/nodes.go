package syntax

import sitter "github.com/smacker/go-tree-sitter"

// Node types of the tree-sitter JavaScript grammar consumed by the bundler.
const (
	NodeProgram             = "program"
	NodeComment             = "comment"
	NodeHashBang            = "hash_bang_line"
	NodeEmptyStatement      = "empty_statement"
	NodeImportStatement     = "import_statement"
	NodeImportClause        = "import_clause"
	NodeNamedImports        = "named_imports"
	NodeNamespaceImport     = "namespace_import"
	NodeImportSpecifier     = "import_specifier"
	NodeExportStatement     = "export_statement"
	NodeExportClause        = "export_clause"
	NodeExportSpecifier     = "export_specifier"
	NodeDefault             = "default"
	NodeVariableDeclaration = "variable_declaration"
	NodeLexicalDeclaration  = "lexical_declaration"
	NodeVariableDeclarator  = "variable_declarator"
	NodeFunctionDeclaration = "function_declaration"
	NodeGeneratorFuncDecl   = "generator_function_declaration"
	NodeFunction            = "function"
	NodeFunctionExpression  = "function_expression"
	NodeGeneratorFunction   = "generator_function"
	NodeArrowFunction       = "arrow_function"
	NodeMethodDefinition    = "method_definition"
	NodeClassDeclaration    = "class_declaration"
	NodeClass               = "class"
	NodeStatementBlock      = "statement_block"
	NodeIfStatement         = "if_statement"
	NodeElseClause          = "else_clause"
	NodeForStatement        = "for_statement"
	NodeForInStatement      = "for_in_statement"
	NodeCatchClause         = "catch_clause"
	NodeSwitchBody          = "switch_body"
	NodeSwitchCase          = "switch_case"
	NodeSwitchDefault       = "switch_default"
	NodeReturnStatement     = "return_statement"
	NodeThrowStatement      = "throw_statement"
	NodeParenthesized       = "parenthesized_expression"
	NodeIdentifier          = "identifier"
	NodeShorthandProperty   = "shorthand_property_identifier"
	NodeShorthandPattern    = "shorthand_property_identifier_pattern"
	NodeObjectPattern       = "object_pattern"
	NodeArrayPattern        = "array_pattern"
	NodePairPattern         = "pair_pattern"
	NodeAssignmentPattern   = "assignment_pattern"
	NodeObjectAssignPattern = "object_assignment_pattern"
	NodeRestPattern         = "rest_pattern"
	NodeFormalParameters    = "formal_parameters"
	NodeMemberExpression    = "member_expression"
	NodeSubscriptExpression = "subscript_expression"
	NodeAssignment          = "assignment_expression"
	NodeAugmentedAssignment = "augmented_assignment_expression"
	NodeUpdateExpression    = "update_expression"
	NodeCallExpression      = "call_expression"
	NodeString              = "string"
	NodeStringFragment      = "string_fragment"
	NodeNumber              = "number"
	NodeTrue                = "true"
	NodeFalse               = "false"
	NodeNull                = "null"
	NodeUndefined           = "undefined"
)

// IsFunction reports whether n introduces a function scope.
func IsFunction(n *sitter.Node) bool {
	switch n.Type() {
	case NodeFunctionDeclaration, NodeGeneratorFuncDecl, NodeFunction,
		NodeFunctionExpression, NodeGeneratorFunction, NodeArrowFunction,
		NodeMethodDefinition:
		return true
	}
	return false
}

// IsFunctionDeclaration reports whether n is a (generator) function declaration.
func IsFunctionDeclaration(n *sitter.Node) bool {
	t := n.Type()
	return t == NodeFunctionDeclaration || t == NodeGeneratorFuncDecl
}

// IsVariableDeclaration reports whether n is a var, let or const declaration.
func IsVariableDeclaration(n *sitter.Node) bool {
	t := n.Type()
	return t == NodeVariableDeclaration || t == NodeLexicalDeclaration
}

// IsTrivia reports whether a program child carries no executable code.
func IsTrivia(n *sitter.Node) bool {
	switch n.Type() {
	case NodeComment, NodeHashBang, NodeEmptyStatement:
		return true
	}
	return false
}

// NamedChildren returns the named children of n, skipping comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == NodeComment {
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasChild reports whether n has a direct child (named or anonymous) of the
// given type.
func HasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// ChildOfType returns the first direct named child of n with the given type.
func ChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, c := range NamedChildren(n) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

// StringValue returns the contents of a string literal without its quotes.
func (f *File) StringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if frag := ChildOfType(n, NodeStringFragment); frag != nil {
		return f.Text(frag)
	}
	text := f.Text(n)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// Walk visits n and its descendants depth first. enter returning false skips
// the node's children; leave is called for every entered node whose
// children were visited or skipped.
func Walk(n *sitter.Node, enter func(*sitter.Node) bool, leave func(*sitter.Node)) {
	if n == nil {
		return
	}
	if enter(n) {
		for i := 0; i < int(n.ChildCount()); i++ {
			Walk(n.Child(i), enter, leave)
		}
	}
	if leave != nil {
		leave(n)
	}
}
