package simplify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/treeshake/internal/syntax"
)

func simplifySource(t *testing.T, src string) (string, bool) {
	t.Helper()
	f, err := syntax.Parse(context.Background(), "test.js", []byte(src))
	require.NoError(t, err)
	defer f.Close()
	return Source(f)
}

func TestSource_Unchanged(t *testing.T) {
	t.Parallel()
	src := "if (flag) { run(); }\nconsole.log(1);\n"
	out, changed := simplifySource(t, src)
	assert.False(t, changed)
	assert.Equal(t, src, out)
}

func TestSource_LiteralConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "true takes consequence",
			src:  "a();\nif (true) { b(); }\nc();",
			want: "a();\nb();\nc();",
		},
		{
			name: "false without else is removed",
			src:  "a();\nif (false) { b(); }\nc();",
			want: "a();\n\nc();",
		},
		{
			name: "false takes else block",
			src:  "if (false) { b(); } else { d(); }",
			want: "d();",
		},
		{
			name: "zero is falsy",
			src:  "if (0) b(); else d();",
			want: "d();",
		},
		{
			name: "non-empty string is truthy",
			src:  "if ('yes') b(); else d();",
			want: "b();",
		},
		{
			name: "null and undefined are falsy",
			src:  "if (null) a();\nif (undefined) b();",
			want: "\n",
		},
		{
			name: "else if chain",
			src:  "if (false) a(); else if (true) b(); else c();",
			want: "b();",
		},
		{
			name: "nested literal inside taken branch",
			src:  "if (1) { x(); if (false) { y(); } }",
			want: "x();",
		},
		{
			name: "block with lexical declarations keeps braces",
			src:  "if (true) { let v = 1; use(v); }",
			want: "{ let v = 1; use(v); }",
		},
		{
			name: "inside function body",
			src:  "function f() {\n  if (false) { return 1; }\n  return 2;\n}",
			want: "function f() {\n  \n  return 2;\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, changed := simplifySource(t, tt.src)
			assert.True(t, changed)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSource_SingleStatementSlotsKeepBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "else if true",
			src:  "if (x) { a(); } else if (true) { b(); c(); }",
			want: "if (x) { a(); } else { b(); c(); }",
		},
		{
			name: "else if false",
			src:  "if (x) { a(); } else if (false) { b(); }",
			want: "if (x) { a(); } else {}",
		},
		{
			name: "else if false with else",
			src:  "if (x) a(); else if (0) b(); else c();",
			want: "if (x) a(); else { c(); }",
		},
		{
			name: "while body",
			src:  "while (x) if (true) { b(); c(); }",
			want: "while (x) { b(); c(); }",
		},
		{
			name: "for body",
			src:  "for (;;) if (false) b();",
			want: "for (;;) {}",
		},
		{
			name: "if consequence",
			src:  "if (x) if (1) b(); else c();",
			want: "if (x) { b(); }",
		},
		{
			name: "nested literal under label",
			src:  "outer: if (false) a(); else if (true) { b(); }",
			want: "outer: { b(); }",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, changed := simplifySource(t, tt.src)
			assert.True(t, changed)
			assert.Equal(t, tt.want, out)

			f, err := syntax.Parse(context.Background(), "out.js", []byte(out))
			require.NoError(t, err)
			f.Close()
		})
	}
}

func TestSource_UnreachableAfterReturn(t *testing.T) {
	t.Parallel()
	out, changed := simplifySource(t, `function f() {
  return 1;
  sideEffect();
  var keep;
  function hoisted() {}
}`)
	assert.True(t, changed)
	assert.Equal(t, "function f() {\n  return 1;\n  \n  var keep;\n  function hoisted() {}\n}", out)
}

func TestSource_ThrowEndsBlock(t *testing.T) {
	t.Parallel()
	out, changed := simplifySource(t, "function f() { throw err; log(); }")
	assert.True(t, changed)
	assert.Equal(t, "function f() { throw err;  }", out)
}

func TestLiteralTruth_NonLiteral(t *testing.T) {
	t.Parallel()
	f, err := syntax.Parse(context.Background(), "test.js", []byte("if (a && b) x();"))
	require.NoError(t, err)
	defer f.Close()

	ifStmt := syntax.NamedChildren(f.Root)[0]
	_, ok := LiteralTruth(f, ifStmt.ChildByFieldName("condition"))
	assert.False(t, ok)
}
