package plugin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/risor-io/risor/object"

	"github.com/jward/treeshake/internal/syntax"
)

// makeStatementsFn creates the "statements" host function.
//
// statements(code) → [{kind, text, line}]
//
// It splits JavaScript source into its top-level statements so a plugin
// can rewrite a bundle statement by statement.
func makeStatementsFn() *object.Builtin {
	return object.NewBuiltin("statements", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("statements", 1, len(args))
		}

		code, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("statements: code must be a string, got %s", args[0].Type())
		}

		f, err := syntax.Parse(ctx, "<plugin>", []byte(code.Value()))
		if err != nil {
			return object.Errorf("statements: %v", err)
		}
		defer f.Close()

		results := []object.Object{}
		for _, n := range syntax.NamedChildren(f.Root) {
			if syntax.IsTrivia(n) {
				continue
			}
			results = append(results, object.NewMap(map[string]object.Object{
				"kind": object.NewString(n.Type()),
				"text": object.NewString(strings.TrimSpace(f.Text(n))),
				"line": object.NewInt(int64(n.StartPoint().Row) + 1),
			}))
		}
		return object.NewList(results)
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg)
}
