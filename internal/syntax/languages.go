package syntax

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// DefaultExt is appended to module specifiers that carry no script extension.
const DefaultExt = ".js"

// scriptExts lists the file extensions parsed with the JavaScript grammar.
var scriptExts = map[string]bool{
	".js":  true,
	".mjs": true,
	".jsx": true,
}

// grammar is lazily initialized on first use via sync.Once.
var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

// Grammar returns the tree-sitter JavaScript language.
func Grammar() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = javascript.GetLanguage()
	})
	return grammar
}

// IsScript reports whether path has a recognized script extension.
// The check is case insensitive.
func IsScript(path string) bool {
	return scriptExts[strings.ToLower(filepath.Ext(path))]
}

// WithExt returns path with DefaultExt appended unless it already ends in a
// script extension.
func WithExt(path string) string {
	if IsScript(path) {
		return path
	}
	return path + DefaultExt
}
