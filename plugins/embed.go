// Package plugins holds the output plugins shipped with treeshake. They are
// used when no scripts directory is given.
package plugins

import "embed"

// FS holds the built-in Risor plugin scripts.
//
//go:embed *.risor
var FS embed.FS
