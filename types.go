package treeshake

import "github.com/jward/treeshake/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.
// These are Go type aliases (=) and need no conversion.

type Store = store.Store
type Build = store.Build
type ModuleRecord = store.Module
type Binding = store.Binding
type StatementRecord = store.Statement
