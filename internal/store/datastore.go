package store

// DataStore is the interface for recording a build manifest. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering until the build
// succeeds) implement this interface.
type DataStore interface {
	// Inserts: each returns the assigned ID.
	InsertBuild(b *Build) (int64, error)
	InsertModule(m *Module) (int64, error)
	InsertBinding(b *Binding) (int64, error)
	InsertStatement(st *Statement) (int64, error)

	// FinishBuild fills in the output columns of a recorded build.
	FinishBuild(b *Build) error
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
