package store

import (
	"fmt"
	"sync"
)

// BatchedStore buffers manifest inserts in memory using fake (negative)
// IDs. It implements DataStore so the bundler can record a build without
// knowing whether it is hitting SQLite or an in-memory buffer. Nothing
// reaches the database until Store.CommitBatch.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	mu sync.Mutex

	Builds     []Build
	Modules    []Module
	Bindings   []Binding
	Statements []Statement

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertBuild(build *Build) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	build.ID = fakeID
	b.Builds = append(b.Builds, *build)
	return fakeID, nil
}

func (b *BatchedStore) InsertModule(m *Module) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	m.ID = fakeID
	b.Modules = append(b.Modules, *m)
	return fakeID, nil
}

func (b *BatchedStore) InsertBinding(bind *Binding) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	bind.ID = fakeID
	b.Bindings = append(b.Bindings, *bind)
	return fakeID, nil
}

func (b *BatchedStore) InsertStatement(st *Statement) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	st.ID = fakeID
	b.Statements = append(b.Statements, *st)
	return fakeID, nil
}

// FinishBuild updates the buffered copy of build.
func (b *BatchedStore) FinishBuild(build *Build) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Builds {
		if b.Builds[i].ID == build.ID {
			b.Builds[i].OutputHash = build.OutputHash
			b.Builds[i].StatementCount = build.StatementCount
			b.Builds[i].FinishedAt = build.FinishedAt
			return nil
		}
	}
	return fmt.Errorf("finish build: build %d not in batch", build.ID)
}

// Empty reports whether nothing has been buffered.
func (b *BatchedStore) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Builds)+len(b.Modules)+len(b.Bindings)+len(b.Statements) == 0
}
