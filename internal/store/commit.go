package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive) IDs, and all FK references within the batch are rewritten
// using the fakeToReal mapping. It returns the real ID of the first
// buffered build, or 0 when the batch holds none.
//
// Insert order respects FK dependencies:
//  1. Builds
//  2. Modules (depend on build_id)
//  3. Bindings (depend on module_id)
//  4. Statements (depend on module_id)
func (s *Store) CommitBatch(batch *BatchedStore) (int64, error) {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)
	remap := func(id int64) (int64, error) {
		if id >= 0 {
			return id, nil
		}
		realID, ok := fakeToReal[id]
		if !ok {
			return 0, fmt.Errorf("id %d not in fakeToReal map", id)
		}
		return realID, nil
	}

	var firstBuild int64
	for _, b := range batch.Builds {
		realID, err := insertBuild(tx, &b)
		if err != nil {
			return 0, fmt.Errorf("commit batch: build %q: %w", b.Entry, err)
		}
		fakeToReal[b.ID] = realID
		if firstBuild == 0 {
			firstBuild = realID
		}
	}

	for _, m := range batch.Modules {
		if m.BuildID, err = remap(m.BuildID); err != nil {
			return 0, fmt.Errorf("commit batch: module %q: %w", m.Path, err)
		}
		realID, err := insertModule(tx, &m)
		if err != nil {
			return 0, fmt.Errorf("commit batch: module %q: %w", m.Path, err)
		}
		fakeToReal[m.ID] = realID
	}

	for _, b := range batch.Bindings {
		if b.ModuleID, err = remap(b.ModuleID); err != nil {
			return 0, fmt.Errorf("commit batch: binding %q: %w", b.LocalName, err)
		}
		realID, err := insertBinding(tx, &b)
		if err != nil {
			return 0, fmt.Errorf("commit batch: binding %q: %w", b.LocalName, err)
		}
		fakeToReal[b.ID] = realID
	}

	for _, st := range batch.Statements {
		if st.ModuleID, err = remap(st.ModuleID); err != nil {
			return 0, fmt.Errorf("commit batch: statement %d: %w", st.Ordinal, err)
		}
		realID, err := insertStatement(tx, &st)
		if err != nil {
			return 0, fmt.Errorf("commit batch: statement %d: %w", st.Ordinal, err)
		}
		fakeToReal[st.ID] = realID
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: commit: %w", err)
	}
	return firstBuild, nil
}
