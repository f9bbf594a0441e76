package treeshake

import (
	"fmt"
	"slices"

	"github.com/jward/treeshake/internal/store"
)

// QueryBuilder provides a read API over a build manifest.
type QueryBuilder struct {
	store *store.Store
}

// OpenManifest opens (creating if needed) the manifest database at dbPath.
func OpenManifest(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("treeshake: open manifest: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("treeshake: migrate manifest: %w", err)
	}
	return s, nil
}

// NewQueryBuilder returns a QueryBuilder over s.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Pagination controls offset+limit paging on list results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) Normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// StatementResult is a recorded statement together with its module path.
type StatementResult struct {
	StatementRecord
	ModulePath string
}

// Builds lists recorded builds, newest first.
func (q *QueryBuilder) Builds(page Pagination) (*PagedResult[Build], error) {
	page = page.Normalize()
	total, err := q.store.CountBuilds()
	if err != nil {
		return nil, fmt.Errorf("builds: %w", err)
	}
	rows, err := q.store.Builds(page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("builds: %w", err)
	}
	items := make([]Build, 0, len(rows))
	for _, b := range rows {
		items = append(items, *b)
	}
	return &PagedResult[Build]{Items: items, TotalCount: total}, nil
}

// Build returns a build by ID, or nil if it does not exist.
func (q *QueryBuilder) Build(id int64) (*Build, error) {
	b, err := q.store.BuildByID(id)
	if err != nil {
		return nil, fmt.Errorf("build %d: %w", id, err)
	}
	return b, nil
}

// LatestBuild returns the most recent build, or nil if none is recorded.
func (q *QueryBuilder) LatestBuild() (*Build, error) {
	rows, err := q.store.Builds(1, 0)
	if err != nil {
		return nil, fmt.Errorf("latest build: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Modules returns the modules of a build in fetch order; the entry is first.
func (q *QueryBuilder) Modules(buildID int64) ([]*ModuleRecord, error) {
	mods, err := q.store.ModulesByBuild(buildID)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}
	return mods, nil
}

// Bindings returns the import and export bindings of a module.
func (q *QueryBuilder) Bindings(moduleID int64) ([]*Binding, error) {
	binds, err := q.store.BindingsByModule(moduleID)
	if err != nil {
		return nil, fmt.Errorf("bindings: %w", err)
	}
	return binds, nil
}

// Statements returns a module's statements in source order.
func (q *QueryBuilder) Statements(moduleID int64) ([]*StatementRecord, error) {
	stmts, err := q.store.StatementsByModule(moduleID)
	if err != nil {
		return nil, fmt.Errorf("statements: %w", err)
	}
	return stmts, nil
}

// IncludedStatements returns the statements emitted by a build, in output
// order.
func (q *QueryBuilder) IncludedStatements(buildID int64) ([]*StatementResult, error) {
	paths, err := q.modulePaths(buildID)
	if err != nil {
		return nil, fmt.Errorf("included statements: %w", err)
	}
	stmts, err := q.store.IncludedStatements(buildID)
	if err != nil {
		return nil, fmt.Errorf("included statements: %w", err)
	}
	return withPaths(stmts, paths), nil
}

// Dependents returns every statement of a build whose free names include
// name, whether or not it was emitted.
func (q *QueryBuilder) Dependents(buildID int64, name string) ([]*StatementResult, error) {
	paths, err := q.modulePaths(buildID)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	stmts, err := q.store.StatementsByBuild(buildID)
	if err != nil {
		return nil, fmt.Errorf("dependents: %w", err)
	}
	var matched []*StatementRecord
	for _, st := range stmts {
		if slices.Contains(st.DependsOn, name) {
			matched = append(matched, st)
		}
	}
	return withPaths(matched, paths), nil
}

func (q *QueryBuilder) modulePaths(buildID int64) (map[int64]string, error) {
	mods, err := q.store.ModulesByBuild(buildID)
	if err != nil {
		return nil, err
	}
	paths := make(map[int64]string, len(mods))
	for _, m := range mods {
		paths[m.ID] = m.Path
	}
	return paths, nil
}

func withPaths(stmts []*StatementRecord, paths map[int64]string) []*StatementResult {
	out := make([]*StatementResult, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, &StatementResult{StatementRecord: *st, ModulePath: paths[st.ModuleID]})
	}
	return out
}
