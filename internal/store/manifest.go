package store

import (
	"database/sql"
	"fmt"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func lastID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// --- Build operations ---

func (s *Store) InsertBuild(b *Build) (int64, error) {
	id, err := insertBuild(s.db, b)
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

func insertBuild(db execer, b *Build) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO builds (entry, output_file, output_hash, statement_count, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.Entry, b.OutputFile, b.OutputHash, b.StatementCount, b.StartedAt, b.FinishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert build: %w", err)
	}
	return lastID(res)
}

func (s *Store) FinishBuild(b *Build) error {
	_, err := s.db.Exec(
		"UPDATE builds SET output_hash = ?, statement_count = ?, finished_at = ? WHERE id = ?",
		b.OutputHash, b.StatementCount, b.FinishedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("finish build: %w", err)
	}
	return nil
}

const buildCols = "id, entry, output_file, output_hash, statement_count, started_at, finished_at"

func scanBuild(scanner interface{ Scan(...any) error }) (*Build, error) {
	b := &Build{}
	err := scanner.Scan(&b.ID, &b.Entry, &b.OutputFile, &b.OutputHash, &b.StatementCount, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BuildByID returns the build with the given ID, or nil if there is none.
func (s *Store) BuildByID(id int64) (*Build, error) {
	b, err := scanBuild(s.db.QueryRow("SELECT "+buildCols+" FROM builds WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build by id: %w", err)
	}
	return b, nil
}

// Builds returns recorded builds, newest first.
func (s *Store) Builds(limit, offset int) ([]*Build, error) {
	rows, err := s.db.Query("SELECT "+buildCols+" FROM builds ORDER BY id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("builds: %w", err)
	}
	defer rows.Close()
	var builds []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// CountBuilds returns the number of recorded builds.
func (s *Store) CountBuilds() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&n); err != nil {
		return 0, fmt.Errorf("count builds: %w", err)
	}
	return n, nil
}

// --- Module operations ---

func (s *Store) InsertModule(m *Module) (int64, error) {
	id, err := insertModule(s.db, m)
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

func insertModule(db execer, m *Module) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO modules (build_id, path, hash, line_count) VALUES (?, ?, ?, ?)",
		m.BuildID, m.Path, m.Hash, m.LineCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert module: %w", err)
	}
	return lastID(res)
}

// ModulesByBuild returns the modules of a build in fetch order.
func (s *Store) ModulesByBuild(buildID int64) ([]*Module, error) {
	rows, err := s.db.Query(
		"SELECT id, build_id, path, hash, line_count FROM modules WHERE build_id = ? ORDER BY id", buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("modules by build: %w", err)
	}
	defer rows.Close()
	var modules []*Module
	for rows.Next() {
		m := &Module{}
		if err := rows.Scan(&m.ID, &m.BuildID, &m.Path, &m.Hash, &m.LineCount); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// --- Binding operations ---

func (s *Store) InsertBinding(b *Binding) (int64, error) {
	id, err := insertBinding(s.db, b)
	if err != nil {
		return 0, err
	}
	b.ID = id
	return id, nil
}

func insertBinding(db execer, b *Binding) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO bindings (module_id, kind, local_name, exported_name, source) VALUES (?, ?, ?, ?, ?)",
		b.ModuleID, b.Kind, b.LocalName, b.ExportedName, b.Source,
	)
	if err != nil {
		return 0, fmt.Errorf("insert binding: %w", err)
	}
	return lastID(res)
}

// BindingsByModule returns a module's import and export bindings.
func (s *Store) BindingsByModule(moduleID int64) ([]*Binding, error) {
	rows, err := s.db.Query(
		"SELECT id, module_id, kind, local_name, exported_name, source FROM bindings WHERE module_id = ? ORDER BY id", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("bindings by module: %w", err)
	}
	defer rows.Close()
	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.ID, &b.ModuleID, &b.Kind, &b.LocalName, &b.ExportedName, &b.Source); err != nil {
			return nil, fmt.Errorf("scan binding: %w", err)
		}
		bindings = append(bindings, b)
	}
	return bindings, rows.Err()
}

// --- Statement operations ---

func (s *Store) InsertStatement(st *Statement) (int64, error) {
	id, err := insertStatement(s.db, st)
	if err != nil {
		return 0, err
	}
	st.ID = id
	return id, nil
}

func insertStatement(db execer, st *Statement) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO statements (module_id, ordinal, kind, start_line, start_byte, end_byte,
			defines, depends_on, modifies, included, output_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ModuleID, st.Ordinal, st.Kind, st.StartLine, st.StartByte, st.EndByte,
		marshalNames(st.Defines), marshalNames(st.DependsOn), marshalNames(st.Modifies),
		st.Included, st.OutputOrder,
	)
	if err != nil {
		return 0, fmt.Errorf("insert statement: %w", err)
	}
	return lastID(res)
}

// StatementCols is the column list for statement queries, exported for use
// by QueryBuilder.
const StatementCols = `id, module_id, ordinal, kind, start_line, start_byte, end_byte,
	defines, depends_on, modifies, included, output_order`

// ScanStatementRow scans a single row selected with StatementCols.
func ScanStatementRow(scanner interface{ Scan(...any) error }) (*Statement, error) {
	st := &Statement{}
	var defines, dependsOn, modifies string
	err := scanner.Scan(
		&st.ID, &st.ModuleID, &st.Ordinal, &st.Kind, &st.StartLine, &st.StartByte, &st.EndByte,
		&defines, &dependsOn, &modifies, &st.Included, &st.OutputOrder,
	)
	if err != nil {
		return nil, err
	}
	st.Defines = unmarshalNames(defines)
	st.DependsOn = unmarshalNames(dependsOn)
	st.Modifies = unmarshalNames(modifies)
	return st, nil
}

func (s *Store) queryStatements(query string, args ...any) ([]*Statement, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stmts []*Statement
	for rows.Next() {
		st, err := ScanStatementRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		stmts = append(stmts, st)
	}
	return stmts, rows.Err()
}

// StatementsByModule returns a module's statements in source order.
func (s *Store) StatementsByModule(moduleID int64) ([]*Statement, error) {
	stmts, err := s.queryStatements(
		"SELECT "+StatementCols+" FROM statements WHERE module_id = ? ORDER BY ordinal", moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("statements by module: %w", err)
	}
	return stmts, nil
}

// IncludedStatements returns the statements of a build that reached the
// output, in output order.
func (s *Store) IncludedStatements(buildID int64) ([]*Statement, error) {
	stmts, err := s.queryStatements(
		`SELECT `+prefixCols("s", StatementCols)+` FROM statements s
		 JOIN modules m ON m.id = s.module_id
		 WHERE m.build_id = ? AND s.included = 1
		 ORDER BY s.output_order`, buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("included statements: %w", err)
	}
	return stmts, nil
}

// StatementsByBuild returns every statement of a build, module by module.
func (s *Store) StatementsByBuild(buildID int64) ([]*Statement, error) {
	stmts, err := s.queryStatements(
		`SELECT `+prefixCols("s", StatementCols)+` FROM statements s
		 JOIN modules m ON m.id = s.module_id
		 WHERE m.build_id = ?
		 ORDER BY m.id, s.ordinal`, buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("statements by build: %w", err)
	}
	return stmts, nil
}
