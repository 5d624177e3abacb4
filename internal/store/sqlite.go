// Package store persists translated graphs in SQLite.
//
// Atoms are content addressed: saving the same atom twice, from the same or
// another source file, keeps a single row. Link structure lives in
// link_outgoing, ordered by position.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"kifgraph/internal/graph"
	"kifgraph/internal/logging"
)

// Supported database/sql driver names.
const (
	DriverSQLite  = "sqlite"
	DriverSQLite3 = "sqlite3"
)

// Store is a SQLite-backed graph archive.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	driver string
}

// SaveResult summarizes one SaveGraph call.
type SaveResult struct {
	Atoms    int // atoms offered
	Inserted int // atoms that were not stored yet
}

// Stats describes the archive contents.
type Stats struct {
	Nodes    int
	Links    int
	Asserted int
	Sources  int
	ByType   map[string]int
}

// Open opens (creating if needed) the database at path. An empty driver
// selects DriverSQLite.
func Open(path, driver string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverSQLite3 {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	logging.Store("Opening graph store at %s (driver=%s)", path, driver)

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, path: path, driver: driver}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS atoms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content_hash TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			name TEXT,
			strength REAL NOT NULL,
			confidence REAL NOT NULL,
			source TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS link_outgoing (
			link_id INTEGER NOT NULL REFERENCES atoms(id),
			position INTEGER NOT NULL,
			child_id INTEGER NOT NULL REFERENCES atoms(id),
			PRIMARY KEY (link_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	// Indexes may reference columns that older archives only gain here.
	if _, err := RunMigrations(s.db); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_atoms_type ON atoms(type)`,
		`CREATE INDEX IF NOT EXISTS idx_atoms_source ON atoms(source)`,
		`CREATE INDEX IF NOT EXISTS idx_link_outgoing_child ON link_outgoing(child_id)`,
	}
	for _, stmt := range indexes {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveGraph stores atoms in one transaction. atoms must list every child
// before its parent, as graph.Store.Atoms does. Truth values other than the
// store default overwrite the stored ones.
func (s *Store) SaveGraph(ctx context.Context, source string, atoms []graph.Atom) (SaveResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SaveGraph")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	res := SaveResult{Atoms: len(atoms)}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(atoms))
	for _, a := range atoms {
		name := ""
		if n, ok := a.(*graph.Node); ok {
			name = n.Name()
		}
		tv := a.TV()

		r, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO atoms (content_hash, type, name, strength, confidence, source)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ContentHash(), a.Type().String(), name, tv.Strength, tv.Confidence, source)
		if err != nil {
			return res, fmt.Errorf("failed to insert %s: %w", a.Type(), err)
		}
		inserted, _ := r.RowsAffected()

		var id int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM atoms WHERE content_hash = ?`, a.ContentHash()).Scan(&id); err != nil {
			return res, fmt.Errorf("failed to look up %s: %w", a.Type(), err)
		}
		ids[a.ContentHash()] = id

		if inserted == 0 {
			if !tv.IsDefault() {
				if _, err := tx.ExecContext(ctx,
					`UPDATE atoms SET strength = ?, confidence = ? WHERE id = ?`,
					tv.Strength, tv.Confidence, id); err != nil {
					return res, fmt.Errorf("failed to update truth value: %w", err)
				}
			}
			continue
		}
		res.Inserted++

		l, ok := a.(*graph.Link)
		if !ok {
			continue
		}
		for pos, child := range l.Outgoing() {
			childID, ok := ids[child.ContentHash()]
			if !ok {
				return res, fmt.Errorf("child %d of %s was not saved before its parent", pos, l.Type())
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO link_outgoing (link_id, position, child_id) VALUES (?, ?, ?)`,
				id, pos, childID); err != nil {
				return res, fmt.Errorf("failed to insert outgoing set: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("failed to commit: %w", err)
	}
	logging.StoreDebug("Saved %d atoms from %s (%d new)", res.Atoms, source, res.Inserted)
	return res, nil
}

// LoadGraph rebuilds every stored atom into dst and returns how many atoms
// were loaded.
func (s *Store) LoadGraph(ctx context.Context, dst graph.Store) (int, error) {
	timer := logging.StartTimer(logging.CategoryStore, "LoadGraph")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	outgoing, err := s.loadOutgoingLocked(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, name, strength, confidence FROM atoms ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("failed to query atoms: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]graph.Atom)
	for rows.Next() {
		var (
			id       int64
			typeName string
			name     sql.NullString
			tv       graph.TruthValue
		)
		if err := rows.Scan(&id, &typeName, &name, &tv.Strength, &tv.Confidence); err != nil {
			return len(byID), fmt.Errorf("failed to scan atom: %w", err)
		}
		t, err := graph.ParseType(typeName)
		if err != nil {
			return len(byID), fmt.Errorf("atom %d: %w", id, err)
		}

		var a graph.Atom
		if t.IsNode() {
			a, err = dst.AddNode(t, name.String, &tv)
		} else {
			children := make([]graph.Atom, 0, len(outgoing[id]))
			for _, cid := range outgoing[id] {
				child, ok := byID[cid]
				if !ok {
					return len(byID), fmt.Errorf("link %d references unknown atom %d", id, cid)
				}
				children = append(children, child)
			}
			a, err = dst.AddLink(t, children, &tv)
		}
		if err != nil {
			return len(byID), err
		}
		byID[id] = a
	}
	if err := rows.Err(); err != nil {
		return len(byID), err
	}

	logging.Store("Loaded %d atoms from %s", len(byID), s.path)
	return len(byID), nil
}

func (s *Store) loadOutgoingLocked(ctx context.Context) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT link_id, child_id FROM link_outgoing ORDER BY link_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query outgoing sets: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var link, child int64
		if err := rows.Scan(&link, &child); err != nil {
			return nil, fmt.Errorf("failed to scan outgoing set: %w", err)
		}
		out[link] = append(out[link], child)
	}
	return out, rows.Err()
}

// Stats returns archive counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{ByType: make(map[string]int)}
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM atoms GROUP BY type`)
	if err != nil {
		return st, fmt.Errorf("failed to count atoms: %w", err)
	}
	for rows.Next() {
		var typeName string
		var n int
		if err := rows.Scan(&typeName, &n); err != nil {
			rows.Close()
			return st, err
		}
		st.ByType[typeName] = n
		if t, err := graph.ParseType(typeName); err == nil && t.IsNode() {
			st.Nodes += n
		} else {
			st.Links += n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return st, err
	}

	// Only links carry evidence in translated graphs; nodes with a
	// confidence are symbols, not assertions.
	var linkTypes []interface{}
	placeholders := ""
	for _, t := range graph.Types() {
		if t.IsLink() {
			if placeholders != "" {
				placeholders += ", "
			}
			placeholders += "?"
			linkTypes = append(linkTypes, t.String())
		}
	}
	q := `SELECT COUNT(*) FROM atoms WHERE confidence > 0 AND type IN (` + placeholders + `)`
	if err := s.db.QueryRowContext(ctx, q, linkTypes...).Scan(&st.Asserted); err != nil {
		return st, fmt.Errorf("failed to count asserted links: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT source) FROM atoms`).Scan(&st.Sources); err != nil {
		return st, fmt.Errorf("failed to count sources: %w", err)
	}
	return st, nil
}
