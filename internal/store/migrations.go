package store

import (
	"database/sql"
	"fmt"

	"kifgraph/internal/logging"
)

// Schema versions:
// v1: atoms (content_hash, type, name, strength, confidence) and link_outgoing
// v2: atoms.source and atoms.created_at for provenance
const CurrentSchemaVersion = 2

// MigrationResult holds the result of a migration run.
type MigrationResult struct {
	FromVersion   int
	ToVersion     int
	MigrationsRun int
}

// Migration adds a column that older archives lack.
type Migration struct {
	Version int
	Table   string
	Column  string
	Def     string
}

// pendingMigrations lists column additions, oldest first. SQLite rejects
// non-constant defaults in ADD COLUMN, so created_at stays NULL for rows
// that predate v2.
var pendingMigrations = []Migration{
	{2, "atoms", "source", "TEXT"},
	{2, "atoms", "created_at", "DATETIME"},
}

// RunMigrations brings an existing archive up to CurrentSchemaVersion and
// records the version reached.
func RunMigrations(db *sql.DB) (MigrationResult, error) {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	res := MigrationResult{FromVersion: GetSchemaVersion(db), ToVersion: CurrentSchemaVersion}
	if res.FromVersion >= CurrentSchemaVersion {
		logging.StoreDebug("Schema at v%d, nothing to migrate", res.FromVersion)
		return res, recordVersion(db, res.FromVersion)
	}

	logging.Store("Migrating graph store schema v%d -> v%d", res.FromVersion, CurrentSchemaVersion)
	for _, m := range pendingMigrations {
		if m.Version <= res.FromVersion || !tableExists(db, m.Table) {
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			logging.StoreDebug("Column already exists, skipping: %s.%s", m.Table, m.Column)
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.Exec(query); err != nil {
			return res, fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		res.MigrationsRun++
	}
	return res, recordVersion(db, CurrentSchemaVersion)
}

func recordVersion(db *sql.DB, version int) error {
	var recorded int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&recorded)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if recorded >= version {
		return nil
	}
	if _, err := db.Exec("INSERT INTO schema_versions (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the schema version of db. Archives without a
// recorded version are inspected column by column.
func GetSchemaVersion(db *sql.DB) int {
	if tableExists(db, "schema_versions") {
		var version int
		if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version); err == nil && version > 0 {
			return version
		}
	}
	switch {
	case !tableExists(db, "atoms"):
		return 0
	case columnExists(db, "atoms", "source"):
		return 2
	default:
		return 1
	}
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}
