package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshStoreIsCurrent(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, CurrentSchemaVersion, GetSchemaVersion(s.db))

	res, err := RunMigrations(s.db)
	require.NoError(t, err)
	assert.Zero(t, res.MigrationsRun)
}

func TestOpenMigratesVersionOneArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open(DriverSQLite, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE atoms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content_hash TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		name TEXT,
		strength REAL NOT NULL,
		confidence REAL NOT NULL
	)`)
	require.NoError(t, err)
	assert.Equal(t, 1, GetSchemaVersion(db))
	require.NoError(t, db.Close())

	s, err := Open(path, DriverSQLite)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, columnExists(s.db, "atoms", "source"))
	assert.True(t, columnExists(s.db, "atoms", "created_at"))
	assert.Equal(t, CurrentSchemaVersion, GetSchemaVersion(s.db))

	_, err = s.SaveGraph(context.Background(), "pets.kif", translated(t, "(likes Fido Rex)").Atoms())
	require.NoError(t, err)
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.Sources)
}
