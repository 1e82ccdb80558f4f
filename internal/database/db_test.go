package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateSQLite(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, DriverSQLite))
	// Re-running is a no-op.
	require.NoError(t, Migrate(db, DriverSQLite))

	for _, table := range []string{"users", "refresh_tokens"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.ErrorContains(t, Migrate(db, "postgres"), "unsupported")
}
