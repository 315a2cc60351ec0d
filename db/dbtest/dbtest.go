// Package dbtest provides a migrated in-memory SQLite handle for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/Dosada05/chanbara-tournament/db"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New returns a fresh, fully migrated in-memory database closed at test cleanup.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Connect("sqlite3", "file::memory:", time.Second)
	require.NoError(t, err, "failed to connect to in-memory DB")
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.Migrate(database), "failed to apply migrations")
	return database
}
