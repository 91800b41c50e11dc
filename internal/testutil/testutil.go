// Package testutil provides shared test helpers for setting up content roots
// and databases.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	require.NoError(t, err)
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRepository creates a repository over a temporary base directory using
// the default category directories. The roots themselves are not created.
func TestRepository(t *testing.T) *content.Repository {
	t.Helper()
	roots, err := content.NewRoots(t.TempDir(), content.DefaultDirs())
	require.NoError(t, err)
	repo, err := content.NewRepository(roots, content.WithLogger(QuietLogger()))
	require.NoError(t, err)
	return repo
}

// QuietLogger returns a logger that only reports errors.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
