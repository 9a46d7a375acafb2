package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFSFallsBackToEmbedded(t *testing.T) {
	fsys, source, err := migrationsFS(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Equal(t, "embedded", source)

	matches, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, matches, "00001_create_users_tasks.sql")
}

func TestMigrationsFSPrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00001_init.sql"), []byte("-- +goose Up\n"), 0o644))

	fsys, source, err := migrationsFS(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, source)

	matches, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_init.sql"}, matches)
}

func TestNewRejectsNilPool(t *testing.T) {
	_, err := New(nil, "", nil)
	assert.Error(t, err)
}
