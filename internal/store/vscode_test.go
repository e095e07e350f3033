package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaryorn/gnome-search-providers-jetbrains/pkg/types"
)

// createStateDB writes a minimal VS Code state database. An empty value
// leaves the recently opened key unset.
func createStateDB(t *testing.T, path, value string) {
	t.Helper()
	db, err := sql.Open(DriverName, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	require.NoError(t, err)
	if value != "" {
		_, err = db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, recentlyOpenedKey, value)
		require.NoError(t, err)
	}
}

const recentList = `{"entries":[
	{"folderUri":"file:///home/u/code/api%20server"},
	{"fileUri":"file:///home/u/notes.md"},
	{"folderUri":"vscode-remote://ssh-remote%2Bhost/srv/app"},
	{"workspace":{"id":"abc","configPath":"file:///home/u/all.code-workspace"}},
	{"folderUri":"file:///home/u/code/cli","label":"cli"}
]}`

func TestVSCodeReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.vscdb")
	createStateDB(t, path, recentList)

	r, err := New("code.desktop", path, types.FormatVSCodeStateDB)
	require.NoError(t, err)
	assert.Equal(t, path, r.Path())

	records, err := r.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2, "only local folders are projects")

	assert.Equal(t, "/home/u/code/api server", records[0].Path)
	assert.Equal(t, "api server", records[0].DisplayName)
	assert.Equal(t, "/home/u/code/cli", records[1].Path)
	assert.True(t, records[0].NewerThan(records[1]))
	assert.Equal(t, "code.desktop", records[1].Variant)
}

func TestVSCodeReaderEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.vscdb")
	createStateDB(t, path, "")

	r, err := New("code.desktop", path, types.FormatVSCodeStateDB)
	require.NoError(t, err)

	records, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVSCodeReaderErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing database", func(t *testing.T) {
		r, err := New("code.desktop", filepath.Join(dir, "absent.vscdb"), types.FormatVSCodeStateDB)
		require.NoError(t, err)
		_, err = r.Read(context.Background())
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.vscdb")
		createStateDB(t, path, `{"entries":[`)
		r, err := New("code.desktop", path, types.FormatVSCodeStateDB)
		require.NoError(t, err)
		_, err = r.Read(context.Background())
		assert.ErrorIs(t, err, types.ErrParse)
	})
}
