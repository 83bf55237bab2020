package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("transcripts/stu-1.csv", []byte("Code,Course\n"))
	require.NoError(t, err)
	require.Equal(t, "transcripts/stu-1.csv", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "Code,Course\n", string(data))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "/etc/passwd", "../outside.csv", "transcripts/../../outside.csv"} {
		_, err := store.Save(name, []byte("x"))
		require.Error(t, err, "path %q should be rejected", name)

		_, err = store.Open(name)
		require.Error(t, err, "path %q should be rejected", name)
	}
}

func TestLocalStorageDeleteMissingFile(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Delete("transcripts/gone.csv"))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("transcripts/old.csv", []byte("old"))
	require.NoError(t, err)
	old := filepath.Join(dir, "transcripts", "old.csv")
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	_, err = store.Save("transcripts/fresh.csv", []byte("fresh"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join("transcripts", "old.csv")}, deleted)

	_, err = os.Stat(old)
	require.True(t, os.IsNotExist(err))

	file, err := store.Open("transcripts/fresh.csv")
	require.NoError(t, err)
	file.Close()
}
