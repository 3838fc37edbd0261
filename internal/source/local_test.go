package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, contents string) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func Test_LocalFolderCanBeListed(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "migrations/002_up.sql", "SELECT 1;")
	writeFile(t, folder, "migrations/001_up.sql", "CREATE TABLE t(id INT);")
	writeFile(t, folder, "migrations/001_down.sql", "DROP TABLE t;")
	writeFile(t, folder, "readme.txt", "ignored")

	s, err := NewLocalFileStore(folder)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	keys, err := s.List(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"migrations/001_down.sql",
		"migrations/001_up.sql",
		"migrations/002_up.sql",
		"readme.txt",
	}, keys.Strings())
}

func Test_LocalFileCanBeFetched(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "migrations/001_up.sql", "CREATE TABLE t(id INT);")
	writeFile(t, folder, "migrations/002_up.sql", "")
	writeFile(t, folder, "migrations/003_up.sql", "\xff\xfe")

	s, err := NewLocalFileStore(folder)
	require.NoError(t, err)

	t.Run("regular file", func(t *testing.T) {
		body, err := s.Fetch(context.Background(), "migrations/001_up.sql")
		require.NoError(t, err)
		assert.Equal(t, "CREATE TABLE t(id INT);", body)
	})

	t.Run("empty file", func(t *testing.T) {
		body, err := s.Fetch(context.Background(), "migrations/002_up.sql")
		require.NoError(t, err)
		assert.Equal(t, "", body)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Fetch(context.Background(), "migrations/404_up.sql")
		assert.True(t, errors.Is(err, ErrObjectNotFound))
	})

	t.Run("key escaping the folder", func(t *testing.T) {
		_, err := s.Fetch(context.Background(), migration.Key("../outside_up.sql"))
		assert.True(t, errors.Is(err, ErrObjectNotFound))
	})

	t.Run("not a text file", func(t *testing.T) {
		_, err := s.Fetch(context.Background(), "migrations/003_up.sql")
		assert.True(t, errors.Is(err, ErrNotText))
	})
}

func Test_InvalidLocalFolder(t *testing.T) {
	s, err := NewLocalFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)

	assert.False(t, s.IsValid())

	keys, err := s.List(context.Background())
	assert.True(t, errors.Is(err, ErrFolderInvalid))
	assert.Nil(t, keys)
}
