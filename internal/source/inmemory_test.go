package source

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore(
		Object{Key: "migrations/002_up.sql", Body: "SELECT 2;"},
		Object{Key: "migrations/001_up.sql", Body: "SELECT 1;"},
		Object{Key: "migrations/002_up.sql", Body: "SELECT 22;"},
	)

	t.Run("keys keep insertion order", func(t *testing.T) {
		keys, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"migrations/002_up.sql", "migrations/001_up.sql"}, keys.Strings())
	})

	t.Run("later body wins", func(t *testing.T) {
		body, err := s.Fetch(context.Background(), "migrations/002_up.sql")
		require.NoError(t, err)
		assert.Equal(t, "SELECT 22;", body)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Fetch(context.Background(), "migrations/404_up.sql")
		assert.True(t, errors.Is(err, ErrObjectNotFound))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.List(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
