package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_KeysCanBeClassified(t *testing.T) {
	tt := []struct {
		key  string
		up   bool
		down bool
	}{
		{key: "migrations/001_up.sql", up: true},
		{key: "migrations/001_down.sql", down: true},
		{key: "migrations/2021/0001_create_users.up.sql", up: true},
		{key: "migrations/2021/0001_create_users.down.sql", down: true},
		{key: "migrations/up.sql", up: true},
		{key: "readme.txt"},
		{key: "up.sql"},
		{key: "old/migrations/001_up.sql"},
		{key: "migrations_old/001_up.sql"},
		{key: "migrations/001_up.sql.bak"},
		{key: "migrations/001_UP.SQL"},
		{key: "migrations/"},
		{key: ""},
	}

	for _, tc := range tt {
		t.Run(tc.key, func(t *testing.T) {
			k := Key(tc.key)
			assert.Equal(t, tc.up, k.IsUp())
			assert.Equal(t, tc.down, k.IsDown())
		})
	}
}

func Test_SelectionPreservesListingOrder(t *testing.T) {
	keys := NewKeys(
		"migrations/003_up.sql",
		"migrations/001_down.sql",
		"readme.txt",
		"migrations/001_up.sql",
		"migrations/003_down.sql",
		"migrations/002_up.sql",
	)

	assert.Equal(t, NewKeys("migrations/003_up.sql", "migrations/001_up.sql", "migrations/002_up.sql"), SelectUp(keys))
	assert.Equal(t, NewKeys("migrations/001_down.sql", "migrations/003_down.sql"), SelectDown(keys))
	assert.Equal(t, SelectUp(keys), Select(Up, keys))
	assert.Equal(t, SelectDown(keys), Select(Down, keys))
}

func Test_SelectionPartitionsKeys(t *testing.T) {
	keys := NewKeys(
		"migrations/001_up.sql",
		"migrations/001_down.sql",
		"migrations/setup.sql",
		"migrations/notes.md",
		"assets/logo.png",
	)

	up := SelectUp(keys)
	down := SelectDown(keys)

	for _, k := range up {
		assert.NotContains(t, down, k)
	}

	assert.Len(t, up, 2)
	assert.Len(t, down, 1)
	assert.NotContains(t, up, Key("migrations/notes.md"))
	assert.NotContains(t, down, Key("migrations/notes.md"))
	assert.NotContains(t, up, Key("assets/logo.png"))
}

func Test_SelectionIsIdempotent(t *testing.T) {
	keys := NewKeys("migrations/b_up.sql", "x", "migrations/a_up.sql", "migrations/a_down.sql")

	once := SelectUp(keys)
	assert.Equal(t, once, SelectUp(once))

	onceDown := SelectDown(keys)
	assert.Equal(t, onceDown, SelectDown(onceDown))
}

func Test_EmptySelection(t *testing.T) {
	assert.Empty(t, SelectUp(nil))
	assert.Empty(t, SelectDown(NewKeys("readme.txt", "index.html")))
}

func Test_KeysCanBeSorted(t *testing.T) {
	keys := NewKeys("migrations/010_up.sql", "migrations/002_up.sql", "migrations/001_up.sql")

	sorted := keys.Sorted()

	assert.Equal(t, []string{"migrations/001_up.sql", "migrations/002_up.sql", "migrations/010_up.sql"}, sorted.Strings())
	assert.Equal(t, Key("migrations/010_up.sql"), keys[0], "original listing must stay untouched")
}

func Test_Run(t *testing.T) {
	r := NewRun(Up)
	r.Add("migrations/001_up.sql", "")
	r.Add("migrations/002_up.sql", "SELECT 1;")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, NewKeys("migrations/001_up.sql", "migrations/002_up.sql"), r.Keys())
	assert.True(t, r.Migrations[0].IsEmpty())
	assert.False(t, r.Migrations[1].IsEmpty())
	assert.Equal(t, "up", r.Direction.String())
}
