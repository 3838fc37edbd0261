package migration

import (
	"sort"
	"strings"
)

type (
	Direction string

	// Key is the storage path of a single migration object
	Key string

	Keys []Key

	RawMigration struct {
		Key  Key
		Body string
	}

	// Run is the ordered set of migrations selected for one invocation,
	// either all up or all down migrations
	Run struct {
		Direction  Direction
		Migrations []RawMigration
	}
)

const (
	Up   Direction = "up"
	Down Direction = "down"

	Folder = "migrations"

	upSuffix   = "up.sql"
	downSuffix = "down.sql"
)

func (d Direction) String() string {
	return string(d)
}

func (k Key) String() string {
	return string(k)
}

// IsUp reports whether the key lives under the migrations folder
// and ends with up.sql
func (k Key) IsUp() bool {
	return k.inFolder() && strings.HasSuffix(string(k), upSuffix)
}

// IsDown reports whether the key lives under the migrations folder
// and ends with down.sql
func (k Key) IsDown() bool {
	return k.inFolder() && strings.HasSuffix(string(k), downSuffix)
}

func (k Key) inFolder() bool {
	return strings.HasPrefix(string(k), Folder+"/")
}

func NewKeys(ss ...string) Keys {
	keys := make(Keys, len(ss))
	for i := range ss {
		keys[i] = Key(ss[i])
	}
	return keys
}

func (ks Keys) Strings() []string {
	result := make([]string, len(ks))
	for i := range ks {
		result[i] = string(ks[i])
	}
	return result
}

// Sorted returns a lexically ascending copy of the keys
func (ks Keys) Sorted() Keys {
	sorted := make(Keys, len(ks))
	copy(sorted, ks)
	sort.Sort(sorted)
	return sorted
}

func (ks Keys) Len() int {
	return len(ks)
}

func (ks Keys) Less(i, j int) bool {
	return ks[i] < ks[j]
}

func (ks Keys) Swap(i, j int) {
	ks[i], ks[j] = ks[j], ks[i]
}

// SelectUp keeps the up migration keys in their original order
func SelectUp(keys Keys) Keys {
	return filter(keys, Key.IsUp)
}

// SelectDown keeps the down migration keys in their original order
func SelectDown(keys Keys) Keys {
	return filter(keys, Key.IsDown)
}

func Select(d Direction, keys Keys) Keys {
	if d == Down {
		return SelectDown(keys)
	}

	return SelectUp(keys)
}

func filter(keys Keys, keep func(Key) bool) Keys {
	var result Keys
	for i := range keys {
		if keep(keys[i]) {
			result = append(result, keys[i])
		}
	}
	return result
}

func (m RawMigration) IsEmpty() bool {
	return len(m.Body) == 0
}

func NewRun(d Direction) *Run {
	return &Run{Direction: d}
}

func (r *Run) Add(key Key, body string) {
	r.Migrations = append(r.Migrations, RawMigration{Key: key, Body: body})
}

func (r *Run) Len() int {
	return len(r.Migrations)
}

func (r *Run) Keys() Keys {
	keys := make(Keys, len(r.Migrations))
	for i := range r.Migrations {
		keys[i] = r.Migrations[i].Key
	}
	return keys
}
