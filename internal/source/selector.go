package source

import (
	"context"
	"unicode/utf8"

	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
)

var ErrObjectNotFound = errors.New("migration object not found")
var ErrNotText = errors.New("migration object is not valid UTF-8 text")

// Lister enumerates every object key of a migration store
type Lister interface {
	List(ctx context.Context) (migration.Keys, error)
}

// Fetcher reads the text content of a single object
type Fetcher interface {
	Fetch(ctx context.Context, key migration.Key) (string, error)
}

type Store interface {
	Lister
	Fetcher
}

// Object is a key with its body, used to seed in-memory stores
type Object struct {
	Key  migration.Key
	Body string
}

func decodeText(key migration.Key, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errors.Wrapf(ErrNotText, "key [%s]", key)
	}

	return string(b), nil
}
