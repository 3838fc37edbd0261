package source

import (
	"context"

	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
)

type InMemoryStore struct {
	keys    migration.Keys
	objects map[migration.Key]string
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore keeps the objects in the given order, a repeated key
// replaces the earlier body but keeps its position
func NewInMemoryStore(objects ...Object) *InMemoryStore {
	s := &InMemoryStore{objects: make(map[migration.Key]string, len(objects))}

	for _, o := range objects {
		if _, ok := s.objects[o.Key]; !ok {
			s.keys = append(s.keys, o.Key)
		}

		s.objects[o.Key] = o.Body
	}

	return s
}

func (s *InMemoryStore) List(ctx context.Context) (migration.Keys, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys := make(migration.Keys, len(s.keys))
	copy(keys, s.keys)
	return keys, nil
}

func (s *InMemoryStore) Fetch(ctx context.Context, key migration.Key) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, ok := s.objects[key]
	if !ok {
		return "", errors.Wrapf(ErrObjectNotFound, "key [%s]", key)
	}

	return decodeText(key, []byte(body))
}
