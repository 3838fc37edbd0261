package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
)

const DefaultLocalFolder = "."

var ErrFolderInvalid = errors.New("local migrations folder is invalid")

// LocalFileStore treats a folder as a bucket: every regular file below it
// is an object keyed by its slash separated path relative to the folder
type LocalFileStore struct {
	folder string
}

var _ Store = (*LocalFileStore)(nil)

func NewLocalFileStore(folder string) (*LocalFileStore, error) {
	if folder == "" {
		folder = DefaultLocalFolder
	}

	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve folder [%s]", folder)
	}

	return &LocalFileStore{folder: abs}, nil
}

func (lfs *LocalFileStore) Folder() string {
	return lfs.folder
}

func (lfs *LocalFileStore) IsValid() bool {
	info, err := os.Stat(lfs.folder)
	if os.IsNotExist(err) {
		return false
	}

	return err == nil && info.IsDir()
}

func (lfs *LocalFileStore) List(ctx context.Context) (migration.Keys, error) {
	if !lfs.IsValid() {
		return nil, errors.Wrapf(ErrFolderInvalid, "%s", lfs.folder)
	}

	var keys migration.Keys
	err := filepath.WalkDir(lfs.folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(lfs.folder, path)
		if err != nil {
			return err
		}

		keys = append(keys, migration.Key(filepath.ToSlash(rel)))
		return nil
	})

	if err != nil {
		return nil, errors.Wrapf(err, "could not read keys from folder %s", lfs.folder)
	}

	return keys, nil
}

func (lfs *LocalFileStore) Fetch(ctx context.Context, key migration.Key) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := lfs.pathOf(key)
	if err != nil {
		return "", err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrObjectNotFound, "key [%s]", key)
		}

		return "", errors.Wrapf(err, "could not read file [%s]", path)
	}

	return decodeText(key, b)
}

func (lfs *LocalFileStore) pathOf(key migration.Key) (string, error) {
	path := filepath.Join(lfs.folder, filepath.FromSlash(string(key)))

	rel, err := filepath.Rel(lfs.folder, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrObjectNotFound, "key [%s] is outside of %s", key, lfs.folder)
	}

	return path, nil
}
