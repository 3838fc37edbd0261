package s3mig

import (
	"fmt"

	"github.com/denismitr/s3mig/migration"
	"github.com/pkg/errors"
)

const (
	OpList  = "list"
	OpFetch = "fetch"
)

var (
	ErrSourceNotInitialized    = errors.New("migration source has not been initialized")
	ErrConnectorNotInitialized = errors.New("database connector has not been initialized")
	ErrMigratorConsumed        = errors.New("migrator has already been used for a run")
)

// StorageError is a listing or fetch failure. Nothing has been executed
// against the database when it is returned, so the whole run can be retried.
type StorageError struct {
	Op  string
	Key migration.Key
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s of [%s] failed: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
func (e *StorageError) Cause() error  { return e.Err }

type DbConnectionError struct {
	Err error
}

func (e *DbConnectionError) Error() string {
	return fmt.Sprintf("could not obtain database connection: %v", e.Err)
}

func (e *DbConnectionError) Unwrap() error { return e.Err }
func (e *DbConnectionError) Cause() error  { return e.Err }

// SqlExecutionError means a migration failed mid-run. Migrations before Key
// have been applied and are not rolled back, so the schema is in an unknown
// state and the caller must halt.
type SqlExecutionError struct {
	Key migration.Key
	SQL string
	Err error
}

func (e *SqlExecutionError) Error() string {
	return fmt.Sprintf("migration [%s] failed: %v", e.Key, e.Err)
}

func (e *SqlExecutionError) Unwrap() error { return e.Err }
func (e *SqlExecutionError) Cause() error  { return e.Err }

func (e *SqlExecutionError) Unrecoverable() bool {
	return true
}

type unrecoverable interface {
	Unrecoverable() bool
}

// IsUnrecoverable reports whether err leaves the database in a state
// that requires manual inspection before anything else runs
func IsUnrecoverable(err error) bool {
	var u unrecoverable
	return errors.As(err, &u) && u.Unrecoverable()
}
