package s3mig

import (
	"context"
	"sync/atomic"

	"github.com/denismitr/s3mig/internal/database"
	"github.com/denismitr/s3mig/internal/logger"
	"github.com/denismitr/s3mig/internal/source"
	"github.com/denismitr/s3mig/migration"
)

type (
	CloserFunc func() error

	Store     = source.Store
	Object    = source.Object
	S3Client  = source.S3Client
	Connector = database.Connector
	Conn      = database.Conn
)

// Migrator lists, fetches and executes the migrations of one store.
// A Migrator performs a single run; create a new one for every run.
type Migrator struct {
	lg        logger.Logger
	store     source.Store
	connector database.Connector
	consumed  int32

	applied migration.Keys
	skipped migration.Keys
}

// NewMigrator creates a migrator configured by the option callbacks,
// a source and a database are required
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.store == nil {
		return nil, nil, ErrSourceNotInitialized
	}

	if m.connector == nil {
		return nil, nil, ErrConnectorNotInitialized
	}

	return m, m.close, nil
}

// ExecuteUpMigrations applies every up migration of the store in key order.
// A *SqlExecutionError must be treated as fatal, see IsUnrecoverable.
func (m *Migrator) ExecuteUpMigrations(ctx context.Context) (bool, error) {
	return m.run(ctx, migration.Up)
}

// ExecuteDownMigrations applies every down migration of the store in key order
func (m *Migrator) ExecuteDownMigrations(ctx context.Context) (bool, error) {
	return m.run(ctx, migration.Down)
}

// Applied returns the keys executed by the finished run
func (m *Migrator) Applied() migration.Keys {
	return m.applied
}

// Skipped returns the keys of empty migrations passed over by the finished run
func (m *Migrator) Skipped() migration.Keys {
	return m.skipped
}

func (m *Migrator) run(ctx context.Context, d migration.Direction) (bool, error) {
	if !atomic.CompareAndSwapInt32(&m.consumed, 0, 1) {
		return false, ErrMigratorConsumed
	}

	m.lg.Debugf("listing migration keys")
	keys, err := m.store.List(ctx)
	if err != nil {
		return m.abort(&StorageError{Op: OpList, Err: err})
	}

	m.lg.Debugf("classifying %d keys for %s migrations", len(keys), d)
	selected := migration.Select(d, keys.Sorted())

	m.lg.Debugf("fetching %d %s migrations", len(selected), d)
	run, err := m.fetch(ctx, d, selected)
	if err != nil {
		return m.abort(err)
	}

	conn, err := m.connector.Connect(ctx)
	if err != nil {
		return m.abort(&DbConnectionError{Err: err})
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			m.lg.Error(closeErr)
		}
	}()

	// cancellation of ctx does not reach the statements
	m.lg.Debugf("executing %d %s migrations", run.Len(), d)
	if err := m.execute(context.WithoutCancel(ctx), conn, run); err != nil {
		return m.abort(err)
	}

	m.lg.Successf("%d %s migrations executed, %d skipped", len(m.applied), d, len(m.skipped))

	return true, nil
}

// fetch reads every selected migration before any SQL runs
func (m *Migrator) fetch(ctx context.Context, d migration.Direction, keys migration.Keys) (*migration.Run, error) {
	run := migration.NewRun(d)

	for _, key := range keys {
		body, err := m.store.Fetch(ctx, key)
		if err != nil {
			return nil, &StorageError{Op: OpFetch, Key: key, Err: err}
		}

		run.Add(key, body)
	}

	return run, nil
}

func (m *Migrator) execute(ctx context.Context, conn database.Conn, run *migration.Run) error {
	for _, rm := range run.Migrations {
		if rm.IsEmpty() {
			m.lg.Debugf("%s is empty, skipping", rm.Key)
			m.skipped = append(m.skipped, rm.Key)
			continue
		}

		m.lg.SQL(rm.Body)

		result, err := conn.ExecContext(ctx, rm.Body)
		if err != nil {
			return &SqlExecutionError{Key: rm.Key, SQL: rm.Body, Err: err}
		}

		if result != nil {
			if rows, rowsErr := result.RowsAffected(); rowsErr == nil {
				m.lg.Debugf("%s affected %d rows", rm.Key, rows)
			}
		}

		m.applied = append(m.applied, rm.Key)
		m.lg.Successf("%s executed", rm.Key)
	}

	return nil
}

func (m *Migrator) abort(err error) (bool, error) {
	m.lg.Error(err)
	return false, err
}

func (m *Migrator) close() error {
	if m.connector == nil {
		return ErrConnectorNotInitialized
	}

	if err := m.connector.Close(); err != nil {
		m.lg.Error(err)
		return err
	}

	return nil
}
