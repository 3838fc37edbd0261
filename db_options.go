package s3mig

import (
	"database/sql"
	"time"

	"github.com/denismitr/s3mig/internal/database"
	"github.com/jmoiron/sqlx"
)

type ConnectOptionFunc func(*database.ConnectOptions)

// WithConnectAttempts retries obtaining the connection, waiting one more
// step before every attempt
func WithConnectAttempts(attempts int, step time.Duration) ConnectOptionFunc {
	return func(o *database.ConnectOptions) {
		o.MaxAttempts = attempts
		o.RetryStep = step
	}
}

func WithConnectTimeout(timeout time.Duration) ConnectOptionFunc {
	return func(o *database.ConnectOptions) {
		o.MaxTimeout = timeout
	}
}

// UseMySQL expects the DSN to allow multi statements when migration
// files contain more than one statement
func UseMySQL(db *sql.DB, options ...ConnectOptionFunc) OptionFunc {
	return useSQL(db, "mysql", options)
}

func UsePostgres(db *sql.DB, options ...ConnectOptionFunc) OptionFunc {
	return useSQL(db, "postgres", options)
}

func UseSqlite(db *sql.DB, options ...ConnectOptionFunc) OptionFunc {
	return useSQL(db, "sqlite3", options)
}

func UseConnector(c Connector) OptionFunc {
	return func(m *Migrator) error {
		if c == nil {
			return ErrConnectorNotInitialized
		}

		m.connector = c
		return nil
	}
}

func useSQL(db *sql.DB, driverName string, options []ConnectOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		if db == nil {
			return ErrConnectorNotInitialized
		}

		connectOpts := database.NewDefaultConnectOptions()
		for _, oFunc := range options {
			oFunc(connectOpts)
		}

		m.connector = database.MakeRetryingConnector(sqlx.NewDb(db, driverName), connectOpts)
		return nil
	}
}
