package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/denismitr/s3mig/internal/retry"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	DefaultConnectionAttempts    = 1
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

// Conn is a single database connection migrations are executed on
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

// Connector hands out one connection per migration run
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Close() error
}

type ConnectorFunc func(ctx context.Context) (Conn, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) {
	return f(ctx)
}

func (f ConnectorFunc) Close() error {
	return nil
}

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

type RetryingConnector struct {
	options *ConnectOptions
	db      *sqlx.DB
}

var _ Connector = (*RetryingConnector)(nil)

func MakeRetryingConnector(db *sqlx.DB, options *ConnectOptions) *RetryingConnector {
	if options == nil {
		options = NewDefaultConnectOptions()
	}

	return &RetryingConnector{db: db, options: options}
}

func (c *RetryingConnector) Timeout() time.Duration {
	return c.options.MaxTimeout
}

// Connect takes a dedicated connection from the pool and pings it,
// attempting up to MaxAttempts times within MaxTimeout
func (c *RetryingConnector) Connect(ctx context.Context) (Conn, error) {
	if c.db == nil {
		return nil, errors.New("database handle is nil")
	}

	connectCtx, cancel := context.WithTimeout(ctx, c.options.MaxTimeout)
	defer cancel()

	var conn *sqlx.Conn
	err := retry.Incremental(connectCtx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		candidate, err := c.db.Connx(connectCtx)
		if err != nil {
			return retry.Error(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		if err := candidate.PingContext(connectCtx); err != nil {
			_ = candidate.Close()
			return retry.Error(errors.Wrap(err, "db ping failed"), attempt)
		}

		conn = candidate
		return nil
	})

	if err != nil {
		return nil, err
	}

	return conn, nil
}

func (c *RetryingConnector) Close() error {
	if c.db == nil {
		return nil
	}

	if err := c.db.Close(); err != nil {
		return errors.Wrap(err, "retrying connector could not close the database")
	}

	return nil
}
