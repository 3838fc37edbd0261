package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/denismitr/s3mig"
	"github.com/denismitr/s3mig/internal/logger"
	"github.com/pkg/errors"
)

var (
	ErrDatabaseNotSpecified = errors.New("database url was not defined")
	ErrSourceNotSpecified   = errors.New("neither migrations bucket nor local folder was defined")
	ErrUnknownDriver        = errors.New("unknown database driver")
)

type (
	Config struct {
		DatabaseURL     string
		Bucket          string
		Region          string
		Endpoint        string
		Prefix          string
		AccessKeyID     string
		SecretAccessKey string
		LocalFolder     string
		PrintSQL        bool
		Debug           bool
	}

	App struct {
		cfg     Config
		printer logger.Printer
		factory migratorFactory
	}
)

// ConfigFromYaml reads the configuration file, values written as %%NAME%%
// are taken from the environment
func ConfigFromYaml(path string) (Config, error) {
	return createConfigFromYaml(path)
}

func New(cfg Config, printer logger.Printer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &App{cfg: cfg, printer: printer, factory: createMigrator}, nil
}

func (cfg Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return ErrDatabaseNotSpecified
	}

	if cfg.Bucket == "" && cfg.LocalFolder == "" {
		return ErrSourceNotSpecified
	}

	return nil
}

// Merge overrides cfg values with the non empty values of other
func (cfg Config) Merge(other Config) Config {
	merged := cfg
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	override(&merged.DatabaseURL, other.DatabaseURL)
	override(&merged.Bucket, other.Bucket)
	override(&merged.Region, other.Region)
	override(&merged.Endpoint, other.Endpoint)
	override(&merged.Prefix, other.Prefix)
	override(&merged.AccessKeyID, other.AccessKeyID)
	override(&merged.SecretAccessKey, other.SecretAccessKey)
	override(&merged.LocalFolder, other.LocalFolder)
	merged.PrintSQL = merged.PrintSQL || other.PrintSQL
	merged.Debug = merged.Debug || other.Debug

	return merged
}

// Up builds a fresh migrator and applies every up migration
func (app *App) Up(ctx context.Context) error {
	return app.run(ctx, (*s3mig.Migrator).ExecuteUpMigrations)
}

// Down builds a fresh migrator and applies every down migration
func (app *App) Down(ctx context.Context) error {
	return app.run(ctx, (*s3mig.Migrator).ExecuteDownMigrations)
}

func (app *App) run(ctx context.Context, execute func(*s3mig.Migrator, context.Context) (bool, error)) (err error) {
	m, closer, createErr := app.factory(app.cfg, app.printer)
	if createErr != nil {
		return createErr
	}

	defer func() {
		if closeErr := closer(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = execute(m, ctx); err != nil {
		return err
	}

	return nil
}

func InitCfg(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer func() {
		if err := f.Close(); err != nil {
			panic(err)
		}
	}()

	r := strings.NewReader(configFileStub)

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
