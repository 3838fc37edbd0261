package cli

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/denismitr/s3mig"
	"github.com/denismitr/s3mig/internal/logger"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	BucketEnv = "S3_MIGRATIONS_BUCKET"
	RegionEnv = "AWS_REGION"
)

const configFileStub = `version: 1
migrations:
  database_url: "%%DATABASE_URL%%"
  bucket: "%%S3_MIGRATIONS_BUCKET%%"
  region: "%%AWS_REGION%%"
  endpoint: ""
  prefix: ""
  access_key_id: ""
  secret_access_key: ""
  local_folder: ""
`

type (
	migratorFactory func(cfg Config, p logger.Printer) (*s3mig.Migrator, s3mig.CloserFunc, error)
	dbOpener        func(url string) (*sqlx.DB, s3mig.OptionFunc, error)

	migrations struct {
		DatabaseURL     string `yaml:"database_url"`
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		Prefix          string `yaml:"prefix"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		LocalFolder     string `yaml:"local_folder"`
	}

	configFile struct {
		Version    string     `yaml:"version"`
		Migrations migrations `yaml:"migrations"`
	}
)

func createConfigFromYaml(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not open s3mig configuration file")
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			panic(errClose)
		}
	}()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read s3mig configuration file")
	}

	return parseConfig(b)
}

func parseConfig(b []byte) (Config, error) {
	var cfg Config
	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrap(err, "could not parse s3mig configuration file")
	}

	cfg.DatabaseURL = fromEnv(cfgFile.Migrations.DatabaseURL)
	cfg.Bucket = fromEnv(cfgFile.Migrations.Bucket)
	cfg.Region = fromEnv(cfgFile.Migrations.Region)
	cfg.Endpoint = fromEnv(cfgFile.Migrations.Endpoint)
	cfg.Prefix = fromEnv(cfgFile.Migrations.Prefix)
	cfg.AccessKeyID = fromEnv(cfgFile.Migrations.AccessKeyID)
	cfg.SecretAccessKey = fromEnv(cfgFile.Migrations.SecretAccessKey)
	cfg.LocalFolder = fromEnv(cfgFile.Migrations.LocalFolder)

	return cfg, nil
}

// fromEnv resolves values written as %%NAME%% from the environment
func fromEnv(v string) string {
	if len(v) > 4 && strings.HasPrefix(v, "%%") && strings.HasSuffix(v, "%%") {
		return os.Getenv(strings.ReplaceAll(v, "%%", ""))
	}

	return v
}

// WithEnvDefaults fills bucket and region from the environment
// when the configuration leaves them empty
func WithEnvDefaults(cfg Config) Config {
	if cfg.Bucket == "" {
		cfg.Bucket = os.Getenv(BucketEnv)
	}

	if cfg.Region == "" {
		cfg.Region = os.Getenv(RegionEnv)
	}

	return cfg
}

func createMigrator(cfg Config, p logger.Printer) (*s3mig.Migrator, s3mig.CloserFunc, error) {
	open, err := openerFor(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	db, useDB, err := open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	opts := []s3mig.OptionFunc{useDB, sourceOption(cfg)}
	if p != nil {
		opts = append([]s3mig.OptionFunc{s3mig.UseColorLogger(p, cfg.PrintSQL, cfg.Debug)}, opts...)
	}

	m, closer, err := s3mig.NewMigrator(opts...)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, nil, errors.Wrap(err, closeErr.Error())
		}

		return nil, nil, err
	}

	return m, closer, nil
}

func sourceOption(cfg Config) s3mig.OptionFunc {
	if cfg.LocalFolder != "" {
		return s3mig.UseLocalFolderSource(cfg.LocalFolder)
	}

	var s3Opts []s3mig.S3OptionFunc
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, s3mig.WithS3Endpoint(cfg.Endpoint))
	}

	if cfg.Prefix != "" {
		s3Opts = append(s3Opts, s3mig.WithS3Prefix(cfg.Prefix))
	}

	if cfg.AccessKeyID != "" {
		s3Opts = append(s3Opts, s3mig.WithS3StaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}

	return s3mig.UseS3Source(cfg.Bucket, cfg.Region, s3Opts...)
}

func openerFor(url string) (dbOpener, error) {
	switch {
	case strings.HasPrefix(url, "mysql://"):
		return openMySQL, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return openPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "sqlite3://"):
		return openSqlite, nil
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "[%s]", url)
	}
}

// openMySQL forces multi statements so a migration file may hold a batch
func openMySQL(url string) (*sqlx.DB, s3mig.OptionFunc, error) {
	dsn, err := mysqlDSN(url)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}

	return db, s3mig.UseMySQL(db.DB), nil
}

func mysqlDSN(url string) (string, error) {
	mysqlCfg, err := mysql.ParseDSN(strings.TrimPrefix(url, "mysql://"))
	if err != nil {
		return "", errors.Wrap(err, "invalid mysql dsn")
	}

	mysqlCfg.MultiStatements = true

	return mysqlCfg.FormatDSN(), nil
}

func openPostgres(url string) (*sqlx.DB, s3mig.OptionFunc, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, nil, err
	}

	return db, s3mig.UsePostgres(db.DB), nil
}

func openSqlite(url string) (*sqlx.DB, s3mig.OptionFunc, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(url, "sqlite3://"), "sqlite://")

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}

	return db, s3mig.UseSqlite(db.DB), nil
}
