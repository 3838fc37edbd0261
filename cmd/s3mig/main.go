package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/denismitr/s3mig"
	"github.com/denismitr/s3mig/internal/cli"
	"github.com/logrusorgru/aurora/v3"
	"github.com/pkg/errors"
)

const (
	defaultConfigFile = "s3mig.yaml"

	exitFailure       = 1
	exitUnrecoverable = 2
)

func main() {
	upCmd := flag.Bool("up", false, "execute the up migrations")
	downCmd := flag.Bool("down", false, "execute the down migrations")
	initCmd := flag.Bool("init", false, "create a configuration file stub")

	configPath := flag.String("config", defaultConfigFile, "path to the yaml configuration file")
	databaseUrl := flag.String("db", "", "database URL, mysql://, postgres:// or sqlite://")
	bucket := flag.String("bucket", "", "S3 bucket holding the migrations")
	region := flag.String("region", "", "AWS region of the bucket")
	endpoint := flag.String("endpoint", "", "custom S3 endpoint, e.g. MinIO or LocalStack")
	prefix := flag.String("prefix", "", "only list keys below this prefix")
	folder := flag.String("folder", "", "read migrations from a local folder instead of S3")
	printSQL := flag.Bool("sql", false, "print executed SQL")
	debug := flag.Bool("debug", false, "print debug output")

	flag.Parse()

	if *initCmd {
		if cli.FileExists(*configPath) {
			exit(exitFailure, errors.Errorf("configuration file %s already exists", *configPath))
		}

		if err := cli.InitCfg(*configPath); err != nil {
			exit(exitFailure, err)
		}

		fmt.Println(aurora.Green("s3mig: "), "created", *configPath)
		os.Exit(0)
	}

	if *upCmd == *downCmd {
		exit(exitFailure, errors.New("exactly one of -up or -down must be given"))
	}

	var cfg cli.Config
	if cli.FileExists(*configPath) {
		fileCfg, err := cli.ConfigFromYaml(*configPath)
		if err != nil {
			exit(exitFailure, err)
		}
		cfg = fileCfg
	}

	cfg = cli.WithEnvDefaults(cfg.Merge(cli.Config{
		DatabaseURL: *databaseUrl,
		Bucket:      *bucket,
		Region:      *region,
		Endpoint:    *endpoint,
		Prefix:      *prefix,
		LocalFolder: *folder,
		PrintSQL:    *printSQL,
		Debug:       *debug,
	}))

	app, err := cli.New(cfg, log.New(os.Stdout, "", 0))
	if err != nil {
		exit(exitFailure, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *upCmd {
		err = app.Up(ctx)
	} else {
		err = app.Down(ctx)
	}

	if err != nil {
		var sqlErr *s3mig.SqlExecutionError
		if errors.As(err, &sqlErr) {
			fmt.Println(aurora.Red("s3mig: "), "key:\n"+sqlErr.Key.String())
			fmt.Println(aurora.Red("s3mig: "), "sql:\n"+sqlErr.SQL)
		}

		if s3mig.IsUnrecoverable(err) {
			stop()
			exit(exitUnrecoverable, errors.Wrap(err, "database is left in an unknown state, inspect it before running again"))
		}

		stop()
		exit(exitFailure, err)
	}

	fmt.Println(aurora.Green("s3mig: "), "all done")
}

func exit(code int, err error) {
	fmt.Println(aurora.Red("s3mig: "), err.Error())
	os.Exit(code)
}
