package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"example.com/ss3/pkg/config"
	"example.com/ss3/pkg/cred"
	"example.com/ss3/pkg/logger"
	"example.com/ss3/pkg/metrics"
	"example.com/ss3/pkg/objectstore"
	"example.com/ss3/pkg/transfer"
)

var version = "dev"

// storeOpener resolves credentials for bucket and connects to the store.
type storeOpener func(ctx context.Context, c *cli.Context, bucket string) (objectstore.ObjectStore, objectstore.BucketManager, error)

// app carries everything a command needs so tests can swap the store and the
// filesystem.
type app struct {
	cfg    config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs
	open   storeOpener

	log     zerolog.Logger
	metrics *metrics.Collector
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error:\n  %s\n", err)
		os.Exit(1)
	}
	a := &app{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		fs:     afero.NewOsFs(),
	}
	a.open = a.openStore
	os.Exit(a.run(ctx, os.Args))
}

// run executes one command line and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if err := a.cli().RunContext(ctx, args); err != nil {
		fmt.Fprintf(a.stderr, "Error:\n  %s\n", err)
		return 1
	}
	fmt.Fprintln(a.stdout, "✔ All good and well")
	return 0
}

func (a *app) cli() *cli.App {
	return &cli.App{
		Name:            "ss3",
		Usage:           "copy, list and remove data between a local filesystem and S3 compatible stores",
		Version:         version,
		Reader:          a.stdin,
		Writer:          a.stdout,
		ErrWriter:       a.stderr,
		HideHelpCommand: true,
		ExitErrHandler:  func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "diagnostic log level (debug, info, warn, error)", Value: a.cfg.LogLevel},
			&cli.StringFlag{Name: "log-format", Usage: "diagnostic log format (console or json)", Value: a.cfg.LogFormat},
			&cli.StringFlag{Name: "metrics-file", Usage: "write transfer metrics to this node_exporter textfile", Value: a.cfg.MetricsFile},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.lsCommand(),
			a.cpCommand(),
			a.rmCommand(),
			a.mbCommand(),
			a.rbCommand(),
			a.cleanCommand(),
		},
	}
}

func (a *app) before(c *cli.Context) error {
	a.log = logger.New(logger.Config{
		Level:  c.String("log-level"),
		Format: c.String("log-format"),
		Output: a.stderr,
	})
	m, err := metrics.NewCollector()
	if err != nil {
		return err
	}
	a.metrics = m
	return nil
}

func (a *app) after(c *cli.Context) error {
	return a.metrics.WriteTextfile(c.String("metrics-file"))
}

// openStore is the production storeOpener.
func (a *app) openStore(ctx context.Context, c *cli.Context, bucket string) (objectstore.ObjectStore, objectstore.BucketManager, error) {
	backend, err := objectstore.ParseBackend(c.String("backend"))
	if err != nil {
		return nil, nil, err
	}
	resolver := cred.NewResolver(a.cfg.EnvPrefix, a.log)
	credential, err := resolver.Resolve(cred.Request{
		Bucket:  bucket,
		Profile: c.String("profile"),
		Region:  c.String("region"),
	})
	if err != nil {
		return nil, nil, err
	}
	return objectstore.Open(ctx, backend, credential, bucket)
}

func (a *app) bucket(store objectstore.ObjectStore) *transfer.Bucket {
	return transfer.New(store,
		transfer.WithFs(a.fs),
		transfer.WithOutput(a.stdout),
		transfer.WithLogger(a.log),
		transfer.WithMetrics(a.metrics),
	)
}
