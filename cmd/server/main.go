package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	// .env.local takes precedence over .env; neither overrides the real environment
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "loading %s: %s\n", f, err)
			os.Exit(1)
		}
	}

	app := cli.NewApp()
	app.Name = "didserver"
	app.Usage = "HTTP API for creating, parsing and validating DIDs"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Value:   ":5555",
			EnvVars: []string{"DIDSERVER_LISTEN"},
		},
		&cli.IntFlag{
			Name:    "cache-size",
			Usage:   "number of validation results to keep",
			Value:   4096,
			EnvVars: []string{"DIDSERVER_CACHE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			EnvVars: []string{"DIDSERVER_LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    "dev",
			Usage:   "human readable logs",
			EnvVars: []string{"DIDSERVER_DEV"},
		},
	}
	app.Action = run

	app.RunAndExitOnError()
}

func newLogger(level string, dev bool) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl

	return cfg.Build()
}

func run(cctx *cli.Context) error {
	log, err := newLogger(cctx.String("log-level"), cctx.Bool("dev"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer log.Sync() // nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := NewServer(log, cctx.Int("cache-size"), reg)
	if err != nil {
		return err
	}

	addr := cctx.String("listen")
	log.Info("starting server", zap.String("addr", addr))

	return s.Start(addr)
}
