package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/basekick-labs/sensorlog/internal/config"
	"github.com/basekick-labs/sensorlog/internal/logger"
	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/storage"
	"github.com/rs/zerolog"
)

// Version is set at build time
var Version = "dev"

// Process exit codes
const (
	exitOK    = 0
	exitIO    = 1
	exitUsage = 2
	exitEmpty = 3
)

// errUsage marks command-line mistakes
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "ingest":
		return runIngest(ctx, args[1:], stdout, stderr)
	case "query":
		return runQuery(ctx, args[1:], stdout, stderr)
	case "generate":
		return runGenerate(args[1:], stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, "sensorlog", Version)
		return exitOK
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  sensorlog ingest [-config file] <input-file>")
	fmt.Fprintln(w, "  sensorlog query [-config file] <sensor_id> <timestamp>")
	fmt.Fprintln(w, "  sensorlog generate -start RFC3339 -end RFC3339 [-n 2000] [-o dados_sensores.txt] <id> <kind> [<id> <kind>...]")
	fmt.Fprintln(w, "  sensorlog version")
}

// newFlagSet returns a flag set that reports errors instead of exiting
func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// setup loads configuration, initializes logging and opens the storage backend
func setup(ctx context.Context, configPath string, stderr io.Writer) (*config.Config, storage.Backend, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	logger.SetupWriter(stderr, cfg.Log.Level, cfg.Log.Format)
	metrics.Init(logger.Get("metrics"))

	backend, err := storage.New(ctx, cfg.Storage, logger.Get("storage"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return cfg, backend, nil
}

// exitCode maps a setup failure to an exit code and reports it
func exitCode(err error, stderr io.Writer) int {
	fmt.Fprintf(stderr, "error: %v\n", err)
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	return exitIO
}

func cmdLogger() zerolog.Logger {
	return logger.Get("cli")
}
