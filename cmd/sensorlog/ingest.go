package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/basekick-labs/sensorlog/internal/export"
	"github.com/basekick-labs/sensorlog/internal/ingest"
	"github.com/basekick-labs/sensorlog/internal/logger"
	"github.com/basekick-labs/sensorlog/internal/metrics"
)

// runIngest reads an input log, then writes one artifact per sensor.
// Rejected records do not change the exit code; a failed artifact does.
func runIngest(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("ingest", stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: sensorlog ingest [-config file] <input-file>")
		fmt.Fprintln(stderr, "example: sensorlog ingest dados_sensores.txt")
		return exitUsage
	}
	inputPath := fs.Arg(0)

	cfg, backend, err := setup(ctx, *configPath, stderr)
	if err != nil {
		return exitCode(err, stderr)
	}
	defer backend.Close()
	log := cmdLogger()

	opts, err := export.OptionsFromConfig(cfg)
	if err != nil {
		return exitCode(fmt.Errorf("%w: %v", errUsage, err), stderr)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: failed to open input: %v\n", err)
		return exitIO
	}
	defer f.Close()

	pipeline := ingest.NewPipeline(cfg.Ingest, metrics.Get(), logger.Get("ingest"))
	result, err := pipeline.Run(ctx, f)
	if err != nil {
		fmt.Fprintf(stderr, "error: ingestion aborted: %v\n", err)
		return exitIO
	}

	fmt.Fprintf(stdout, "Processed %d lines: %d accepted, %d rejected, %d sensors.\n",
		result.Lines, result.Accepted, result.Rejected(), result.Store.Len())
	if result.RegistrationFailures > 0 {
		fmt.Fprintf(stdout, "%d records could not register a sensor.\n", result.RegistrationFailures)
	}
	fmt.Fprintln(stdout, "Writing per-sensor files in descending order...")

	emitter := export.NewEmitter(backend, opts, metrics.Get(), logger.Get("export"))
	report, err := emitter.EmitRun(ctx, result.RunID, result.Store)
	if err != nil {
		fmt.Fprintf(stderr, "error: emission aborted: %v\n", err)
		return exitIO
	}
	if err := report.WriteSummary(stdout); err != nil {
		return exitIO
	}
	metrics.Get().LogSnapshot()

	if failed := report.Failed(); len(failed) > 0 {
		log.Error().Int("failed", len(failed)).Str("run_id", report.RunID).Msg("Some artifacts could not be written")
		fmt.Fprintf(stdout, "Finished with %d failed artifacts.\n", len(failed))
		return exitIO
	}
	fmt.Fprintln(stdout, "Finished successfully.")
	return exitOK
}
