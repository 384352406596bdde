package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/basekick-labs/sensorlog/internal/logger"
	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/query"
	"github.com/basekick-labs/sensorlog/internal/sensor"
)

const rule = "--------------------------------------------"

// runQuery prints the stored reading nearest to a timestamp
func runQuery(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("query", stderr)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: sensorlog query [-config file] <sensor_id> <timestamp>")
		fmt.Fprintln(stderr, "example: sensorlog query TEMP 1630000000")
		return exitUsage
	}
	sensorID := fs.Arg(0)
	target, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "error: invalid timestamp %q\n", fs.Arg(1))
		return exitUsage
	}

	cfg, backend, err := setup(ctx, *configPath, stderr)
	if err != nil {
		return exitCode(err, stderr)
	}
	defer backend.Close()

	r := query.NewRetriever(backend, cfg.Storage.Prefix, metrics.Get(), logger.Get("query"))
	match, err := r.Lookup(ctx, sensorID, target)
	switch {
	case err == nil:
	case errors.Is(err, query.ErrTimestampOutOfRange):
		fmt.Fprintln(stderr, "error: timestamp must lie between 2000-01-01 and 2100-01-01")
		return exitUsage
	case errors.Is(err, query.ErrEmptySeries):
		fmt.Fprintf(stdout, "Series for sensor '%s' is empty.\n", sensorID)
		return exitEmpty
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitIO
	}

	fmt.Fprintf(stdout, "\nNearest reading for sensor '%s':\n", sensorID)
	fmt.Fprintln(stdout, rule)
	fmt.Fprintf(stdout, "Timestamp: %d\n", match.Reading.Timestamp)
	fmt.Fprintf(stdout, "Value: %s (%s)\n", match.Reading.Value.Format(), kindLabel(match.Reading.Value.Kind()))
	fmt.Fprintf(stdout, "Distance: %d seconds\n", match.Distance)
	fmt.Fprintln(stdout, rule)
	return exitOK
}

func kindLabel(k sensor.Kind) string {
	switch k {
	case sensor.KindInteger:
		return "Integer"
	case sensor.KindFloat:
		return "Decimal"
	case sensor.KindBoolean:
		return "Boolean"
	case sensor.KindString:
		return "String"
	default:
		return "Unknown"
	}
}
