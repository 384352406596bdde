package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/basekick-labs/sensorlog/internal/config"
	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/sensor"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default line limit when the configuration leaves it unset
const defaultMaxLineBytes = 64 * 1024

// Result summarizes one ingestion run.
type Result struct {
	RunID                string
	Lines                int
	Accepted             int
	Skipped              int // blank lines
	RegistrationFailures int
	Rejections           []*RecordError
	Store                *sensor.Store
	Duration             time.Duration
}

// Rejected returns the number of rejected records.
func (r *Result) Rejected() int { return len(r.Rejections) }

// Pipeline reads records line by line into a fresh store. A Pipeline holds no
// per-run state and may be reused for sequential runs.
type Pipeline struct {
	maxLineBytes      int
	maxBufferCapacity int
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// NewPipeline creates a pipeline. A nil m uses the process-wide metrics.
func NewPipeline(cfg config.IngestConfig, m *metrics.Metrics, logger zerolog.Logger) *Pipeline {
	maxLine := int(cfg.MaxLineBytes)
	if maxLine <= 0 {
		maxLine = defaultMaxLineBytes
	}
	if m == nil {
		m = metrics.Get()
	}
	return &Pipeline{
		maxLineBytes:      maxLine,
		maxBufferCapacity: cfg.MaxBufferCapacity,
		metrics:           m,
		logger:            logger.With().Str("component", "ingest").Logger(),
	}
}

// Run ingests every line of r. Rejected records, including lines longer than
// the configured limit, are collected in the result and ingestion continues.
// Only an allocation failure, a read error or a cancelled context stops the
// run, and those are returned as errors together with the partial result.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID: uuid.NewString(),
		Store: sensor.NewStore(p.maxBufferCapacity),
	}
	log := p.logger.With().Str("run_id", res.RunID).Logger()

	lines := newLineReader(r, p.maxLineBytes)

	for {
		line, tooLong, err := lines.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Duration = time.Since(start)
			log.Error().Err(err).Int("line", res.Lines+1).Msg("Failed to read input")
			return res, fmt.Errorf("read input line %d: %w", res.Lines+1, err)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Lines++
		p.metrics.IncIngestLines()

		if tooLong {
			p.reject(res, line, fmt.Errorf("%w: line exceeds %d bytes", ErrMalformedRecord, p.maxLineBytes), log)
			continue
		}
		if strings.TrimSpace(line) == "" {
			res.Skipped++
			p.metrics.IncIngestSkipped()
			continue
		}

		err = p.ingestLine(res.Store, line)
		switch {
		case err == nil:
			res.Accepted++
			p.metrics.IncIngestAccepted()
		case errors.Is(err, sensor.ErrAllocationFailure):
			log.Error().Err(err).Int("line", res.Lines).Msg("Reading buffer exhausted, aborting ingestion")
			res.Duration = time.Since(start)
			return res, fmt.Errorf("line %d: %w", res.Lines, err)
		default:
			p.reject(res, line, err, log)
		}
	}
	res.Duration = time.Since(start)

	log.Info().
		Int("lines", res.Lines).
		Int("accepted", res.Accepted).
		Int("rejected", res.Rejected()).
		Int("sensors", res.Store.Len()).
		Dur("duration", res.Duration).
		Msg("Ingestion complete")

	return res, nil
}

func (p *Pipeline) ingestLine(st *sensor.Store, line string) error {
	rec, err := ParseRecord(line)
	if err != nil {
		return err
	}
	if !sensor.TimestampInRange(rec.Timestamp) {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrTimestampOutOfRange,
			rec.Timestamp, sensor.MinTimestamp, sensor.MaxTimestamp)
	}

	s, created, err := st.FindOrCreate(rec.SensorID, rec.Token)
	if err != nil {
		return err
	}
	if created {
		p.metrics.IncSensorsCreated()
		p.logger.Debug().
			Str("sensor", s.ID()).
			Str("kind", s.Kind().String()).
			Msg("Sensor registered")
	}

	// Existing sensors keep their kind; each token is classified on its own
	if kind := sensor.Infer(rec.Token); kind != s.Kind() {
		return fmt.Errorf("%w: sensor %q is %s, got %s %q",
			sensor.ErrTypeMismatch, s.ID(), s.Kind(), kind, rec.Token)
	}

	value, err := sensor.ParseValue(s.Kind(), rec.Token)
	if err != nil {
		return err
	}
	return st.Append(s, rec.Timestamp, value)
}

func (p *Pipeline) reject(res *Result, line string, err error, log zerolog.Logger) {
	res.Rejections = append(res.Rejections, &RecordError{Line: res.Lines, Record: line, Err: err})
	if isRegistrationFailure(err) {
		res.RegistrationFailures++
		p.metrics.IncRegistrationFailures()
	}
	p.countRejection(err)
	log.Warn().Err(err).Int("line", res.Lines).Msg("Record rejected")
}

// isRegistrationFailure reports rejections that happened while creating a sensor
func isRegistrationFailure(err error) bool {
	return errors.Is(err, sensor.ErrTypeInvalid) ||
		errors.Is(err, sensor.ErrCapacityExceeded) ||
		errors.Is(err, sensor.ErrInvalidSensorID)
}

func (p *Pipeline) countRejection(err error) {
	switch {
	case errors.Is(err, ErrMalformedRecord):
		p.metrics.IncMalformed()
	case errors.Is(err, ErrTimestampOutOfRange):
		p.metrics.IncOutOfRange()
	case errors.Is(err, sensor.ErrTypeInvalid):
		p.metrics.IncTypeInvalid()
	case errors.Is(err, sensor.ErrTypeMismatch):
		p.metrics.IncTypeMismatch()
	case errors.Is(err, sensor.ErrCapacityExceeded):
		p.metrics.IncCapacityExceeded()
	}
}
