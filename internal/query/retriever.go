package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/sensor"
	"github.com/basekick-labs/sensorlog/internal/seriesfile"
	"github.com/basekick-labs/sensorlog/internal/storage"
	"github.com/rs/zerolog"
)

var (
	// ErrTimestampOutOfRange indicates a lookup target outside the accepted window.
	ErrTimestampOutOfRange = errors.New("timestamp out of range")

	// ErrSeriesNotFound indicates no artifact exists for the requested sensor.
	ErrSeriesNotFound = errors.New("series artifact not found")
)

// Match is the reading closest to a lookup target.
type Match struct {
	SensorID string
	Path     string
	Reading  sensor.Reading
	Index    int // position in the descending series
	Distance uint64
	Loaded   int  // readings decoded from the artifact
	Skipped  int  // artifact lines that did not decode
	Resorted bool // artifact was out of order and sorted before the search
}

// Retriever answers nearest-timestamp lookups against stored artifacts.
type Retriever struct {
	backend storage.Backend
	prefix  string
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewRetriever creates a retriever reading artifacts under prefix. A nil m
// uses the process-wide metrics.
func NewRetriever(backend storage.Backend, prefix string, m *metrics.Metrics, logger zerolog.Logger) *Retriever {
	if m == nil {
		m = metrics.Get()
	}
	return &Retriever{
		backend: backend,
		prefix:  prefix,
		metrics: m,
		logger:  logger.With().Str("component", "query").Logger(),
	}
}

// Lookup loads the artifact of sensorID and returns the reading nearest to
// target. An artifact with no decodable readings yields ErrEmptySeries.
func (r *Retriever) Lookup(ctx context.Context, sensorID string, target int64) (*Match, error) {
	start := time.Now()
	r.metrics.IncQueryRequests()
	defer func() { r.metrics.RecordQueryLatency(time.Since(start).Microseconds()) }()

	if !sensor.TimestampInRange(target) {
		r.metrics.IncQueryErrors()
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrTimestampOutOfRange,
			target, sensor.MinTimestamp, sensor.MaxTimestamp)
	}

	path, data, err := r.load(ctx, sensorID)
	if err != nil {
		r.metrics.IncQueryErrors()
		return nil, err
	}

	decoded, err := seriesfile.Decode(bytes.NewReader(data))
	if err != nil {
		r.metrics.IncQueryErrors()
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if decoded.Skipped > 0 {
		r.metrics.IncQueryLinesSkipped(int64(decoded.Skipped))
		r.logger.Warn().Str("path", path).Int("skipped", decoded.Skipped).Msg("Skipped undecodable artifact lines")
	}

	// Hand-edited artifacts may be out of order; the search needs descending input
	resorted := false
	if series := sensor.SeriesOf(decoded.Readings); !series.IsDescending() {
		r.logger.Warn().Str("path", path).Msg("Artifact is not in descending order, sorting before lookup")
		series.SortDescending()
		resorted = true
	}

	idx, dist, err := Nearest(decoded.Readings, target)
	if err != nil {
		r.metrics.IncQueryEmpty()
		return nil, fmt.Errorf("sensor %q: %w", sensorID, err)
	}
	r.metrics.IncQuerySuccess()

	m := &Match{
		SensorID: sensorID,
		Path:     path,
		Reading:  decoded.Readings[idx],
		Index:    idx,
		Distance: dist,
		Loaded:   len(decoded.Readings),
		Skipped:  decoded.Skipped,
		Resorted: resorted,
	}
	r.logger.Debug().
		Str("sensor", sensorID).
		Int64("target", target).
		Int64("timestamp", m.Reading.Timestamp).
		Uint64("distance", dist).
		Dur("duration", time.Since(start)).
		Msg("Lookup complete")
	return m, nil
}

// load returns the first artifact found for sensorID, trying the plain
// encoding before the compressed ones, already decompressed.
func (r *Retriever) load(ctx context.Context, sensorID string) (string, []byte, error) {
	for _, c := range seriesfile.AllCompressions {
		p := seriesfile.ArtifactPath(r.prefix, sensorID, c)
		data, err := r.backend.Read(ctx, p)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return p, nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		plain, err := seriesfile.Decompress(data, c)
		if err != nil {
			return p, nil, fmt.Errorf("failed to decompress %s: %w", p, err)
		}
		return p, plain, nil
	}
	return "", nil, fmt.Errorf("%w: sensor %q under %q", ErrSeriesNotFound, sensorID, r.prefix)
}
