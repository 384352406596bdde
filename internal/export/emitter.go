// Package export writes one series artifact per sensor after ingestion.
package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/basekick-labs/sensorlog/internal/config"
	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/sensor"
	"github.com/basekick-labs/sensorlog/internal/seriesfile"
	"github.com/basekick-labs/sensorlog/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options controls where and how artifacts are written.
type Options struct {
	Prefix      string
	Compression seriesfile.Compression
	Workers     int
	Manifest    bool
}

// OptionsFromConfig builds emitter options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	c, err := seriesfile.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Prefix:      cfg.Storage.Prefix,
		Compression: c,
		Workers:     cfg.Export.Workers,
		Manifest:    cfg.Export.Manifest,
	}, nil
}

// Artifact is the outcome of writing one sensor.
type Artifact struct {
	SensorID string
	Kind     sensor.Kind
	Count    int
	Path     string
	Bytes    int
	Err      error
}

// Report summarizes an emission run. Artifacts follow sensor creation order.
type Report struct {
	RunID        string
	Artifacts    []Artifact
	ManifestPath string
	ManifestErr  error
	Duration     time.Duration
}

// Failed returns the artifacts that could not be written.
func (r *Report) Failed() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Written returns the number of artifacts stored successfully.
func (r *Report) Written() int {
	return len(r.Artifacts) - len(r.Failed())
}

// WriteSummary prints one line per artifact.
func (r *Report) WriteSummary(w io.Writer) error {
	for _, a := range r.Artifacts {
		var err error
		if a.Err != nil {
			_, err = fmt.Fprintf(w, "  - %s: FAILED (%v)\n", a.Path, a.Err)
		} else {
			_, err = fmt.Fprintf(w, "  - %s: %d readings (%s), descending\n", a.Path, a.Count, a.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Emitter sorts, encodes and stores every sensor of a store.
type Emitter struct {
	backend storage.Backend
	opts    Options
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewEmitter creates an emitter. A nil m uses the process-wide metrics.
func NewEmitter(backend storage.Backend, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Emitter {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Compression == "" {
		opts.Compression = seriesfile.CompressionNone
	}
	if m == nil {
		m = metrics.Get()
	}
	return &Emitter{
		backend: backend,
		opts:    opts,
		metrics: m,
		logger:  logger.With().Str("component", "export").Logger(),
	}
}

// Emit writes every sensor of st under a fresh run id.
func (e *Emitter) Emit(ctx context.Context, st *sensor.Store) (*Report, error) {
	return e.EmitRun(ctx, uuid.NewString(), st)
}

// EmitRun writes every sensor of st. A failed artifact is recorded in the
// report and does not stop the others. Every sensor's buffer is released once
// its artifact has been attempted. The returned error is non-nil only when ctx
// is cancelled; sensors not attempted by then keep their readings.
func (e *Emitter) EmitRun(ctx context.Context, runID string, st *sensor.Store) (*Report, error) {
	start := time.Now()
	sensors := st.Sensors()
	report := &Report{
		RunID:     runID,
		Artifacts: make([]Artifact, len(sensors)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, s := range sensors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Artifacts[i] = Artifact{SensorID: s.ID(), Kind: s.Kind(), Count: s.Len(), Err: err}
				return err
			}
			report.Artifacts[i] = e.emitSensor(gctx, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	if e.opts.Manifest {
		report.ManifestPath = ManifestPath(e.opts.Prefix)
		if err := e.writeManifest(ctx, report); err != nil {
			report.ManifestErr = err
			e.logger.Warn().Err(err).Str("path", report.ManifestPath).Msg("Failed to write run manifest")
		}
	}
	report.Duration = time.Since(start)

	e.logger.Info().
		Str("run_id", runID).
		Int("sensors", len(sensors)).
		Int("written", report.Written()).
		Int("failed", len(report.Failed())).
		Dur("duration", report.Duration).
		Msg("Emission complete")

	return report, nil
}

// emitSensor only touches s, so workers never share state.
func (e *Emitter) emitSensor(ctx context.Context, s *sensor.Sensor) Artifact {
	defer s.Series().Release()

	a := Artifact{
		SensorID: s.ID(),
		Kind:     s.Kind(),
		Count:    s.Len(),
		Path:     seriesfile.ArtifactPath(e.opts.Prefix, s.ID(), e.opts.Compression),
	}

	s.Series().SortDescending()

	data, err := seriesfile.EncodeBytes(s)
	if err == nil {
		data, err = seriesfile.Compress(data, e.opts.Compression)
	}
	if err == nil {
		err = e.backend.Write(ctx, a.Path, data)
	}
	if err != nil {
		a.Err = err
		e.metrics.IncArtifactsFailed()
		e.logger.Error().Err(err).Str("sensor", s.ID()).Str("path", a.Path).Msg("Failed to write artifact")
		return a
	}

	a.Bytes = len(data)
	e.metrics.IncArtifactsWritten()
	e.metrics.IncReadingsWritten(int64(a.Count))
	e.metrics.IncBytesWritten(int64(a.Bytes))
	e.logger.Debug().
		Str("sensor", s.ID()).
		Str("path", a.Path).
		Int("readings", a.Count).
		Int("bytes", a.Bytes).
		Msg("Wrote artifact")
	return a
}

func (e *Emitter) writeManifest(ctx context.Context, report *Report) error {
	m := &Manifest{
		RunID:       report.RunID,
		CreatedAt:   time.Now().UTC(),
		Compression: string(e.opts.Compression),
		Sensors:     make([]ManifestEntry, 0, len(report.Artifacts)),
	}
	for _, a := range report.Artifacts {
		m.Sensors = append(m.Sensors, ManifestEntry{
			ID:     a.SensorID,
			Kind:   a.Kind.String(),
			Count:  a.Count,
			Path:   a.Path,
			Failed: a.Err != nil,
		})
	}

	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	return e.backend.Write(ctx, report.ManifestPath, data)
}
