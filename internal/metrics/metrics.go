package metrics

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Metrics holds the process-wide sensorlog counters
type Metrics struct {
	startTime time.Time

	// Ingestion metrics
	ingestLinesTotal          atomic.Int64
	ingestRecordsAccepted     atomic.Int64
	ingestRecordsSkipped      atomic.Int64
	ingestSensorsCreated      atomic.Int64
	ingestRegistrationFailure atomic.Int64
	ingestMalformedTotal      atomic.Int64
	ingestOutOfRangeTotal     atomic.Int64
	ingestTypeInvalidTotal    atomic.Int64
	ingestTypeMismatchTotal   atomic.Int64
	ingestCapacityTotal       atomic.Int64

	// Export metrics
	exportArtifactsWritten atomic.Int64
	exportArtifactsFailed  atomic.Int64
	exportReadingsWritten  atomic.Int64
	exportBytesWritten     atomic.Int64

	// Query metrics
	queryRequestsTotal atomic.Int64
	querySuccessTotal  atomic.Int64
	queryEmptyTotal    atomic.Int64
	queryErrorsTotal   atomic.Int64
	queryLinesSkipped  atomic.Int64
	queryLatencySum    atomic.Int64 // microseconds
	queryLatencyCount  atomic.Int64

	logger zerolog.Logger
}

var (
	instance *Metrics
	once     sync.Once
)

// New returns an independent collector, mostly useful in tests
func New() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		logger:    zerolog.Nop(),
	}
}

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// Init initializes the metrics with a logger
func Init(logger zerolog.Logger) *Metrics {
	m := Get()
	m.logger = logger.With().Str("component", "metrics").Logger()
	m.logger.Debug().Msg("Metrics collector initialized")
	return m
}

// Ingestion Metrics
func (m *Metrics) IncIngestLines()                { m.ingestLinesTotal.Add(1) }
func (m *Metrics) IncIngestAccepted()             { m.ingestRecordsAccepted.Add(1) }
func (m *Metrics) IncIngestSkipped()              { m.ingestRecordsSkipped.Add(1) }
func (m *Metrics) IncSensorsCreated()             { m.ingestSensorsCreated.Add(1) }
func (m *Metrics) IncRegistrationFailures()       { m.ingestRegistrationFailure.Add(1) }
func (m *Metrics) IncMalformed()                  { m.ingestMalformedTotal.Add(1) }
func (m *Metrics) IncOutOfRange()                 { m.ingestOutOfRangeTotal.Add(1) }
func (m *Metrics) IncTypeInvalid()                { m.ingestTypeInvalidTotal.Add(1) }
func (m *Metrics) IncTypeMismatch()               { m.ingestTypeMismatchTotal.Add(1) }
func (m *Metrics) IncCapacityExceeded()           { m.ingestCapacityTotal.Add(1) }

// Export Metrics
func (m *Metrics) IncArtifactsWritten()           { m.exportArtifactsWritten.Add(1) }
func (m *Metrics) IncArtifactsFailed()            { m.exportArtifactsFailed.Add(1) }
func (m *Metrics) IncReadingsWritten(count int64) { m.exportReadingsWritten.Add(count) }
func (m *Metrics) IncBytesWritten(bytes int64)    { m.exportBytesWritten.Add(bytes) }

// Query Metrics
func (m *Metrics) IncQueryRequests()              { m.queryRequestsTotal.Add(1) }
func (m *Metrics) IncQuerySuccess()               { m.querySuccessTotal.Add(1) }
func (m *Metrics) IncQueryEmpty()                 { m.queryEmptyTotal.Add(1) }
func (m *Metrics) IncQueryErrors()                { m.queryErrorsTotal.Add(1) }
func (m *Metrics) IncQueryLinesSkipped(count int64) { m.queryLinesSkipped.Add(count) }

// RecordQueryLatency records query latency
func (m *Metrics) RecordQueryLatency(durationMicros int64) {
	m.queryLatencySum.Add(durationMicros)
	m.queryLatencyCount.Add(1)
}

// Snapshot returns all metrics as a map, suitable for zerolog Fields
func (m *Metrics) Snapshot() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		// Process info
		"uptime_seconds":     time.Since(m.startTime).Seconds(),
		"memory_alloc_bytes": memStats.Alloc,
		"gc_cycles":          memStats.NumGC,

		// Ingestion
		"ingest_lines_total":           m.ingestLinesTotal.Load(),
		"ingest_records_accepted":      m.ingestRecordsAccepted.Load(),
		"ingest_records_skipped":       m.ingestRecordsSkipped.Load(),
		"ingest_sensors_created":       m.ingestSensorsCreated.Load(),
		"ingest_registration_failures": m.ingestRegistrationFailure.Load(),
		"ingest_malformed_total":       m.ingestMalformedTotal.Load(),
		"ingest_out_of_range_total":    m.ingestOutOfRangeTotal.Load(),
		"ingest_type_invalid_total":    m.ingestTypeInvalidTotal.Load(),
		"ingest_type_mismatch_total":   m.ingestTypeMismatchTotal.Load(),
		"ingest_capacity_total":        m.ingestCapacityTotal.Load(),

		// Export
		"export_artifacts_written": m.exportArtifactsWritten.Load(),
		"export_artifacts_failed":  m.exportArtifactsFailed.Load(),
		"export_readings_written":  m.exportReadingsWritten.Load(),
		"export_bytes_written":     m.exportBytesWritten.Load(),

		// Query
		"query_requests_total": m.queryRequestsTotal.Load(),
		"query_success_total":  m.querySuccessTotal.Load(),
		"query_empty_total":    m.queryEmptyTotal.Load(),
		"query_errors_total":   m.queryErrorsTotal.Load(),
		"query_lines_skipped":  m.queryLinesSkipped.Load(),
		"query_latency_sum_us": m.queryLatencySum.Load(),
		"query_latency_count":  m.queryLatencyCount.Load(),
	}
}

// LogSnapshot writes the current counters at debug level
func (m *Metrics) LogSnapshot() {
	m.logger.Debug().Fields(m.Snapshot()).Msg("Metrics snapshot")
}
