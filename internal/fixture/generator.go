// Package fixture generates shuffled synthetic sensor logs for testing the
// ingestion pipeline.
package fixture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/basekick-labs/sensorlog/internal/ingest"
	"github.com/basekick-labs/sensorlog/internal/sensor"
	"github.com/rs/zerolog"
)

// DefaultPerSensor is the number of readings generated per sensor.
const DefaultPerSensor = 2000

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Longest random string value
const maxStringLen = 15

var (
	// ErrInvalidWindow indicates an end time not after the start time.
	ErrInvalidWindow = errors.New("end must be after start")

	// ErrNoSensors indicates that no requested sensor had a usable kind.
	ErrNoSensors = errors.New("no sensors to generate")
)

// SensorSpec names a sensor and the kind of values to generate for it.
type SensorSpec struct {
	ID   string
	Kind string
}

// Options configures a generation run.
type Options struct {
	Start     time.Time
	End       time.Time
	PerSensor int // 0 means DefaultPerSensor
	Sensors   []SensorSpec
	Seed      uint64 // 0 picks a random seed
	Logger    zerolog.Logger
}

// ParseKind maps a kind name to a sensor kind. Both the short names and the
// set-notation names (CONJ_Z, CONJ_Q, BINARIO, TEXTO) are accepted.
func ParseKind(name string) (sensor.Kind, error) {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER", "CONJ_Z":
		return sensor.KindInteger, nil
	case "FLOAT", "CONJ_Q":
		return sensor.KindFloat, nil
	case "BOOL", "BOOLEAN", "BINARIO":
		return sensor.KindBoolean, nil
	case "STRING", "TEXTO":
		return sensor.KindString, nil
	default:
		return sensor.KindInvalid, fmt.Errorf("unknown kind %q", name)
	}
}

// Generate produces PerSensor readings for every sensor with a known kind,
// timestamps uniform in [Start, End), then shuffles them all. Sensors with an
// unknown kind are skipped with a warning.
func Generate(opts Options) ([]ingest.Record, error) {
	start, end := opts.Start.Unix(), opts.End.Unix()
	if end <= start {
		return nil, fmt.Errorf("%w: %s <= %s", ErrInvalidWindow, opts.End.Format(time.RFC3339), opts.Start.Format(time.RFC3339))
	}
	perSensor := opts.PerSensor
	if perSensor <= 0 {
		perSensor = DefaultPerSensor
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	log := opts.Logger.With().Str("component", "fixture").Logger()

	var records []ingest.Record
	for _, spec := range opts.Sensors {
		if spec.ID == "" || len(spec.ID) > sensor.MaxTokenLen {
			return nil, fmt.Errorf("%w: %q", sensor.ErrInvalidSensorID, spec.ID)
		}
		kind, err := ParseKind(spec.Kind)
		if err != nil {
			log.Warn().Str("sensor", spec.ID).Str("kind", spec.Kind).Msg("Unknown kind, skipping sensor")
			continue
		}
		log.Debug().Str("sensor", spec.ID).Str("kind", kind.String()).Int("readings", perSensor).Msg("Generating sensor")

		for i := 0; i < perSensor; i++ {
			records = append(records, ingest.Record{
				Timestamp: start + rng.Int64N(end-start),
				SensorID:  spec.ID,
				Token:     randomToken(rng, kind),
			})
		}
	}
	if len(records) == 0 {
		return nil, ErrNoSensors
	}

	// Fisher-Yates
	for i := len(records) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func randomToken(rng *rand.Rand, kind sensor.Kind) string {
	switch kind {
	case sensor.KindInteger:
		return strconv.Itoa(rng.IntN(10000))
	case sensor.KindFloat:
		return strconv.FormatFloat(rng.Float64()*500, 'f', 2, 64)
	case sensor.KindBoolean:
		return strconv.FormatBool(rng.IntN(2) == 1)
	default:
		// Letters only, but "true" and "false" would infer as booleans
		for {
			n := 1 + rng.IntN(maxStringLen)
			b := make([]byte, n)
			for i := range b {
				b[i] = letters[rng.IntN(len(letters))]
			}
			if s := string(b); sensor.Infer(s) == sensor.KindString {
				return s
			}
		}
	}
}

// Write renders records in ingestion input format, one per line.
func Write(w io.Writer, records []ingest.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		bw.WriteString(r.String())
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("failed to write fixture: %w", err)
		}
	}
	return bw.Flush()
}
