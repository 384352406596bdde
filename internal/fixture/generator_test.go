package fixture

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/basekick-labs/sensorlog/internal/config"
	"github.com/basekick-labs/sensorlog/internal/ingest"
	"github.com/basekick-labs/sensorlog/internal/metrics"
	"github.com/basekick-labs/sensorlog/internal/sensor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	windowStart = time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
)

func TestParseKind(t *testing.T) {
	tests := map[string]sensor.Kind{
		"int":     sensor.KindInteger,
		"CONJ_Z":  sensor.KindInteger,
		"float":   sensor.KindFloat,
		"conj_q":  sensor.KindFloat,
		"bool":    sensor.KindBoolean,
		"BINARIO": sensor.KindBoolean,
		"string":  sensor.KindString,
		"TEXTO":   sensor.KindString,
	}
	for name, want := range tests {
		got, err := ParseKind(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseKind("DECIMAL")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	records, err := Generate(Options{
		Start:     windowStart,
		End:       windowEnd,
		PerSensor: 300,
		Seed:      7,
		Logger:    zerolog.Nop(),
		Sensors: []SensorSpec{
			{"TEMP", "CONJ_Q"},
			{"UMID", "int"},
			{"DOOR", "bool"},
			{"NOTE", "TEXTO"},
			{"BAD", "COMPLEX"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, records, 4*300)

	wantKind := map[string]sensor.Kind{
		"TEMP": sensor.KindFloat,
		"UMID": sensor.KindInteger,
		"DOOR": sensor.KindBoolean,
		"NOTE": sensor.KindString,
	}
	counts := map[string]int{}
	for _, r := range records {
		counts[r.SensorID]++
		assert.GreaterOrEqual(t, r.Timestamp, windowStart.Unix())
		assert.Less(t, r.Timestamp, windowEnd.Unix())
		assert.Equal(t, wantKind[r.SensorID], sensor.Infer(r.Token), "%s %q", r.SensorID, r.Token)
		assert.LessOrEqual(t, len(r.Token), sensor.MaxTokenLen)

		switch r.SensorID {
		case "UMID":
			v, err := sensor.ParseValue(sensor.KindInteger, r.Token)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, v.Int(), int64(0))
			assert.Less(t, v.Int(), int64(10000))
		case "TEMP":
			v, err := sensor.ParseValue(sensor.KindFloat, r.Token)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, v.Float(), 0.0)
			assert.LessOrEqual(t, v.Float(), 500.0)
		}
	}
	assert.NotContains(t, counts, "BAD")
	for id := range wantKind {
		assert.Equal(t, 300, counts[id], id)
	}
}

func TestGenerate_Shuffled(t *testing.T) {
	records, err := Generate(Options{
		Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, PerSensor: 100, Seed: 3,
		Sensors: []SensorSpec{{"A", "int"}, {"B", "int"}},
	})
	require.NoError(t, err)

	// Unshuffled output would start with 100 readings of A
	firstB := -1
	for i, r := range records {
		if r.SensorID == "B" {
			firstB = i
			break
		}
	}
	assert.Less(t, firstB, 100)
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := Options{
		Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, PerSensor: 50, Seed: 99,
		Sensors: []SensorSpec{{"A", "string"}, {"B", "float"}},
	}
	a, err := Generate(opts)
	require.NoError(t, err)
	b, err := Generate(opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerate_DefaultPerSensor(t *testing.T) {
	records, err := Generate(Options{Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, Seed: 1,
		Sensors: []SensorSpec{{"A", "bool"}}})
	require.NoError(t, err)
	assert.Len(t, records, DefaultPerSensor)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(Options{Logger: zerolog.Nop(), Start: windowEnd, End: windowStart, Sensors: []SensorSpec{{"A", "int"}}})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Generate(Options{Logger: zerolog.Nop(), Start: windowStart, End: windowStart, Sensors: []SensorSpec{{"A", "int"}}})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Generate(Options{Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, Sensors: []SensorSpec{{"A", "nope"}}})
	assert.ErrorIs(t, err, ErrNoSensors)

	_, err = Generate(Options{Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, Sensors: []SensorSpec{{"ABCDEFGHIJKLMNOPQ", "int"}}})
	assert.ErrorIs(t, err, sensor.ErrInvalidSensorID)
}

func TestWrite_FeedsPipeline(t *testing.T) {
	records, err := Generate(Options{
		Logger: zerolog.Nop(), Start: windowStart, End: windowEnd, PerSensor: 250, Seed: 11,
		Sensors: []SensorSpec{{"TEMP", "float"}, {"DOOR", "bool"}, {"NOTE", "string"}},
	})
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, Write(&b, records))
	assert.Equal(t, len(records), strings.Count(b.String(), "\n"))

	p := ingest.NewPipeline(config.IngestConfig{}, metrics.New(), zerolog.Nop())
	res, err := p.Run(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, len(records), res.Accepted)
	assert.Empty(t, res.Rejections)
	assert.Equal(t, 3, res.Store.Len())
}
