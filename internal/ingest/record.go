// Package ingest turns a text log of sensor readings into a sensor.Store.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/basekick-labs/sensorlog/internal/sensor"
)

var (
	// ErrMalformedRecord indicates a line that is not "<timestamp> <id> <value>".
	ErrMalformedRecord = errors.New("malformed record")

	// ErrTimestampOutOfRange indicates a timestamp outside the accepted window.
	ErrTimestampOutOfRange = errors.New("timestamp out of range")
)

// Record is one parsed input line.
type Record struct {
	Timestamp int64
	SensorID  string
	Token     string
}

// String renders the record in input format.
func (r Record) String() string {
	return strconv.FormatInt(r.Timestamp, 10) + " " + r.SensorID + " " + r.Token
}

// ParseRecord splits line into exactly three whitespace-separated fields.
// It checks shape only; range and type checks belong to the pipeline.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedRecord, len(fields))
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedRecord, fields[0])
	}
	if len(fields[1]) > sensor.MaxTokenLen {
		return Record{}, fmt.Errorf("%w: sensor id longer than %d bytes", ErrMalformedRecord, sensor.MaxTokenLen)
	}
	if len(fields[2]) > sensor.MaxTokenLen {
		return Record{}, fmt.Errorf("%w: value longer than %d bytes", ErrMalformedRecord, sensor.MaxTokenLen)
	}

	return Record{Timestamp: ts, SensorID: fields[1], Token: fields[2]}, nil
}

// RecordError describes a rejected input line. It unwraps to the rejection
// kind so callers can match it with errors.Is.
type RecordError struct {
	Line   int
	Record string
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
