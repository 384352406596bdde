// Package seriesfile reads and writes per-sensor series artifacts.
//
// An artifact holds one reading per line, most recent first:
//
//	<timestamp> <formatted_value>
//
// No schema is stored. Readers re-infer every value token on its own.
package seriesfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/basekick-labs/sensorlog/internal/sensor"
)

// Encode writes the readings of s in their current order and returns the
// number of lines written.
func Encode(w io.Writer, s *sensor.Sensor) (int, error) {
	bw := bufio.NewWriter(w)
	readings := s.Series().Readings()
	for _, r := range readings {
		bw.WriteString(strconv.FormatInt(r.Timestamp, 10))
		bw.WriteByte(' ')
		bw.WriteString(r.Value.Format())
		if err := bw.WriteByte('\n'); err != nil {
			return 0, fmt.Errorf("failed to encode series %s: %w", s.ID(), err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush series %s: %w", s.ID(), err)
	}
	return len(readings), nil
}

// EncodeBytes renders s into a fresh buffer.
func EncodeBytes(s *sensor.Sensor) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s.Len() * 24)
	if _, err := Encode(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResult is the outcome of reading one artifact.
type DecodeResult struct {
	Readings []sensor.Reading
	Skipped  int // Lines that were blank, malformed or held an invalid token
}

// Decode parses an artifact. Each value token is classified independently,
// so a hand-edited file may mix kinds; lines that do not parse are skipped.
func Decode(r io.Reader) (*DecodeResult, error) {
	result := &DecodeResult{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		reading, ok := decodeLine(scanner.Text())
		if !ok {
			result.Skipped++
			continue
		}
		result.Readings = append(result.Readings, reading)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}
	return result, nil
}

func decodeLine(line string) (sensor.Reading, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return sensor.Reading{}, false
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return sensor.Reading{}, false
	}
	value, err := sensor.InferValue(fields[1])
	if err != nil {
		return sensor.Reading{}, false
	}
	return sensor.Reading{Timestamp: ts, Value: value}, true
}
