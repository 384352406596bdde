// Package sensor holds the in-memory model of an ingestion run: typed values,
// per-sensor reading series and the bounded sensor store.
//
// A sensor's kind is inferred once from its first accepted value token and is
// frozen for the rest of the run. Later tokens are re-inferred only to check
// that they still classify the same way.
package sensor

import (
	"errors"
	"strconv"
	"strings"
)

// MaxTokenLen is the longest sensor id or value token, in bytes.
const MaxTokenLen = 16

// Kind is the data type of a sensor's values.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Valid reports whether k is one of the four storable kinds.
func (k Kind) Valid() bool {
	return k >= KindInteger && k <= KindString
}

// Infer classifies a raw value token. The checks run in a fixed order:
// boolean, integer, float, string. Numeric literals are also short strings,
// so the order decides the result.
func Infer(token string) Kind {
	if isBoolean(token) {
		return KindBoolean
	}
	if isInteger(token) {
		return KindInteger
	}
	if isDecimalFloat(token) {
		return KindFloat
	}
	if n := len(token); n >= 1 && n <= MaxTokenLen {
		return KindString
	}
	return KindInvalid
}

func isBoolean(token string) bool {
	return strings.EqualFold(token, "true") || strings.EqualFold(token, "false")
}

func isInteger(token string) bool {
	_, err := strconv.ParseInt(token, 10, 64)
	return err == nil
}

// isDecimalFloat accepts only decimal notation. strconv.ParseFloat alone would
// also take hex floats, "inf", "nan" and underscores. A literal outside
// float64 range is still fully parsed, so ErrRange counts as a float.
func isDecimalFloat(token string) bool {
	if token == "" {
		return false
	}
	digits := false
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '+', c == '-', c == '.', c == 'e', c == 'E':
		default:
			return false
		}
	}
	if !digits {
		return false
	}
	_, err := strconv.ParseFloat(token, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}
