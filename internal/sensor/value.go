package sensor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a tagged variant holding exactly one payload selected by Kind.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// IntegerValue wraps v as an integer value.
func IntegerValue(v int64) Value { return Value{kind: KindInteger, i: v} }

// FloatValue wraps v as a float value. Literals beyond float64 range are held
// as ±Inf.
func FloatValue(v float64) Value { return Value{kind: KindFloat, f: v} }

// BooleanValue wraps v as a boolean value.
func BooleanValue(v bool) Value { return Value{kind: KindBoolean, b: v} }

// StringValue wraps s as a string value. Length is not checked here;
// ParseValue enforces the 1..MaxTokenLen bound on input tokens.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool     { return v.b }
func (v Value) Str() string    { return v.s }

// Render form of an overflowed float. It is still a decimal literal, so it
// re-infers as a float and reparses to the same infinity.
const (
	posInfLiteral = "1e999"
	negInfLiteral = "-1e999"
)

// Format renders v the way series artifacts store it: integers in decimal,
// floats with two decimals, booleans as lowercase literals, strings raw.
// Infinite floats render as posInfLiteral or negInfLiteral.
func (v Value) Format() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		switch {
		case math.IsInf(v.f, 1):
			return posInfLiteral
		case math.IsInf(v.f, -1):
			return negInfLiteral
		}
		return strconv.FormatFloat(v.f, 'f', 2, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Format() }

// ParseValue reparses token under an already frozen kind.
func ParseValue(kind Kind, token string) (Value, error) {
	switch kind {
	case KindInteger:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, token)
		}
		return IntegerValue(n), nil
	case KindFloat:
		if !isDecimalFloat(token) {
			return Value{}, fmt.Errorf("%w: %q is not a decimal float", ErrTypeMismatch, token)
		}
		// Overflow still yields ±Inf together with ErrRange
		f, err := strconv.ParseFloat(token, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: %q is not a decimal float", ErrTypeMismatch, token)
		}
		return FloatValue(f), nil
	case KindBoolean:
		if !isBoolean(token) {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, token)
		}
		return BooleanValue(strings.EqualFold(token, "true")), nil
	case KindString:
		if n := len(token); n < 1 || n > MaxTokenLen {
			return Value{}, fmt.Errorf("%w: string token must be 1..%d bytes", ErrTypeInvalid, MaxTokenLen)
		}
		return StringValue(token), nil
	default:
		return Value{}, ErrTypeInvalid
	}
}

// InferValue infers the kind of token and parses it under that kind.
func InferValue(token string) (Value, error) {
	kind := Infer(token)
	if kind == KindInvalid {
		return Value{}, fmt.Errorf("%w: %q", ErrTypeInvalid, token)
	}
	return ParseValue(kind, token)
}
