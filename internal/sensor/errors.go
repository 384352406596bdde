package sensor

import "errors"

var (
	// ErrTypeInvalid indicates a token that classifies as no storable kind.
	ErrTypeInvalid = errors.New("invalid value type")

	// ErrTypeMismatch indicates a token whose kind differs from the sensor's frozen kind.
	ErrTypeMismatch = errors.New("value type does not match sensor type")

	// ErrCapacityExceeded indicates the store already holds MaxSensors sensors.
	ErrCapacityExceeded = errors.New("maximum number of sensors reached")

	// ErrAllocationFailure indicates a reading buffer could not grow.
	// It is fatal for the whole ingestion run.
	ErrAllocationFailure = errors.New("reading buffer cannot grow")

	// ErrSensorNotFound indicates no sensor with the requested id exists.
	ErrSensorNotFound = errors.New("sensor not found")

	// ErrInvalidSensorID indicates an empty or oversized sensor id.
	ErrInvalidSensorID = errors.New("invalid sensor id")
)
