package sensor

import "fmt"

// Accepted timestamp range in epoch seconds: 2000-01-01T00:00:00Z to 2100-01-01T00:00:00Z.
const (
	MinTimestamp int64 = 946684800
	MaxTimestamp int64 = 4102444800
)

// MaxSensors is the number of distinct sensors a store may hold.
const MaxSensors = 50

// TimestampInRange reports whether ts lies in [MinTimestamp, MaxTimestamp].
func TimestampInRange(ts int64) bool {
	return ts >= MinTimestamp && ts <= MaxTimestamp
}

// Sensor is a named series whose kind is frozen at creation.
type Sensor struct {
	id     string
	kind   Kind
	series *Series
}

func (s *Sensor) ID() string      { return s.id }
func (s *Sensor) Kind() Kind      { return s.kind }
func (s *Sensor) Series() *Series { return s.series }
func (s *Sensor) Len() int        { return s.series.Len() }

// Store maps sensor ids to sensors for a single ingestion run.
// It is not safe for concurrent mutation.
type Store struct {
	sensors     map[string]*Sensor
	order       []string
	maxCapacity int
}

// NewStore creates an empty store. maxCapacity is passed to every sensor's
// series; 0 leaves buffer growth unbounded.
func NewStore(maxCapacity int) *Store {
	return &Store{
		sensors:     make(map[string]*Sensor),
		maxCapacity: maxCapacity,
	}
}

// FindOrCreate returns the sensor with the given id, creating it with the kind
// inferred from firstToken when absent. A failed creation leaves the store
// unchanged.
func (st *Store) FindOrCreate(id, firstToken string) (*Sensor, bool, error) {
	if s, ok := st.sensors[id]; ok {
		return s, false, nil
	}
	if id == "" || len(id) > MaxTokenLen {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidSensorID, id)
	}
	if len(st.sensors) >= MaxSensors {
		return nil, false, fmt.Errorf("%w: cannot register %q", ErrCapacityExceeded, id)
	}
	kind := Infer(firstToken)
	if kind == KindInvalid {
		return nil, false, fmt.Errorf("%w: sensor %q first value %q", ErrTypeInvalid, id, firstToken)
	}

	s := &Sensor{
		id:     id,
		kind:   kind,
		series: NewSeries(st.maxCapacity),
	}
	st.sensors[id] = s
	st.order = append(st.order, id)
	return s, true, nil
}

// Append adds a reading to s. The value must carry the sensor's kind.
func (st *Store) Append(s *Sensor, timestamp int64, value Value) error {
	if value.Kind() != s.kind {
		return fmt.Errorf("%w: sensor %q is %s, got %s", ErrTypeMismatch, s.id, s.kind, value.Kind())
	}
	return s.series.Append(Reading{Timestamp: timestamp, Value: value})
}

// Get returns the sensor with the given id.
func (st *Store) Get(id string) (*Sensor, error) {
	s, ok := st.sensors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSensorNotFound, id)
	}
	return s, nil
}

// Len returns the number of sensors.
func (st *Store) Len() int { return len(st.sensors) }

// Sensors returns all sensors in creation order.
func (st *Store) Sensors() []*Sensor {
	out := make([]*Sensor, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.sensors[id])
	}
	return out
}
