package binding

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// ConverterFunc converts a string parameter into a value of a specific type.
type ConverterFunc func(value string) (any, error)

// builtinConverters handles types whose string form is not covered by their
// reflect kind.
var builtinConverters = map[reflect.Type]ConverterFunc{
	reflect.TypeFor[uuid.UUID]():     ParseUUID,
	reflect.TypeFor[time.Time]():     ParseTime,
	reflect.TypeFor[time.Duration](): ParseDuration,
}

// ParseUUID parses a string parameter to uuid.UUID
func ParseUUID(value string) (any, error) {
	return uuid.Parse(value)
}

// ParseTime parses an RFC 3339 timestamp, or a plain date in UTC.
func ParseTime(value string) (any, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t, nil
	}
	if d, dateErr := time.Parse(time.DateOnly, value); dateErr == nil {
		return d, nil
	}
	return nil, err
}

// ParseDuration parses a Go duration string such as "1h30m".
func ParseDuration(value string) (any, error) {
	return time.ParseDuration(value)
}
