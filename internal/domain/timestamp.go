package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the canonical timestamp format: UTC, millisecond precision,
// fixed width. Fixed width matters because both database dialects store
// timestamps as text and the conflict-resolution predicate compares them
// lexically; any variable-width format would break ordering.
const Layout = "2006-01-02T15:04:05.000Z"

// Timestamp is a UTC wall-clock instant with millisecond precision.
// The zero value means "unset" and is stored as SQL NULL, which is how
// deleted_at distinguishes live rows from tombstones.
type Timestamp struct {
	t time.Time
}

// Now returns the current instant truncated to the canonical precision.
func Now() Timestamp {
	return At(time.Now())
}

// At converts a time.Time to a Timestamp, normalizing to UTC milliseconds.
func At(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Millisecond)}
}

// Parse parses a canonical or RFC 3339 timestamp string.
func Parse(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range []string{Layout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return At(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool { return ts.t.IsZero() }

// Time returns the underlying time.Time.
func (ts Timestamp) Time() time.Time { return ts.t }

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool { return ts.t.After(other.t) }

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool { return ts.t.Before(other.t) }

// Equal reports whether ts and other name the same instant.
func (ts Timestamp) Equal(other Timestamp) bool { return ts.t.Equal(other.t) }

// Add returns the timestamp shifted by d, renormalized.
func (ts Timestamp) Add(d time.Duration) Timestamp { return At(ts.t.Add(d)) }

// String returns the canonical representation, or "" when unset.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.t.Format(Layout)
}

// Value implements driver.Valuer. Unset timestamps become NULL.
func (ts Timestamp) Value() (driver.Value, error) {
	if ts.IsZero() {
		return nil, nil
	}
	return ts.String(), nil
}

// Scan implements sql.Scanner. Accepts NULL, text, and native time values
// so the same type works against sqlite (text) and postgres drivers.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = Timestamp{}
		return nil
	case time.Time:
		*ts = At(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

// MarshalJSON encodes the canonical string, or null when unset.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON accepts null and timestamp strings.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// Flag is a boolean persisted as 0/1. sqlite has no native boolean and
// database/sql will not coerce an int64 column into a Go bool, so flag
// columns go through this type in both dialects.
type Flag bool

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	if f {
		return int64(1), nil
	}
	return int64(0), nil
}

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case int64:
		*f = v != 0
	case []byte:
		*f = len(v) > 0 && v[0] != '0' && v[0] != 0
	case string:
		*f = v != "" && v != "0" && v != "false"
	default:
		return fmt.Errorf("cannot scan %T into Flag", src)
	}
	return nil
}
