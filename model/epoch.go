package model

import (
	"fmt"
	"time"
)

// epochLayout is the upstream OEM feed's timestamp shape: four-digit year,
// three-digit day of year, and microsecond precision, always UTC.
const epochLayout = "2006-002T15:04:05.000000Z"

// Epoch is a trajectory timestamp. The canonical string form doubles as the
// store key, so the two representations must round-trip exactly.
type Epoch struct {
	t time.Time
}

// ParseEpoch parses the canonical epoch string. Any other shape fails with
// ErrInvalidEpochFormat; this is the single parse site, used uniformly at
// ingest, at query arguments, and when rebuilding the store index.
func ParseEpoch(s string) (Epoch, error) {
	t, err := time.Parse(epochLayout, s)
	if err != nil {
		return Epoch{}, fmt.Errorf("%w: %q", ErrInvalidEpochFormat, s)
	}
	return Epoch{t: t.UTC()}, nil
}

// EpochAt converts a wall-clock instant into an Epoch, truncating to
// microsecond precision so that String round-trips through ParseEpoch.
func EpochAt(t time.Time) Epoch {
	return Epoch{t: t.UTC().Truncate(time.Microsecond)}
}

// String returns the canonical epoch string.
func (e Epoch) String() string {
	return e.t.UTC().Format(epochLayout)
}

// Time returns the epoch as a UTC time.Time.
func (e Epoch) Time() time.Time {
	return e.t
}

// IsZero reports whether the epoch is the zero value.
func (e Epoch) IsZero() bool {
	return e.t.IsZero()
}

// Before reports whether e precedes other.
func (e Epoch) Before(other Epoch) bool {
	return e.t.Before(other.t)
}

// DistanceTo returns the absolute time distance between the epoch and ref.
func (e Epoch) DistanceTo(ref time.Time) time.Duration {
	d := e.t.Sub(ref)
	if d < 0 {
		d = -d
	}
	return d
}

// MarshalJSON encodes the epoch as its canonical string.
func (e Epoch) MarshalJSON() ([]byte, error) {
	return []byte(`"` + e.String() + `"`), nil
}

// UnmarshalJSON decodes a canonical epoch string, enforcing the same shape
// check as ParseEpoch.
func (e *Epoch) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidEpochFormat, data)
	}
	parsed, err := ParseEpoch(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
