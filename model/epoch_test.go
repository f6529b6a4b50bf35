package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseEpoch_DayOfYear(t *testing.T) {
	// Day 55 of a non-leap year is February 24.
	e, err := ParseEpoch("2025-055T12:00:00.000000Z")
	if err != nil {
		t.Fatalf("ParseEpoch: %v", err)
	}

	want := time.Date(2025, time.February, 24, 12, 0, 0, 0, time.UTC)
	if !e.Time().Equal(want) {
		t.Fatalf("epoch time = %v, want %v", e.Time(), want)
	}
	if e.Time().Location() != time.UTC {
		t.Fatalf("epoch not normalized to UTC: %v", e.Time().Location())
	}
}

func TestParseEpoch_LeapYear(t *testing.T) {
	e, err := ParseEpoch("2024-060T00:00:00.000000Z")
	if err != nil {
		t.Fatalf("ParseEpoch: %v", err)
	}
	// Day 60 of a leap year is February 29.
	want := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if !e.Time().Equal(want) {
		t.Fatalf("epoch time = %v, want %v", e.Time(), want)
	}
}

func TestParseEpoch_RejectsOtherShapes(t *testing.T) {
	cases := []string{
		"Invalid-Epoch-Format",
		"",
		"2025-055T12:00:00Z",          // missing fraction
		"2025-055T12:00:00.000Z",      // wrong fraction width
		"2025-02-24T12:00:00.000000Z", // calendar date instead of day-of-year
		"2025-055 12:00:00.000000Z",   // missing T separator
		"2025-055T12:00:00.000000",    // missing Z
	}
	for _, raw := range cases {
		if _, err := ParseEpoch(raw); !errors.Is(err, ErrInvalidEpochFormat) {
			t.Fatalf("ParseEpoch(%q) error = %v, want ErrInvalidEpochFormat", raw, err)
		}
	}
}

func TestEpoch_StringRoundTrip(t *testing.T) {
	const raw = "2025-055T23:59:59.500000Z"
	e, err := ParseEpoch(raw)
	if err != nil {
		t.Fatalf("ParseEpoch: %v", err)
	}
	if got := e.String(); got != raw {
		t.Fatalf("String() = %q, want %q", got, raw)
	}

	again, err := ParseEpoch(e.String())
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if !again.Time().Equal(e.Time()) {
		t.Fatalf("round trip changed instant: %v != %v", again.Time(), e.Time())
	}
}

func TestEpochAt_TruncatesToMicroseconds(t *testing.T) {
	instant := time.Date(2025, time.March, 1, 6, 30, 0, 123456789, time.UTC)
	e := EpochAt(instant)

	reparsed, err := ParseEpoch(e.String())
	if err != nil {
		t.Fatalf("ParseEpoch(%q): %v", e.String(), err)
	}
	if !reparsed.Time().Equal(e.Time()) {
		t.Fatalf("EpochAt did not round-trip: %v != %v", reparsed.Time(), e.Time())
	}
}

func TestEpoch_DistanceTo(t *testing.T) {
	e, err := ParseEpoch("2025-055T12:00:00.000000Z")
	if err != nil {
		t.Fatalf("ParseEpoch: %v", err)
	}
	ref := e.Time().Add(90 * time.Second)
	if d := e.DistanceTo(ref); d != 90*time.Second {
		t.Fatalf("DistanceTo future ref = %v, want 90s", d)
	}
	ref = e.Time().Add(-45 * time.Second)
	if d := e.DistanceTo(ref); d != 45*time.Second {
		t.Fatalf("DistanceTo past ref = %v, want 45s", d)
	}
}

func TestEpoch_JSONRoundTrip(t *testing.T) {
	sv := StateVector{
		Position: Vec3{X: 1, Y: 2, Z: 3},
		Velocity: Vec3{X: -1, Y: 0, Z: 1},
	}
	var err error
	sv.Epoch, err = ParseEpoch("2025-055T12:00:00.000000Z")
	if err != nil {
		t.Fatalf("ParseEpoch: %v", err)
	}

	data, err := json.Marshal(sv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back StateVector
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Epoch.String() != sv.Epoch.String() {
		t.Fatalf("epoch round trip: %q != %q", back.Epoch.String(), sv.Epoch.String())
	}
	if back.Position != sv.Position || back.Velocity != sv.Velocity {
		t.Fatalf("vector round trip mismatch: %+v", back)
	}
}

func TestEpoch_UnmarshalRejectsBadShape(t *testing.T) {
	var e Epoch
	if err := json.Unmarshal([]byte(`"Invalid-Epoch-Format"`), &e); !errors.Is(err, ErrInvalidEpochFormat) {
		t.Fatalf("unmarshal error = %v, want ErrInvalidEpochFormat", err)
	}
}
