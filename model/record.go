package model

import (
	"math"
	"time"
)

// Vec3 is a Cartesian vector in the J2K Earth-centered inertial frame.
// Positions are kilometres, velocities kilometres per second.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether all three components are finite numbers.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// StateVector is one trajectory sample: a timestamped position/velocity pair.
// Epoch is the record's unique key within the store.
type StateVector struct {
	Epoch    Epoch `json:"epoch"`
	Position Vec3  `json:"position"`
	Velocity Vec3  `json:"velocity"`
}

// GeoLocation is a geographic position derived from a state vector. It is
// computed per query and never stored alongside the record; Place in
// particular is point-in-time enrichment from the reverse geocoder.
type GeoLocation struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeKm float64 `json:"altitude_km"`
	Place      string  `json:"place,omitempty"`
}

// PlaceUnavailable is the sentinel Place value used when the reverse
// geocoder fails or times out. The surrounding query still succeeds.
const PlaceUnavailable = "unavailable"

// IngestSummary reports the outcome of one store load.
type IngestSummary struct {
	Loaded   int       `json:"loaded"`
	Rejected int       `json:"rejected"`
	Skipped  bool      `json:"skipped"` // store already populated; load was a no-op
	At       time.Time `json:"at"`
}
