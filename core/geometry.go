package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// EarthRadiusKm is the mean Earth radius used for the spherical
// Cartesian-to-geographic conversion (kilometres). The transform is a
// spherical approximation, not geodetic.
const EarthRadiusKm = 6371.0

// ToGeo converts a Cartesian position in kilometres into geographic
// latitude/longitude (degrees) and altitude above the reference sphere
// (kilometres). Longitude lies in (-180, 180], latitude in [-90, 90].
// Place is left empty; the reverse geocoder fills it separately.
//
// The origin has no defined latitude or longitude and fails with
// ErrDegenerateCoordinate instead of producing NaN output.
func ToGeo(v model.Vec3) (model.GeoLocation, error) {
	if v.X == 0 && v.Y == 0 && v.Z == 0 {
		return model.GeoLocation{}, fmt.Errorf("%w: position is the origin", model.ErrDegenerateCoordinate)
	}

	horizontal := math.Sqrt(v.X*v.X + v.Y*v.Y)
	return model.GeoLocation{
		Latitude:   degrees(math.Atan2(v.Z, horizontal)),
		Longitude:  degrees(math.Atan2(v.Y, v.X)),
		AltitudeKm: v.Norm() - EarthRadiusKm,
	}, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
