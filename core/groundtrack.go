package core

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// RotateToECEF rotates a J2K/ECI position into the Earth-fixed (ECEF) frame
// at the given instant, using Greenwich mean sidereal time. Feed positions
// are inertial, so without this rotation the longitude from ToGeo drifts
// with Earth's rotation; the ECEF frame pins the location to the ground
// track. Kilometres in, kilometres out.
func RotateToECEF(at time.Time, v model.Vec3) model.Vec3 {
	at = at.UTC()
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	ecef := satellite.ECIToECEF(satellite.Vector3{X: v.X, Y: v.Y, Z: v.Z}, gmst)

	return model.Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
}
