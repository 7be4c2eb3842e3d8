// Package lighting provides the key light used to shade reference planes.
package lighting

import (
	gomath "math"

	"github.com/Faultbox/sketchplane/pkg/math"
)

// Default key light, up and to the side of the default camera so that
// the three planes get distinct shades.
const (
	DefaultAzimuth   = 60.0
	DefaultElevation = 55.0
)

// SunDirection converts azimuth and elevation in degrees to a unit vector
// pointing towards the light. Azimuth is measured from +X towards +Y,
// elevation from the XY plane towards +Z.
func SunDirection(azimuth, elevation float64) math.Vec3 {
	az := azimuth * gomath.Pi / 180
	el := elevation * gomath.Pi / 180

	return math.Vec3{
		X: gomath.Cos(el) * gomath.Cos(az),
		Y: gomath.Cos(el) * gomath.Sin(az),
		Z: gomath.Sin(el),
	}
}

// DefaultSun returns the default key light direction.
func DefaultSun() math.Vec3 {
	return SunDirection(DefaultAzimuth, DefaultElevation)
}
