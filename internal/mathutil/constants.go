package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Scene defaults. The camera looks down on the origin from above the floor
// with +z up.
var (
	DefaultEye    = mgl32.Vec3{2.5, 2.5, 2.0}
	DefaultCenter = mgl32.Vec3{0, 0, 0}
	DefaultUp     = mgl32.Vec3{0, 0, 1}
)

const (
	DefaultFovDeg = 45.0
	DefaultNear   = 1.0
	DefaultFar    = 10.0

	// ObjectSpinDeg is the object rotation rate about z in degrees per second.
	ObjectSpinDeg = 180.0
	// FloorSpinDeg is the floor rotation rate about z in degrees per second.
	FloorSpinDeg = -10.0
)
