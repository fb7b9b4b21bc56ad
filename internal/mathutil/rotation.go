package mathutil

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SpinZ returns the rotation about +z reached after elapsed seconds at
// degPerSec degrees per second.
func SpinZ(elapsed, degPerSec float64) mgl32.Mat4 {
	return mgl32.HomogRotate3DZ(float32(Deg2Rad(math.Mod(degPerSec*elapsed, 360))))
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
