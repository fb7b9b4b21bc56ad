package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Camera holds the fixed view and projection parameters of the scene.
type Camera struct {
	Eye    mgl32.Vec3
	Center mgl32.Vec3
	Up     mgl32.Vec3
	FovDeg float32
	Near   float32
	Far    float32
}

// DefaultCamera returns the camera the scene was tuned for.
func DefaultCamera() Camera {
	return Camera{
		Eye:    DefaultEye,
		Center: DefaultCenter,
		Up:     DefaultUp,
		FovDeg: DefaultFovDeg,
		Near:   DefaultNear,
		Far:    DefaultFar,
	}
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Center, c.Up)
}

// Projection returns a perspective projection for the given width/height ratio.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovDeg), aspect, c.Near, c.Far)
}
