package mathutil

import "github.com/go-gl/mathgl/mgl32"

// MirrorTransform reflects model across its local z plane: translate by
// offset along z, then negate the z scale. Applying it twice with the same
// offset returns model.
func MirrorTransform(model mgl32.Mat4, offset float32) mgl32.Mat4 {
	return model.Mul4(mgl32.Translate3D(0, 0, offset)).Mul4(mgl32.Scale3D(1, 1, -1))
}
