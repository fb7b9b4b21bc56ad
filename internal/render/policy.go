package render

import "mirror-renderer/internal/gfx"

// StencilPolicy fully determines the stencil and depth-write configuration of
// one draw call. Stencil and depth failures always keep the stored value.
type StencilPolicy struct {
	Name        string
	TestEnabled bool
	Func        gfx.CompareFunc
	Ref         uint8
	ReadMask    uint8
	WriteMask   uint8
	PassOp      gfx.StencilOp
	DepthWrite  bool
}

var (
	// ObjectPolicy draws with ordinary depth testing and never touches stencil.
	ObjectPolicy = StencilPolicy{
		Name:       "object",
		Func:       gfx.Always,
		ReadMask:   0xFF,
		WriteMask:  0x00,
		PassOp:     gfx.Keep,
		DepthWrite: true,
	}

	// FloorStampPolicy writes 1 into every visible floor pixel and leaves depth
	// untouched so geometry beneath the floor still depth-tests against the scene.
	FloorStampPolicy = StencilPolicy{
		Name:        "floor-stamp",
		TestEnabled: true,
		Func:        gfx.Always,
		Ref:         1,
		ReadMask:    0xFF,
		WriteMask:   0xFF,
		PassOp:      gfx.Replace,
		DepthWrite:  false,
	}

	// MirrorPolicy passes only where the floor was stamped and is read-only.
	MirrorPolicy = StencilPolicy{
		Name:        "mirror-mask",
		TestEnabled: true,
		Func:        gfx.Equal,
		Ref:         1,
		ReadMask:    0xFF,
		WriteMask:   0x00,
		PassOp:      gfx.Keep,
		DepthWrite:  true,
	}
)

// Apply sets every piece of state the policy owns.
func (p StencilPolicy) Apply(dev gfx.Device) {
	dev.SetStencilTest(p.TestEnabled)
	dev.SetStencilFunc(p.Func, p.Ref, p.ReadMask)
	dev.SetStencilOp(gfx.Keep, gfx.Keep, p.PassOp)
	dev.SetStencilMask(p.WriteMask)
	dev.SetDepthMask(p.DepthWrite)
}
