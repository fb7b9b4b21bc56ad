package raster

import "mirror-renderer/internal/gfx"

// State is the fixed-function depth/stencil configuration used for clears
// and draws.
type State struct {
	ClearColor [4]float32

	DepthTest  bool
	DepthWrite bool

	StencilTest      bool
	StencilFunc      gfx.CompareFunc
	StencilRef       uint8
	StencilReadMask  uint8
	StencilWriteMask uint8
	StencilFail      gfx.StencilOp
	DepthFail        gfx.StencilOp
	DepthPass        gfx.StencilOp
}

// DefaultState matches a freshly created OpenGL context.
func DefaultState() State {
	return State{
		DepthWrite:       true,
		StencilFunc:      gfx.Always,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
	}
}

func (s *State) stencilPasses(stored uint8) bool {
	ref := s.StencilRef & s.StencilReadMask
	val := stored & s.StencilReadMask
	switch s.StencilFunc {
	case gfx.Never:
		return false
	case gfx.Less:
		return ref < val
	case gfx.LessEqual:
		return ref <= val
	case gfx.Greater:
		return ref > val
	case gfx.GreaterEqual:
		return ref >= val
	case gfx.Equal:
		return ref == val
	case gfx.NotEqual:
		return ref != val
	}
	return true
}

// stencilUpdate applies op to stored and merges the result through the write mask.
func (s *State) stencilUpdate(op gfx.StencilOp, stored uint8) uint8 {
	var v uint8
	switch op {
	case gfx.Keep:
		return stored
	case gfx.Zero:
		v = 0
	case gfx.Replace:
		v = s.StencilRef
	case gfx.Incr:
		v = stored
		if v < 0xFF {
			v++
		}
	case gfx.Decr:
		v = stored
		if v > 0 {
			v--
		}
	case gfx.Invert:
		v = ^stored
	}
	return stored&^s.StencilWriteMask | v&s.StencilWriteMask
}
