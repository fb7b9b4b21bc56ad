package raster

import (
	"image"

	"mirror-renderer/internal/gfx"
)

// FrameBuffer holds the color, depth and stencil planes of one render target
// as flat slices for cache locality.
type FrameBuffer struct {
	Width   int
	Height  int
	Color   []uint8   // RGBA interleaved, len = W*H*4
	Depth   []float64 // window-space depth per pixel, cleared to 1
	Stencil []uint8   // stencil per pixel, cleared to 0
}

// NewFrameBuffer allocates a black color plane, far depth and zero stencil.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	depth := make([]float64, n)
	for i := range depth {
		depth[i] = 1
	}
	return &FrameBuffer{
		Width:   w,
		Height:  h,
		Color:   make([]uint8, n*4),
		Depth:   depth,
		Stencil: make([]uint8, n),
	}
}

// Clear resets the selected planes. Depth is only cleared while depth writes
// are enabled, and stencil bits only through the stencil write mask.
func (fb *FrameBuffer) Clear(mask gfx.ClearMask, st *State) {
	if mask&gfx.ClearColor != 0 {
		r := clamp255(float64(st.ClearColor[0]) * 255)
		g := clamp255(float64(st.ClearColor[1]) * 255)
		b := clamp255(float64(st.ClearColor[2]) * 255)
		a := clamp255(float64(st.ClearColor[3]) * 255)
		for i := 0; i < len(fb.Color); i += 4 {
			fb.Color[i] = r
			fb.Color[i+1] = g
			fb.Color[i+2] = b
			fb.Color[i+3] = a
		}
	}
	if mask&gfx.ClearDepth != 0 && st.DepthWrite {
		for i := range fb.Depth {
			fb.Depth[i] = 1
		}
	}
	if mask&gfx.ClearStencil != 0 {
		keep := ^st.StencilWriteMask
		for i := range fb.Stencil {
			fb.Stencil[i] &= keep
		}
	}
}

// Image copies the color plane into a new NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}
