package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDownsample(t *testing.T) {
	c := color.NRGBA{200, 100, 50, 255}
	src := solid(8, 6, c)

	out := Downsample(src, 4, 3)
	require.Equal(t, image.Rect(0, 0, 4, 3), out.Bounds())
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			got := out.NRGBAAt(x, y)
			assert.InDelta(t, c.R, got.R, 1)
			assert.InDelta(t, c.G, got.G, 1)
			assert.InDelta(t, c.B, got.B, 1)
			assert.Equal(t, uint8(255), got.A)
		}
	}

	assert.Same(t, src, Downsample(src, 8, 6))
}

func TestDownsampleNonSquare(t *testing.T) {
	// 4:3 source into a 2:1 target: left half red, right half blue.
	red, blue := color.NRGBA{255, 0, 0, 255}, color.NRGBA{0, 0, 255, 255}
	src := solid(16, 12, red)
	for y := 0; y < 12; y++ {
		for x := 8; x < 16; x++ {
			src.SetNRGBA(x, y, blue)
		}
	}

	out := Downsample(src, 8, 4)
	require.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
	for y := 0; y < 4; y++ {
		assert.Equal(t, red, out.NRGBAAt(0, y), "row %d left edge", y)
		assert.Equal(t, blue, out.NRGBAAt(7, y), "row %d right edge", y)
	}
}

func TestDownsampleIgnoresTransparentColor(t *testing.T) {
	// Fully transparent texels carry a color that must not leak.
	src := solid(8, 8, color.NRGBA{0, 255, 0, 0})
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}

	out := Downsample(src, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := out.NRGBAAt(x, y)
			if got.A > 0 {
				assert.InDelta(t, 255, got.R, 2, "pixel %d,%d", x, y)
				assert.InDelta(t, got.R, got.G, 2, "pixel %d,%d tinted green", x, y)
			}
		}
	}
}

func TestFlipVertical(t *testing.T) {
	img := solid(2, 3, color.NRGBA{A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})

	out := FlipVertical(img)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(1, 2))
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(1, 0))

	pix := []uint8{1, 1, 2, 2, 3, 3}
	FlipRowsInPlace(pix, 2, 3, 1)
	assert.Equal(t, []uint8{3, 3, 2, 2, 1, 1}, pix)
}

func TestDepthImage(t *testing.T) {
	img := DepthImage([]float64{1, 0.5, 0.9, 1}, 2, 2)
	assert.Equal(t, []uint8{0, 255, 64, 0}, img.Pix)

	flat := DepthImage([]float64{0.3, 1}, 2, 1)
	assert.Equal(t, []uint8{255, 0}, flat.Pix)
}

func TestStencilImageAndOverlay(t *testing.T) {
	stencil := []uint8{0, 1, 1, 0}
	assert.Equal(t, []uint8{0, 255, 255, 0}, StencilImage(stencil, 2, 2).Pix)
	assert.Equal(t, []uint8{0, 0}, StencilImage([]uint8{0, 0}, 2, 1).Pix)

	base := solid(2, 2, color.NRGBA{0, 0, 0, 255})
	out := StencilOverlay(base, stencil, 1, color.NRGBA{255, 0, 0, 255})
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(0, 1))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, base.NRGBAAt(1, 0), "base must not be modified")
}
