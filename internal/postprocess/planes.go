package postprocess

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// DepthImage renders a depth plane as grayscale: near is white, the cleared
// value 1 is black. Values are stretched over the range actually present so
// the small spread of a perspective depth buffer stays visible.
func DepthImage(depth []float64, w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range depth {
		if d >= 1 {
			continue
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	span := hi - lo
	for i, d := range depth[:w*h] {
		switch {
		case d >= 1:
			img.Pix[i] = 0
		case span <= 0:
			img.Pix[i] = 255
		default:
			img.Pix[i] = 64 + clamp8(191*(hi-d)/span)
		}
	}
	return img
}

// StencilImage maps each stencil value to a gray level; 0 stays black.
func StencilImage(stencil []uint8, w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	var maxV uint8
	for _, s := range stencil {
		maxV = max(maxV, s)
	}
	if maxV == 0 {
		return img
	}
	for i, s := range stencil[:w*h] {
		img.Pix[i] = uint8(int(s) * 255 / int(maxV))
	}
	return img
}

// StencilOverlay blends tint over base wherever the stencil value equals ref.
func StencilOverlay(base *image.NRGBA, stencil []uint8, ref uint8, tint color.NRGBA) *image.NRGBA {
	b := base.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)

	mask := &stencilMask{stencil: stencil, ref: ref, alpha: tint.A, w: b.Dx(), h: b.Dy()}
	opaque := tint
	opaque.A = 255
	draw.DrawMask(out, out.Bounds(), image.NewUniform(opaque), image.Point{}, mask, image.Point{}, draw.Over)
	return out
}

// stencilMask implements image.Image as an alpha mask over a stencil plane.
type stencilMask struct {
	stencil []uint8
	ref     uint8
	alpha   uint8
	w, h    int
}

func (m *stencilMask) ColorModel() color.Model { return color.AlphaModel }
func (m *stencilMask) Bounds() image.Rectangle { return image.Rect(0, 0, m.w, m.h) }
func (m *stencilMask) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.w || y >= m.h || m.stencil[y*m.w+x] != m.ref {
		return color.Alpha{}
	}
	return color.Alpha{A: m.alpha}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
