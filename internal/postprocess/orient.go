package postprocess

import "image"

// FlipVertical mirrors an image top-to-bottom. GL read-backs start at the
// bottom row; images here start at the top.
func FlipVertical(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Max.Y-1-y):]
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], src[:w*4])
	}
	return out
}

// FlipRowsInPlace reverses the row order of a tightly packed w×h buffer with
// bpp bytes per pixel.
func FlipRowsInPlace(pix []uint8, w, h, bpp int) {
	stride := w * bpp
	tmp := make([]uint8, stride)
	for top, bot := 0, h-1; top < bot; top, bot = top+1, bot-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bot*stride : (bot+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
