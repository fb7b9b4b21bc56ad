package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample resolves a supersampled frame to width×height. The filter runs
// on premultiplied RGBA so transparent texels do not bleed their color into
// neighbours. A frame that already has the target size is returned as is.
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	if width <= 0 || height <= 0 {
		return img
	}
	src := img.Bounds()
	if src.Dx() == width && src.Dy() == height {
		return img
	}

	premul := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(premul, premul.Bounds(), img, src, draw.Src, nil)

	out := image.NewNRGBA(premul.Bounds())
	draw.Draw(out, out.Bounds(), premul, image.Point{}, draw.Src)
	return out
}
