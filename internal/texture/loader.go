package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DecodeError reports an image that could not be read or decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("texture: decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// decoders maps lowercase file extensions to image decoders. TGA has no
// magic number, so formats are chosen by extension rather than sniffed.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".bmp":  bmp.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,
}

// Supported reports whether path has an extension the loader can decode.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads an image file and returns it as NRGBA with its origin at (0,0).
// Row 0 is the top of the image. A nil image is never returned without an
// error.
func Load(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return Decode(path, raw)
}

// Decode decodes raw image bytes; the format is selected by the extension of
// name, which is also used for error reporting.
func Decode(name string, raw []byte) (*image.NRGBA, error) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("unsupported format %q", filepath.Ext(name))}
	}
	if len(raw) == 0 {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("empty file")}
	}
	img, err := dec(bytes.NewReader(raw))
	if err != nil {
		return nil, &DecodeError{Path: name, Err: err}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Path: name, Err: fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())}
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to a zero-origin NRGBA.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
