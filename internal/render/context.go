package render

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/mathutil"
	"mirror-renderer/internal/mesh"
)

var (
	//go:embed shaders/main.vert
	vertexSource string
	//go:embed shaders/flat.frag
	flatFragmentSource string
	//go:embed shaders/textured.frag
	texturedFragmentSource string
)

var white = mgl32.Vec3{1, 1, 1}

// Capabilities selects which parts of the scene are built and drawn.
type Capabilities struct {
	Texture           bool // modulate by the decoded texture
	StencilReflection bool // floor stamp + masked mirror passes
	StaticQuad        bool // flat colored quad instead of the cube
}

// Options configures Setup and the Controller.
type Options struct {
	Width     int
	Height    int
	Offscreen bool
	Caps      Capabilities

	Camera     mathutil.Camera
	ClearColor mgl32.Vec4

	TextureName string

	FloorHalfExtent float32
	FloorHeight     float32
	FloorColor      [3]float32
	FloorSpinDeg    float64

	// MirrorOffset is the z translation applied before the z flip.
	MirrorOffset float32
	// Tint multiplies the mirrored object's color.
	Tint mgl32.Vec3
}

// DefaultOptions returns the scene the renderer was tuned for.
func DefaultOptions() Options {
	return Options{
		Width:           1280,
		Height:          720,
		Offscreen:       true,
		Caps:            Capabilities{Texture: true, StencilReflection: true},
		Camera:          mathutil.DefaultCamera(),
		ClearColor:      mgl32.Vec4{0.75, 0.85, 0.95, 1},
		TextureName:     "sample.png",
		FloorHalfExtent: 1,
		FloorHeight:     -0.5,
		FloorSpinDeg:    mathutil.FloorSpinDeg,
		MirrorOffset:    -1,
		Tint:            mgl32.Vec3{0.3, 0.3, 0.3},
	}
}

// ImageSource decodes a named image. Implementations never return a nil
// image with a nil error.
type ImageSource interface {
	Load(name string) (*image.NRGBA, error)
}

// Presenter shows a finished frame, e.g. by swapping window buffers.
type Presenter interface {
	Present() error
}

// Context owns the GPU resources of the scene and the per-frame pass state.
// The caller creates it with Setup and releases it at shutdown.
type Context struct {
	Device    gfx.Device
	Frame     gfx.Frame
	Presenter Presenter

	program gfx.Program
	object  drawable
	floor   drawable
	texture gfx.Texture

	floorStamped bool
}

type drawable struct {
	buf   gfx.Buffer
	count int
}

// Setup compiles the shader program, uploads geometry and texture once and
// creates the render target. Shader, link and decode failures are fatal.
func Setup(dev gfx.Device, opts Options, images ImageSource) (rc *Context, err error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("render: setup: invalid frame size %dx%d", opts.Width, opts.Height)
	}

	rc = &Context{Device: dev}
	defer func() {
		if err != nil {
			rc.Release()
			rc = nil
		}
	}()

	rc.Frame, err = dev.CreateFrame(opts.Width, opts.Height, opts.Offscreen)
	if err != nil {
		return rc, fmt.Errorf("render: setup: %w", err)
	}

	vs, err := dev.CompileShader(vertexSource, gfx.StageVertex)
	if err != nil {
		return rc, fmt.Errorf("render: setup: %w", err)
	}
	fsSource := flatFragmentSource
	if opts.Caps.Texture {
		fsSource = texturedFragmentSource
	}
	fs, err := dev.CompileShader(fsSource, gfx.StageFragment)
	if err != nil {
		return rc, fmt.Errorf("render: setup: %w", err)
	}
	rc.program, err = dev.LinkProgram(vs, fs)
	if err != nil {
		return rc, fmt.Errorf("render: setup: %w", err)
	}
	dev.UseProgram(rc.program)

	dev.SetDepthTest(true)
	dev.SetClearColor(opts.ClearColor)
	aspect := float32(opts.Width) / float32(opts.Height)
	dev.SetUniformMat4("view", opts.Camera.View())
	dev.SetUniformMat4("projection", opts.Camera.Projection(aspect))
	dev.SetUniformMat4("model", mgl32.Ident4())
	dev.SetUniformVec3("overrideColor", white)

	if opts.Caps.Texture {
		if images == nil {
			return rc, errors.New("render: setup: texture enabled without an image source")
		}
		img, err := images.Load(opts.TextureName)
		if err != nil {
			return rc, fmt.Errorf("render: setup: %w", err)
		}
		if img == nil {
			return rc, fmt.Errorf("render: setup: texture %s decoded to nothing", opts.TextureName)
		}
		rc.texture, err = dev.UploadTexture(img)
		if err != nil {
			return rc, fmt.Errorf("render: setup: %w", err)
		}
		dev.BindTexture(rc.texture)
		slog.Debug("texture uploaded", "name", opts.TextureName, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	}

	objMesh := mesh.Cube()
	if opts.Caps.StaticQuad {
		objMesh = mesh.Quad()
	}
	if rc.object, err = upload(dev, objMesh); err != nil {
		return rc, err
	}
	if opts.Caps.StencilReflection {
		floorMesh := mesh.Floor(opts.FloorHalfExtent, opts.FloorHeight, opts.FloorColor)
		if rc.floor, err = upload(dev, floorMesh); err != nil {
			return rc, err
		}
	}

	slog.Info("render context ready",
		"width", opts.Width, "height", opts.Height, "offscreen", opts.Offscreen,
		"texture", opts.Caps.Texture, "reflection", opts.Caps.StencilReflection, "quad", opts.Caps.StaticQuad)
	return rc, nil
}

func upload(dev gfx.Device, m *mesh.Mesh) (drawable, error) {
	b, err := dev.UploadMesh(m)
	if err != nil {
		return drawable{}, fmt.Errorf("render: upload %s: %w", m.Name, err)
	}
	return drawable{buf: b, count: m.Count()}, nil
}

// Release frees the frame and everything the device still holds for this
// context. It is safe to call more than once.
func (rc *Context) Release() {
	if rc == nil || rc.Device == nil {
		return
	}
	if rc.Frame != gfx.DefaultFrame {
		rc.Device.ReleaseFrame(rc.Frame)
		rc.Frame = gfx.DefaultFrame
	}
	rc.Device.Release()
	rc.Device = nil
}
