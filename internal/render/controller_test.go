package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/mathutil"
	"mirror-renderer/internal/mesh"
	"mirror-renderer/internal/raster"
)

// recorder is a gfx.Device that logs every state change and draw.
type recorder struct {
	calls   []string
	next    uint32
	drawErr error
	meshes  map[gfx.Buffer]string
}

func newRecorder() *recorder { return &recorder{meshes: map[gfx.Buffer]string{}} }

func (r *recorder) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}
func (r *recorder) id() uint32 { r.next++; return r.next }

func (r *recorder) CreateFrame(w, h int, offscreen bool) (gfx.Frame, error) {
	if !offscreen {
		return gfx.DefaultFrame, nil
	}
	return gfx.Frame(r.id()), nil
}
func (r *recorder) BindFrame(f gfx.Frame)                      { r.log("bind %d", f) }
func (r *recorder) ResolveFrame(f gfx.Frame) error             { r.log("resolve %d", f); return nil }
func (r *recorder) ReadPixels(gfx.Frame) (*image.NRGBA, error) { return nil, nil }
func (r *recorder) ReleaseFrame(f gfx.Frame)                   { r.log("release frame %d", f) }
func (r *recorder) CompileShader(string, gfx.ShaderStage) (gfx.Shader, error) {
	return gfx.Shader(r.id()), nil
}
func (r *recorder) LinkProgram(gfx.Shader, gfx.Shader) (gfx.Program, error) {
	return gfx.Program(r.id()), nil
}
func (r *recorder) UseProgram(gfx.Program) {}
func (r *recorder) SetUniformMat4(name string, m mgl32.Mat4) {
	if name == "model" {
		r.log("model mirrored=%t", m.Mat3().Det() < 0)
	}
}
func (r *recorder) SetUniformVec3(name string, v mgl32.Vec3) { r.log("%s %.1f", name, v[0]) }
func (r *recorder) UploadMesh(m *mesh.Mesh) (gfx.Buffer, error) {
	b := gfx.Buffer(r.id())
	r.meshes[b] = m.Name
	return b, nil
}
func (r *recorder) UploadTexture(*image.NRGBA) (gfx.Texture, error) { return gfx.Texture(r.id()), nil }
func (r *recorder) BindTexture(gfx.Texture)                         {}
func (r *recorder) SetClearColor(mgl32.Vec4)                        {}
func (r *recorder) Clear(m gfx.ClearMask)                           { r.log("clear %d", m) }
func (r *recorder) SetDepthTest(bool)                               {}
func (r *recorder) SetDepthMask(w bool)                             { r.log("depthmask %t", w) }
func (r *recorder) SetStencilTest(e bool)                           { r.log("stencil %t", e) }
func (r *recorder) SetStencilFunc(fn gfx.CompareFunc, ref, mask uint8) {
	r.log("func %d %d %#x", fn, ref, mask)
}
func (r *recorder) SetStencilOp(a, b, c gfx.StencilOp) { r.log("op %d %d %d", a, b, c) }
func (r *recorder) SetStencilMask(m uint8)             { r.log("mask %#x", m) }
func (r *recorder) Draw(b gfx.Buffer, first, count int) error {
	r.log("draw %s %d", r.meshes[b], count)
	return r.drawErr
}
func (r *recorder) Release() { r.log("release") }

type solidImages struct{ c color.NRGBA }

func (s solidImages) Load(name string) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.c.R, s.c.G, s.c.B, s.c.A
	}
	return img, nil
}

type nilImages struct{}

func (nilImages) Load(string) (*image.NRGBA, error) { return nil, nil }

type countingPresenter struct{ n int }

func (p *countingPresenter) Present() error { p.n++; return nil }

func testOptions() Options {
	o := DefaultOptions()
	o.Width, o.Height = 96, 72
	o.Caps.Texture = false
	return o
}

func TestRenderFramePassOrder(t *testing.T) {
	rec := newRecorder()
	opts := testOptions()
	rc, err := Setup(rec, opts, nil)
	require.NoError(t, err)
	p := &countingPresenter{}
	rc.Presenter = p
	rec.calls = nil

	c := NewController(opts)
	require.NoError(t, c.RenderFrame(rc, 0.25, mgl32.Ident4()))

	want := []string{
		fmt.Sprintf("bind %d", rc.Frame), "depthmask true", "mask 0xff", "clear 7",
		// object
		"stencil false", "func 7 0 0xff", "op 0 0 0", "mask 0x0", "depthmask true",
		"model mirrored=false", "overrideColor 1.0", "draw cube 36",
		// floor stamp
		"stencil true", "func 7 1 0xff", "op 0 0 2", "mask 0xff", "depthmask false",
		"model mirrored=false", "overrideColor 1.0", "draw floor 6",
		// mirror
		"stencil true", "func 5 1 0xff", "op 0 0 0", "mask 0x0", "depthmask true",
		"model mirrored=true", "overrideColor 0.3", "draw cube 36",
		"overrideColor 1.0",
		"stencil false", "func 7 0 0xff", "op 0 0 0", "mask 0x0", "depthmask true",
		fmt.Sprintf("resolve %d", rc.Frame),
	}
	assert.Equal(t, want, rec.calls)
	assert.Equal(t, 1, p.n)
}

func TestRenderFrameWithoutReflection(t *testing.T) {
	rec := newRecorder()
	opts := testOptions()
	opts.Caps = Capabilities{StaticQuad: true}
	opts.Offscreen = false
	rc, err := Setup(rec, opts, nil)
	require.NoError(t, err)
	rec.calls = nil

	require.NoError(t, NewController(opts).RenderFrame(rc, 1, mgl32.Ident4()))
	var draws []string
	for _, c := range rec.calls {
		if len(c) > 4 && c[:4] == "draw" {
			draws = append(draws, c)
		}
		assert.NotContains(t, c, "resolve")
	}
	assert.Equal(t, []string{"draw quad 6"}, draws)
}

func TestDrawErrorAbortsFrame(t *testing.T) {
	rec := newRecorder()
	opts := testOptions()
	rc, err := Setup(rec, opts, nil)
	require.NoError(t, err)
	p := &countingPresenter{}
	rc.Presenter = p
	rec.drawErr = gfx.ErrDrawRange

	err = NewController(opts).RenderFrame(rc, 0, mgl32.Ident4())
	require.ErrorIs(t, err, gfx.ErrDrawRange)
	assert.Contains(t, err.Error(), "object pass")
	assert.Zero(t, p.n)
}

func TestSetupRejectsMissingTexture(t *testing.T) {
	opts := testOptions()
	opts.Caps.Texture = true

	rec := newRecorder()
	_, err := Setup(rec, opts, nilImages{})
	require.Error(t, err)
	assert.Contains(t, rec.calls, "release")

	_, err = Setup(newRecorder(), opts, nil)
	require.Error(t, err)

	_, err = Setup(raster.NewDevice(8, 8), opts, solidImages{c: color.NRGBA{255, 0, 0, 255}})
	require.NoError(t, err)
}

func TestSetupRejectsInvalidSize(t *testing.T) {
	opts := testOptions()
	opts.Width = 0
	_, err := Setup(raster.NewDevice(8, 8), opts, nil)
	require.Error(t, err)
}

// softwareScene renders on the software device so stencil and color planes
// can be inspected after each pass.
func softwareScene(t *testing.T, opts Options) (*raster.Device, *Context, *Controller) {
	t.Helper()
	dev := raster.NewDevice(opts.Width, opts.Height)
	rc, err := Setup(dev, opts, solidImages{c: color.NRGBA{200, 100, 50, 255}})
	require.NoError(t, err)
	t.Cleanup(rc.Release)
	return dev, rc, NewController(opts)
}

func readPixels(t *testing.T, dev *raster.Device, f gfx.Frame) *image.NRGBA {
	t.Helper()
	img, err := dev.ReadPixels(f)
	require.NoError(t, err)
	return img
}

func pixel(img *image.NRGBA, i int) [4]uint8 {
	return [4]uint8(img.Pix[i*4 : i*4+4])
}

func TestFloorStampMarksExactlyFloorPixels(t *testing.T) {
	opts := testOptions()
	dev, rc, c := softwareScene(t, opts)
	model := mathutil.SpinZ(0.1, mathutil.ObjectSpinDeg)

	c.Clear(rc)
	require.NoError(t, c.DrawObject(rc, model))
	before := readPixels(t, dev, rc.Frame)
	require.NoError(t, c.StampFloor(rc, 0.1))
	after := readPixels(t, dev, rc.Frame)
	stencil := dev.Stencil(rc.Frame)

	stamped := 0
	for i, s := range stencil {
		switch s {
		case 1:
			stamped++
			assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixel(after, i), "stamped pixel %d is not floor colored", i)
		case 0:
			assert.Equal(t, pixel(before, i), pixel(after, i), "unstamped pixel %d changed", i)
		default:
			t.Fatalf("stencil %d at %d", s, i)
		}
	}
	assert.Positive(t, stamped)
}

func TestFloorStampKeepsDepthAndRepeats(t *testing.T) {
	opts := testOptions()
	dev, rc, c := softwareScene(t, opts)
	model := mathutil.SpinZ(0.7, mathutil.ObjectSpinDeg)

	stamp := func() ([]uint8, []float64) {
		c.Clear(rc)
		require.NoError(t, c.DrawObject(rc, model))
		depthBefore := dev.Depth(rc.Frame)
		require.NoError(t, c.StampFloor(rc, 0.7))
		depthAfter := dev.Depth(rc.Frame)
		require.Equal(t, depthBefore, depthAfter, "floor stamp wrote depth")
		return dev.Stencil(rc.Frame), depthAfter
	}

	stencil1, depth1 := stamp()
	stencil2, depth2 := stamp()
	assert.Equal(t, stencil1, stencil2)
	assert.Equal(t, depth1, depth2)
	assert.Contains(t, stencil1, uint8(1))
}

func TestMirrorConfinedToStencil(t *testing.T) {
	opts := testOptions()
	dev, rc, c := softwareScene(t, opts)
	model := mathutil.SpinZ(0.3, mathutil.ObjectSpinDeg)

	c.Clear(rc)
	require.NoError(t, c.DrawObject(rc, model))
	require.NoError(t, c.StampFloor(rc, 0.3))
	before := readPixels(t, dev, rc.Frame)
	stencilBefore := dev.Stencil(rc.Frame)
	require.NoError(t, c.DrawMirror(rc, model))
	after := readPixels(t, dev, rc.Frame)

	assert.Equal(t, stencilBefore, dev.Stencil(rc.Frame), "mirror pass must not write stencil")
	changed := 0
	for i := range stencilBefore {
		if pixel(before, i) != pixel(after, i) {
			changed++
			assert.Equal(t, uint8(1), stencilBefore[i], "mirror wrote outside the floor at %d", i)
		}
	}
	assert.Positive(t, changed)
}

func TestMirrorRequiresStamp(t *testing.T) {
	opts := testOptions()
	dev, rc, c := softwareScene(t, opts)

	c.Clear(rc)
	require.NoError(t, c.DrawObject(rc, mgl32.Ident4()))
	before := readPixels(t, dev, rc.Frame)
	err := c.DrawMirror(rc, mgl32.Ident4())
	assert.True(t, errors.Is(err, ErrFloorNotStamped))
	assert.Equal(t, before.Pix, readPixels(t, dev, rc.Frame).Pix)

	// A stamp from a previous frame does not count.
	require.NoError(t, c.StampFloor(rc, 0))
	c.Clear(rc)
	assert.ErrorIs(t, c.DrawMirror(rc, mgl32.Ident4()), ErrFloorNotStamped)
}

func TestClearAfterFrameResetsPlanes(t *testing.T) {
	opts := testOptions()
	dev, rc, c := softwareScene(t, opts)
	require.NoError(t, c.RenderFrame(rc, 0.5, mathutil.SpinZ(0.5, mathutil.ObjectSpinDeg)))

	c.Clear(rc)
	for i, s := range dev.Stencil(rc.Frame) {
		require.Zero(t, s, "stencil at %d", i)
	}
	for i, d := range dev.Depth(rc.Frame) {
		require.Equal(t, 1.0, d, "depth at %d", i)
	}
	img := readPixels(t, dev, rc.Frame)
	assert.Equal(t, [4]uint8{191, 217, 242, 255}, pixel(img, 0))
}

func TestRenderFrameIsDeterministic(t *testing.T) {
	opts := testOptions()
	opts.Caps.Texture = true
	dev, rc, c := softwareScene(t, opts)
	model := mathutil.SpinZ(1.2, mathutil.ObjectSpinDeg)

	require.NoError(t, c.RenderFrame(rc, 1.2, model))
	first := readPixels(t, dev, gfx.DefaultFrame)
	require.NoError(t, c.RenderFrame(rc, 1.2, model))
	second := readPixels(t, dev, gfx.DefaultFrame)
	assert.Equal(t, first.Pix, second.Pix)
}

func TestCapabilityVariants(t *testing.T) {
	for _, caps := range []Capabilities{
		{},
		{Texture: true},
		{StaticQuad: true},
		{Texture: true, StencilReflection: true},
		{Texture: true, StencilReflection: true, StaticQuad: true},
	} {
		t.Run(fmt.Sprintf("%+v", caps), func(t *testing.T) {
			opts := testOptions()
			opts.Caps = caps
			dev, rc, c := softwareScene(t, opts)
			require.NoError(t, c.RenderFrame(rc, 0, mgl32.Ident4()))

			img := readPixels(t, dev, rc.Frame)
			bg := [4]uint8{191, 217, 242, 255}
			drawn := 0
			for i := 0; i < opts.Width*opts.Height; i++ {
				if pixel(img, i) != bg {
					drawn++
				}
			}
			assert.Positive(t, drawn)

			stamped := 0
			for _, s := range dev.Stencil(rc.Frame) {
				stamped += int(s)
			}
			if caps.StencilReflection {
				assert.Positive(t, stamped)
			} else {
				assert.Zero(t, stamped)
			}
		})
	}
}
