package raster

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/mesh"
)

// Device is a software gfx.Device. Every frame, including the default one,
// carries color, depth and stencil planes.
type Device struct {
	frames   map[gfx.Frame]*FrameBuffer
	shaders  map[gfx.Shader]*shaderIface
	programs map[gfx.Program]*program
	buffers  map[gfx.Buffer]*mesh.Mesh
	textures map[gfx.Texture]*image.NRGBA

	bound    gfx.Frame
	current  *program
	boundTex *image.NRGBA
	state    State
	next     uint32
}

var _ gfx.Device = (*Device)(nil)

// NewDevice returns a device whose default frame is width×height.
func NewDevice(width, height int) *Device {
	d := &Device{
		frames:   make(map[gfx.Frame]*FrameBuffer),
		shaders:  make(map[gfx.Shader]*shaderIface),
		programs: make(map[gfx.Program]*program),
		buffers:  make(map[gfx.Buffer]*mesh.Mesh),
		textures: make(map[gfx.Texture]*image.NRGBA),
		state:    DefaultState(),
	}
	d.frames[gfx.DefaultFrame] = NewFrameBuffer(width, height)
	return d
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateFrame(width, height int, offscreen bool) (gfx.Frame, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("raster: create frame: invalid size %dx%d", width, height)
	}
	if !offscreen {
		def := d.frames[gfx.DefaultFrame]
		if def.Width != width || def.Height != height {
			d.frames[gfx.DefaultFrame] = NewFrameBuffer(width, height)
		}
		return gfx.DefaultFrame, nil
	}
	f := gfx.Frame(d.handle())
	d.frames[f] = NewFrameBuffer(width, height)
	return f, nil
}

func (d *Device) BindFrame(f gfx.Frame) {
	if _, ok := d.frames[f]; !ok {
		slog.Warn("raster: bind of unknown frame ignored", "frame", f)
		return
	}
	d.bound = f
}

func (d *Device) ResolveFrame(f gfx.Frame) error {
	if f == gfx.DefaultFrame {
		return nil
	}
	src, ok := d.frames[f]
	if !ok {
		return fmt.Errorf("raster: resolve frame %d: %w", f, gfx.ErrInvalidHandle)
	}
	dst := d.frames[gfx.DefaultFrame]
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("raster: resolve frame %d: size %dx%d does not match default %dx%d",
			f, src.Width, src.Height, dst.Width, dst.Height)
	}
	copy(dst.Color, src.Color)
	return nil
}

func (d *Device) ReadPixels(f gfx.Frame) (*image.NRGBA, error) {
	fb, ok := d.frames[f]
	if !ok {
		return nil, fmt.Errorf("raster: read pixels of frame %d: %w", f, gfx.ErrInvalidHandle)
	}
	return fb.Image(), nil
}

func (d *Device) ReleaseFrame(f gfx.Frame) {
	if f == gfx.DefaultFrame {
		return
	}
	delete(d.frames, f)
	if d.bound == f {
		d.bound = gfx.DefaultFrame
	}
}

// Stencil returns a copy of the stencil plane of f.
func (d *Device) Stencil(f gfx.Frame) []uint8 {
	fb, ok := d.frames[f]
	if !ok {
		return nil
	}
	return append([]uint8(nil), fb.Stencil...)
}

// Depth returns a copy of the depth plane of f.
func (d *Device) Depth(f gfx.Frame) []float64 {
	fb, ok := d.frames[f]
	if !ok {
		return nil
	}
	return append([]float64(nil), fb.Depth...)
}

func (d *Device) CompileShader(source string, stage gfx.ShaderStage) (gfx.Shader, error) {
	si, err := reflectShader(source, stage)
	if err != nil {
		return 0, err
	}
	s := gfx.Shader(d.handle())
	d.shaders[s] = si
	return s, nil
}

func (d *Device) LinkProgram(vs, fs gfx.Shader) (gfx.Program, error) {
	v, ok := d.shaders[vs]
	if !ok {
		return 0, fmt.Errorf("raster: link: vertex shader %d: %w", vs, gfx.ErrInvalidHandle)
	}
	f, ok := d.shaders[fs]
	if !ok {
		return 0, fmt.Errorf("raster: link: fragment shader %d: %w", fs, gfx.ErrInvalidHandle)
	}
	p, err := linkProgram(v, f)
	if err != nil {
		return 0, err
	}
	h := gfx.Program(d.handle())
	d.programs[h] = p
	return h, nil
}

func (d *Device) UseProgram(p gfx.Program) {
	d.current = d.programs[p]
}

func (d *Device) SetUniformMat4(name string, m mgl32.Mat4) {
	if d.current == nil || d.current.uniforms[name] != "mat4" {
		return
	}
	d.current.mat4[name] = m
}

func (d *Device) SetUniformVec3(name string, v mgl32.Vec3) {
	if d.current == nil || d.current.uniforms[name] != "vec3" {
		return
	}
	d.current.vec3[name] = v
}

func (d *Device) UploadMesh(m *mesh.Mesh) (gfx.Buffer, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("raster: upload: %w", err)
	}
	cp := &mesh.Mesh{
		Name:     m.Name,
		Layout:   m.Layout,
		Vertices: append([]float32(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	b := gfx.Buffer(d.handle())
	d.buffers[b] = cp
	return b, nil
}

func (d *Device) UploadTexture(img *image.NRGBA) (gfx.Texture, error) {
	if img == nil {
		return 0, errors.New("raster: upload texture: nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0, fmt.Errorf("raster: upload texture: empty image %dx%d", b.Dx(), b.Dy())
	}
	// Rebase to the origin so the sampler can index Pix directly.
	cp := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(cp.Pix[y*cp.Stride:(y+1)*cp.Stride], src[:b.Dx()*4])
	}
	t := gfx.Texture(d.handle())
	d.textures[t] = cp
	return t, nil
}

func (d *Device) BindTexture(t gfx.Texture) {
	d.boundTex = d.textures[t]
}

func (d *Device) SetClearColor(c mgl32.Vec4) { d.state.ClearColor = [4]float32(c) }

func (d *Device) Clear(mask gfx.ClearMask) {
	d.frames[d.bound].Clear(mask, &d.state)
}

func (d *Device) SetDepthTest(enabled bool)   { d.state.DepthTest = enabled }
func (d *Device) SetDepthMask(write bool)     { d.state.DepthWrite = write }
func (d *Device) SetStencilTest(enabled bool) { d.state.StencilTest = enabled }
func (d *Device) SetStencilMask(mask uint8)   { d.state.StencilWriteMask = mask }

func (d *Device) SetStencilFunc(fn gfx.CompareFunc, ref, readMask uint8) {
	d.state.StencilFunc = fn
	d.state.StencilRef = ref
	d.state.StencilReadMask = readMask
}

func (d *Device) SetStencilOp(sfail, dpfail, dppass gfx.StencilOp) {
	d.state.StencilFail = sfail
	d.state.DepthFail = dpfail
	d.state.DepthPass = dppass
}

// Draw runs the vertex stage over the addressed elements, clips each triangle
// against the near plane and rasterizes the result into the bound frame.
func (d *Device) Draw(b gfx.Buffer, first, count int) error {
	m, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("raster: draw buffer %d: %w", b, gfx.ErrInvalidHandle)
	}
	if d.current == nil {
		return errors.New("raster: draw: no program in use")
	}
	if first < 0 || count < 0 || first+count > m.Count() {
		return fmt.Errorf("raster: draw %s [%d,+%d) of %d: %w", m.Name, first, count, m.Count(), gfx.ErrDrawRange)
	}
	fb := d.frames[d.bound]
	p := d.current

	mvp := p.matrix("projection").Mul4(p.matrix("view")).Mul4(p.matrix("model"))
	sh := shading{tint: p.tint()}
	if p.sampler {
		sh.tex = d.boundTex
	}

	stride := m.Layout.Stride()
	colorOff := -1
	if p.readsVertexInput("color") {
		colorOff = m.Layout.ColorOffset()
	}
	uvOff := -1
	if p.readsVertexInput("texcoord") {
		uvOff = m.Layout.TexCoordOffset()
	}

	fetch := func(element int) clipVertex {
		vi := element
		if len(m.Indices) > 0 {
			vi = int(m.Indices[element])
		}
		base := vi * stride
		pos := mgl32.Vec4{m.Vertices[base], m.Vertices[base+1], m.Vertices[base+2], 1}
		clip := mvp.Mul4x1(pos)
		v := clipVertex{
			pos:   [4]float64{float64(clip[0]), float64(clip[1]), float64(clip[2]), float64(clip[3])},
			color: [3]float64{1, 1, 1},
		}
		if colorOff >= 0 {
			c := m.Vertices[base+colorOff:]
			v.color = [3]float64{float64(c[0]), float64(c[1]), float64(c[2])}
		}
		if uvOff >= 0 {
			t := m.Vertices[base+uvOff:]
			v.uv = [2]float64{float64(t[0]), float64(t[1])}
		}
		return v
	}

	for e := first; e+2 < first+count; e += 3 {
		poly := clipNear([3]clipVertex{fetch(e), fetch(e + 1), fetch(e + 2)})
		if len(poly) < 3 {
			continue
		}
		sv := make([]screenVertex, 0, len(poly))
		for _, cv := range poly {
			s, ok := toScreen(cv, fb.Width, fb.Height)
			if !ok {
				break
			}
			sv = append(sv, s)
		}
		if len(sv) != len(poly) {
			continue
		}
		for i := 1; i+1 < len(sv); i++ {
			RasterizeTriangle(fb, &d.state, [3]screenVertex{sv[0], sv[i], sv[i+1]}, &sh)
		}
	}
	return nil
}

func (d *Device) Release() {
	def := d.frames[gfx.DefaultFrame]
	clear(d.frames)
	d.frames[gfx.DefaultFrame] = def
	clear(d.shaders)
	clear(d.programs)
	clear(d.buffers)
	clear(d.textures)
	d.bound = gfx.DefaultFrame
	d.current = nil
	d.boundTex = nil
}
