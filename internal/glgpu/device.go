// Package glgpu implements gfx.Device on an OpenGL 4.1 core context.
// A context must be current on the calling thread before New is called.
package glgpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/gfx"
	"mirror-renderer/internal/mesh"
	"mirror-renderer/internal/postprocess"
)

type frame struct {
	fbo, color, depthStencil uint32
	width, height            int
}

type buffer struct {
	vao, vbo, ebo uint32
	count         int
	indexed       bool
	name          string
}

// Device is a gfx.Device backed by the current OpenGL context.
type Device struct {
	frames   map[gfx.Frame]*frame
	shaders  map[gfx.Shader]uint32
	programs map[gfx.Program]uint32
	buffers  map[gfx.Buffer]*buffer
	textures map[gfx.Texture]uint32

	bound   gfx.Frame
	current uint32
	next    uint32
}

var _ gfx.Device = (*Device)(nil)

// New loads the GL entry points and returns a device whose default frame is
// the window framebuffer of the given size.
func New(fbWidth, fbHeight int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, &gfx.ContextError{Op: "load OpenGL functions", Err: err}
	}
	slog.Info("OpenGL initialized",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	d := &Device{
		frames:   make(map[gfx.Frame]*frame),
		shaders:  make(map[gfx.Shader]uint32),
		programs: make(map[gfx.Program]uint32),
		buffers:  make(map[gfx.Buffer]*buffer),
		textures: make(map[gfx.Texture]uint32),
	}
	d.frames[gfx.DefaultFrame] = &frame{width: fbWidth, height: fbHeight}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	return d, nil
}

func (d *Device) handle() uint32 {
	d.next++
	return d.next
}

func (d *Device) CreateFrame(width, height int, offscreen bool) (gfx.Frame, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("glgpu: create frame: invalid size %dx%d", width, height)
	}
	if !offscreen {
		if err := checkDefaultSize(d.frames[gfx.DefaultFrame], width, height); err != nil {
			return 0, err
		}
		return gfx.DefaultFrame, nil
	}

	f := &frame{width: width, height: height}
	gl.GenFramebuffers(1, &f.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fbo)

	gl.GenTextures(1, &f.color)
	gl.BindTexture(gl.TEXTURE_2D, f.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, f.color, 0)

	gl.GenRenderbuffers(1, &f.depthStencil)
	gl.BindRenderbuffer(gl.RENDERBUFFER, f.depthStencil)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, f.depthStencil)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.frames[d.bound].fbo)
	if status != gl.FRAMEBUFFER_COMPLETE {
		deleteFrame(f)
		return 0, fmt.Errorf("glgpu: create frame: framebuffer incomplete (status 0x%x)", status)
	}

	h := gfx.Frame(d.handle())
	d.frames[h] = f
	slog.Debug("offscreen frame created", "frame", h, "width", width, "height", height)
	return h, nil
}

// checkDefaultSize rejects an on-screen frame whose size differs from the
// window framebuffer the context was created with.
func checkDefaultSize(def *frame, width, height int) error {
	if def.width != width || def.height != height {
		return fmt.Errorf("glgpu: create frame %dx%d: %w (%dx%d)",
			width, height, gfx.ErrFrameSize, def.width, def.height)
	}
	return nil
}

func (d *Device) BindFrame(f gfx.Frame) {
	fr, ok := d.frames[f]
	if !ok {
		slog.Warn("glgpu: bind of unknown frame ignored", "frame", f)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fr.fbo)
	gl.Viewport(0, 0, int32(fr.width), int32(fr.height))
	d.bound = f
}

func (d *Device) ResolveFrame(f gfx.Frame) error {
	if f == gfx.DefaultFrame {
		return nil
	}
	src, ok := d.frames[f]
	if !ok {
		return fmt.Errorf("glgpu: resolve frame %d: %w", f, gfx.ErrInvalidHandle)
	}
	dst := d.frames[gfx.DefaultFrame]
	filter := uint32(gl.NEAREST)
	if src.width != dst.width || src.height != dst.height {
		filter = gl.LINEAR
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, src.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, int32(src.width), int32(src.height),
		0, 0, int32(dst.width), int32(dst.height), gl.COLOR_BUFFER_BIT, filter)
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.frames[d.bound].fbo)
	return glError("resolve frame")
}

func (d *Device) ReadPixels(f gfx.Frame) (*image.NRGBA, error) {
	fr, ok := d.frames[f]
	if !ok {
		return nil, fmt.Errorf("glgpu: read pixels of frame %d: %w", f, gfx.ErrInvalidHandle)
	}
	img := image.NewNRGBA(image.Rect(0, 0, fr.width, fr.height))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fr.fbo)
	gl.ReadPixels(0, 0, int32(fr.width), int32(fr.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.frames[d.bound].fbo)
	if err := glError("read pixels"); err != nil {
		return nil, err
	}
	postprocess.FlipRowsInPlace(img.Pix, fr.width, fr.height, 4)
	return img, nil
}

func (d *Device) ReleaseFrame(f gfx.Frame) {
	fr, ok := d.frames[f]
	if !ok || f == gfx.DefaultFrame {
		return
	}
	if d.bound == f {
		d.BindFrame(gfx.DefaultFrame)
	}
	deleteFrame(fr)
	delete(d.frames, f)
}

func deleteFrame(f *frame) {
	gl.DeleteFramebuffers(1, &f.fbo)
	gl.DeleteTextures(1, &f.color)
	gl.DeleteRenderbuffers(1, &f.depthStencil)
}

func (d *Device) CompileShader(source string, stage gfx.ShaderStage) (gfx.Shader, error) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == gfx.StageFragment {
		kind = gl.FRAGMENT_SHADER
	}
	shader := gl.CreateShader(kind)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, &gfx.ShaderError{Stage: stage, Log: strings.TrimRight(log, "\x00")}
	}

	h := gfx.Shader(d.handle())
	d.shaders[h] = shader
	return h, nil
}

func (d *Device) LinkProgram(vs, fs gfx.Shader) (gfx.Program, error) {
	v, ok := d.shaders[vs]
	if !ok {
		return 0, fmt.Errorf("glgpu: link: vertex shader %d: %w", vs, gfx.ErrInvalidHandle)
	}
	f, ok := d.shaders[fs]
	if !ok {
		return 0, fmt.Errorf("glgpu: link: fragment shader %d: %w", fs, gfx.ErrInvalidHandle)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, v)
	gl.AttachShader(program, f)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &gfx.LinkError{Log: strings.TrimRight(log, "\x00")}
	}

	// Shaders are no longer needed once linked
	gl.DetachShader(program, v)
	gl.DetachShader(program, f)

	h := gfx.Program(d.handle())
	d.programs[h] = program
	slog.Debug("shader program linked", "program", h)
	return h, nil
}

func (d *Device) UseProgram(p gfx.Program) {
	prog, ok := d.programs[p]
	if !ok {
		slog.Warn("glgpu: use of unknown program ignored", "program", p)
		return
	}
	gl.UseProgram(prog)
	d.current = prog
}

func (d *Device) uniform(name string) int32 {
	if d.current == 0 {
		return -1
	}
	return gl.GetUniformLocation(d.current, gl.Str(name+"\x00"))
}

func (d *Device) SetUniformMat4(name string, m mgl32.Mat4) {
	if loc := d.uniform(name); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

func (d *Device) SetUniformVec3(name string, v mgl32.Vec3) {
	if loc := d.uniform(name); loc >= 0 {
		gl.Uniform3fv(loc, 1, &v[0])
	}
}

func (d *Device) UploadMesh(m *mesh.Mesh) (gfx.Buffer, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("glgpu: upload: %w", err)
	}
	if d.current == 0 {
		return 0, errors.New("glgpu: upload: no program in use to bind attributes against")
	}

	b := &buffer{count: m.Count(), indexed: len(m.Indices) > 0, name: m.Name}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(m.Vertices)*4, gl.Ptr(m.Vertices), gl.STATIC_DRAW)

	if b.indexed {
		gl.GenBuffers(1, &b.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)
	}

	stride := int32(m.Layout.Stride() * 4)
	d.attrib("position", 3, stride, 0)
	if m.Layout.Color {
		d.attrib("color", 3, stride, m.Layout.ColorOffset())
	}
	if m.Layout.TexCoord {
		d.attrib("texcoord", 2, stride, m.Layout.TexCoordOffset())
	}
	gl.BindVertexArray(0)

	if err := glError("upload mesh " + m.Name); err != nil {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.vbo)
		if b.indexed {
			gl.DeleteBuffers(1, &b.ebo)
		}
		return 0, err
	}

	h := gfx.Buffer(d.handle())
	d.buffers[h] = b
	return h, nil
}

// attrib points the named vertex input at a float attribute; offset is in
// floats. Inputs the program does not use have no location and are skipped.
func (d *Device) attrib(name string, size, stride int32, offset int) {
	loc := gl.GetAttribLocation(d.current, gl.Str(name+"\x00"))
	if loc < 0 {
		return
	}
	gl.EnableVertexAttribArray(uint32(loc))
	gl.VertexAttribPointer(uint32(loc), size, gl.FLOAT, false, stride, gl.PtrOffset(offset*4))
}

func (d *Device) UploadTexture(img *image.NRGBA) (gfx.Texture, error) {
	if img == nil {
		return 0, errors.New("glgpu: upload texture: nil image")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("glgpu: upload texture: empty image %dx%d", w, h)
	}
	pix := img.Pix
	if img.Stride != w*4 || b.Min != (image.Point{}) {
		packed := make([]uint8, w*h*4)
		for y := 0; y < h; y++ {
			copy(packed[y*w*4:(y+1)*w*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		pix = packed
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	if err := glError("upload texture"); err != nil {
		gl.DeleteTextures(1, &tex)
		return 0, err
	}

	t := gfx.Texture(d.handle())
	d.textures[t] = tex
	return t, nil
}

func (d *Device) BindTexture(t gfx.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, d.textures[t])
}

func (d *Device) SetClearColor(c mgl32.Vec4) { gl.ClearColor(c[0], c[1], c[2], c[3]) }

func (d *Device) Clear(mask gfx.ClearMask) {
	var bits uint32
	if mask&gfx.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gfx.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&gfx.ClearStencil != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) SetDepthTest(enabled bool)   { enable(gl.DEPTH_TEST, enabled) }
func (d *Device) SetDepthMask(write bool)     { gl.DepthMask(write) }
func (d *Device) SetStencilTest(enabled bool) { enable(gl.STENCIL_TEST, enabled) }
func (d *Device) SetStencilMask(mask uint8)   { gl.StencilMask(uint32(mask)) }

func (d *Device) SetStencilFunc(fn gfx.CompareFunc, ref, readMask uint8) {
	gl.StencilFunc(compareFuncs[fn], int32(ref), uint32(readMask))
}

func (d *Device) SetStencilOp(sfail, dpfail, dppass gfx.StencilOp) {
	gl.StencilOp(stencilOps[sfail], stencilOps[dpfail], stencilOps[dppass])
}

func (d *Device) Draw(b gfx.Buffer, first, count int) error {
	buf, ok := d.buffers[b]
	if !ok {
		return fmt.Errorf("glgpu: draw buffer %d: %w", b, gfx.ErrInvalidHandle)
	}
	if first < 0 || count < 0 || first+count > buf.count {
		return fmt.Errorf("glgpu: draw %s [%d,+%d) of %d: %w", buf.name, first, count, buf.count, gfx.ErrDrawRange)
	}
	gl.BindVertexArray(buf.vao)
	if buf.indexed {
		gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, gl.PtrOffset(first*4))
	} else {
		gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
	}
	gl.BindVertexArray(0)
	return glError("draw " + buf.name)
}

func (d *Device) Release() {
	for h, f := range d.frames {
		if h != gfx.DefaultFrame {
			deleteFrame(f)
			delete(d.frames, h)
		}
	}
	for h, b := range d.buffers {
		gl.DeleteVertexArrays(1, &b.vao)
		gl.DeleteBuffers(1, &b.vbo)
		if b.indexed {
			gl.DeleteBuffers(1, &b.ebo)
		}
		delete(d.buffers, h)
	}
	for h, t := range d.textures {
		gl.DeleteTextures(1, &t)
		delete(d.textures, h)
	}
	for h, p := range d.programs {
		gl.DeleteProgram(p)
		delete(d.programs, h)
	}
	for h, s := range d.shaders {
		gl.DeleteShader(s)
		delete(d.shaders, h)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.bound = gfx.DefaultFrame
	d.current = 0
}

var compareFuncs = [...]uint32{
	gfx.Never:        gl.NEVER,
	gfx.Less:         gl.LESS,
	gfx.LessEqual:    gl.LEQUAL,
	gfx.Greater:      gl.GREATER,
	gfx.GreaterEqual: gl.GEQUAL,
	gfx.Equal:        gl.EQUAL,
	gfx.NotEqual:     gl.NOTEQUAL,
	gfx.Always:       gl.ALWAYS,
}

var stencilOps = [...]uint32{
	gfx.Keep:    gl.KEEP,
	gfx.Zero:    gl.ZERO,
	gfx.Replace: gl.REPLACE,
	gfx.Incr:    gl.INCR,
	gfx.Decr:    gl.DECR,
	gfx.Invert:  gl.INVERT,
}

func enable(capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("glgpu: %s: GL error 0x%x", op, code)
	}
	return nil
}
