// Package gfx defines the graphics context contract shared by the software
// rasterizer and the OpenGL backend.
package gfx

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/mesh"
)

// Handles are opaque, backend-assigned identifiers. Zero is never a valid
// resource except for DefaultFrame.
type (
	Frame   uint32
	Shader  uint32
	Program uint32
	Buffer  uint32
	Texture uint32
)

// DefaultFrame is the on-screen target.
const DefaultFrame Frame = 0

// ShaderStage selects the pipeline stage a shader source is compiled for.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return "unknown"
}

// ClearMask selects the planes cleared by Device.Clear.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// CompareFunc is a stencil comparison, evaluated as (ref & mask) OP (stored & mask).
type CompareFunc int

const (
	Never CompareFunc = iota
	Less
	LessEqual
	Greater
	GreaterEqual
	Equal
	NotEqual
	Always
)

func (f CompareFunc) String() string {
	return [...]string{"NEVER", "LESS", "LEQUAL", "GREATER", "GEQUAL", "EQUAL", "NOTEQUAL", "ALWAYS"}[f]
}

// StencilOp is the update applied to a stored stencil value.
type StencilOp int

const (
	Keep StencilOp = iota
	Zero
	Replace
	Incr
	Decr
	Invert
)

func (o StencilOp) String() string {
	return [...]string{"KEEP", "ZERO", "REPLACE", "INCR", "DECR", "INVERT"}[o]
}

// Device is a graphics context. Its state model follows OpenGL: clears
// honor the depth and stencil write masks, depth is only written while the
// depth test is enabled, and stencil updates go through the stencil write mask.
//
// A Device is bound to one render thread; none of its methods are safe for
// concurrent use.
type Device interface {
	CreateFrame(width, height int, offscreen bool) (Frame, error)
	BindFrame(f Frame)
	// ResolveFrame copies an offscreen frame to the default frame.
	ResolveFrame(f Frame) error
	ReadPixels(f Frame) (*image.NRGBA, error)
	ReleaseFrame(f Frame)

	CompileShader(source string, stage ShaderStage) (Shader, error)
	LinkProgram(vs, fs Shader) (Program, error)
	UseProgram(p Program)
	// Uniform setters address the program in use. Unknown names are ignored.
	SetUniformMat4(name string, m mgl32.Mat4)
	SetUniformVec3(name string, v mgl32.Vec3)

	// UploadMesh binds the mesh layout to the attributes of the program in use.
	UploadMesh(m *mesh.Mesh) (Buffer, error)
	UploadTexture(img *image.NRGBA) (Texture, error)
	BindTexture(t Texture)

	SetClearColor(c mgl32.Vec4)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	SetDepthMask(write bool)
	SetStencilTest(enabled bool)
	SetStencilFunc(fn CompareFunc, ref, readMask uint8)
	SetStencilOp(sfail, dpfail, dppass StencilOp)
	SetStencilMask(mask uint8)

	// Draw issues count elements of b starting at first as a triangle list.
	Draw(b Buffer, first, count int) error

	// Release frees every resource still owned by the device.
	Release()
}
