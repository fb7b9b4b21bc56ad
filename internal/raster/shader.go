package raster

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"mirror-renderer/internal/gfx"
)

// The software pipeline does not execute GLSL. It reflects the declared
// interface of each stage and runs the fixed transform-and-modulate pipeline
// those declarations describe:
//
//	gl_Position = projection * view * model * vec4(position, 1)
//	outColor    = color * overrideColor [* texture(sampler, texcoord)]
var (
	declRe = regexp.MustCompile(`^\s*(?:layout\s*\([^)]*\)\s*)?(in|out|uniform)\s+(?:(?:lowp|mediump|highp|flat|smooth|noperspective)\s+)*(\w+)\s+(\w+)\s*(?:\[\s*\d+\s*\])?\s*;`)
	mainRe = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(?:void)?\s*\)`)

	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
)

// shaderIface is the reflected interface of one compiled stage.
type shaderIface struct {
	stage    gfx.ShaderStage
	inputs   map[string]string // name → GLSL type
	outputs  map[string]string
	uniforms map[string]string
}

// reflectShader validates source and extracts its interface. Diagnostics are
// formatted like driver info logs: "0:<line>: error: <message>".
func reflectShader(source string, stage gfx.ShaderStage) (*shaderIface, error) {
	fail := func(line int, format string, args ...any) error {
		return &gfx.ShaderError{Stage: stage, Log: fmt.Sprintf("0:%d: error: %s", line, fmt.Sprintf(format, args...))}
	}

	if strings.TrimSpace(source) == "" {
		return nil, fail(0, "empty shader source")
	}

	// Keep line structure so diagnostics point at the right line.
	src := blockCommentRe.ReplaceAllStringFunc(source, func(s string) string {
		return strings.Repeat("\n", strings.Count(s, "\n"))
	})
	src = lineCommentRe.ReplaceAllString(src, "")

	lines := strings.Split(src, "\n")
	first := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	if first < 0 || !strings.HasPrefix(strings.TrimSpace(lines[first]), "#version") {
		return nil, fail(first+1, "#version directive must come first")
	}

	depth := 0
	for i, l := range lines {
		for _, c := range l {
			switch c {
			case '{':
				depth++
			case '}':
				depth--
				if depth < 0 {
					return nil, fail(i+1, "unexpected '}'")
				}
			}
		}
	}
	if depth != 0 {
		return nil, fail(len(lines), "unexpected end of file, %d unclosed '{'", depth)
	}

	if !mainRe.MatchString(src) {
		return nil, fail(0, "missing entry point 'void main()'")
	}

	si := &shaderIface{
		stage:    stage,
		inputs:   make(map[string]string),
		outputs:  make(map[string]string),
		uniforms: make(map[string]string),
	}
	for i, l := range lines {
		m := declRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		qual, typ, name := m[1], m[2], m[3]
		var dst map[string]string
		switch qual {
		case "in":
			dst = si.inputs
		case "out":
			dst = si.outputs
		case "uniform":
			dst = si.uniforms
		}
		if _, dup := dst[name]; dup {
			return nil, fail(i+1, "redefinition of '%s'", name)
		}
		dst[name] = typ
	}
	return si, nil
}

// program is a linked vertex/fragment pair plus its uniform storage.
type program struct {
	vs, fs   *shaderIface
	uniforms map[string]string
	sampler  bool

	mat4 map[string]mgl32.Mat4
	vec3 map[string]mgl32.Vec3
}

// linkProgram checks that the stages fit together the way a GL linker does.
func linkProgram(vs, fs *shaderIface) (*program, error) {
	var problems []string
	if vs.stage != gfx.StageVertex {
		problems = append(problems, "first shader is not a vertex shader")
	}
	if fs.stage != gfx.StageFragment {
		problems = append(problems, "second shader is not a fragment shader")
	}
	if typ, ok := vs.inputs["position"]; !ok || (typ != "vec3" && typ != "vec4") {
		problems = append(problems, "vertex stage has no vec3/vec4 'position' input")
	}

	names := make([]string, 0, len(fs.inputs))
	for name := range fs.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := fs.inputs[name]
		got, ok := vs.outputs[name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("fragment input '%s' is not written by the vertex stage", name))
		case got != want:
			problems = append(problems, fmt.Sprintf("type mismatch for '%s': vertex %s, fragment %s", name, got, want))
		}
	}

	hasOut := false
	for _, typ := range fs.outputs {
		if typ == "vec4" {
			hasOut = true
		}
	}
	if !hasOut {
		problems = append(problems, "fragment stage has no vec4 output")
	}

	if len(problems) > 0 {
		return nil, &gfx.LinkError{Log: strings.Join(problems, "\n")}
	}

	p := &program{
		vs:       vs,
		fs:       fs,
		uniforms: make(map[string]string),
		mat4:     make(map[string]mgl32.Mat4),
		vec3:     make(map[string]mgl32.Vec3),
	}
	for _, stage := range []*shaderIface{vs, fs} {
		for name, typ := range stage.uniforms {
			p.uniforms[name] = typ
		}
	}
	for _, typ := range fs.uniforms {
		if typ == "sampler2D" {
			p.sampler = true
		}
	}
	return p, nil
}

// matrix returns a mat4 uniform; declared-but-unset and undeclared uniforms
// read as identity so a program without a camera still draws in clip space.
func (p *program) matrix(name string) mgl32.Mat4 {
	if m, ok := p.mat4[name]; ok {
		return m
	}
	return mgl32.Ident4()
}

// tint returns overrideColor. Like GL, a declared but unset vec3 reads as zero;
// a program that does not declare it is not tinted.
func (p *program) tint() [3]float64 {
	if _, ok := p.uniforms["overrideColor"]; !ok {
		return [3]float64{1, 1, 1}
	}
	c := p.vec3["overrideColor"]
	return [3]float64{float64(c[0]), float64(c[1]), float64(c[2])}
}

func (p *program) readsVertexInput(name string) bool {
	_, ok := p.vs.inputs[name]
	return ok
}
