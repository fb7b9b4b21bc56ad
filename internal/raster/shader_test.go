package raster

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror-renderer/internal/gfx"
)

func TestReflectShaderInterface(t *testing.T) {
	si, err := reflectShader(testVS, gfx.StageVertex)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"position": "vec3", "color": "vec3", "texcoord": "vec2"}, si.inputs)
	assert.Equal(t, map[string]string{"Color": "vec3", "Texcoord": "vec2"}, si.outputs)
	assert.Equal(t, "mat4", si.uniforms["projection"])
	assert.Equal(t, "vec3", si.uniforms["overrideColor"])
}

func TestReflectShaderDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "   \n", "empty shader source"},
		{"no version", "in vec3 position;\nvoid main() {}\n", "#version"},
		{"unbalanced", "#version 410 core\nvoid main() {\n", "unclosed"},
		{"stray brace", "#version 410 core\nvoid main() {}}\n", "0:2: error: unexpected '}'"},
		{"no main", "#version 410 core\nvoid mian() {}\n", "void main()"},
		{"redefinition", "#version 410 core\nin vec3 a;\nin vec3 a;\nvoid main() {}\n", "0:3: error: redefinition of 'a'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reflectShader(tc.src, gfx.StageFragment)
			var se *gfx.ShaderError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, gfx.StageFragment, se.Stage)
			assert.Contains(t, se.Log, tc.want)
		})
	}
}

func TestReflectShaderIgnoresComments(t *testing.T) {
	src := "/* header\n   comment */\n#version 410 core\n// in vec3 ghost;\nin vec3 Color; // trailing\nout vec4 outColor;\nvoid main() {}\n"
	si, err := reflectShader(src, gfx.StageFragment)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Color": "vec3"}, si.inputs)
}

func TestLinkProgram(t *testing.T) {
	d := NewDevice(1, 1)
	vs, err := d.CompileShader(testVS, gfx.StageVertex)
	require.NoError(t, err)
	fs, err := d.CompileShader(testTexturedFS, gfx.StageFragment)
	require.NoError(t, err)

	p, err := d.LinkProgram(vs, fs)
	require.NoError(t, err)
	assert.True(t, d.programs[p].sampler)

	mismatched, err := d.CompileShader("#version 410 core\nin vec4 Color;\nin float Fog;\nout vec4 o;\nvoid main() {}\n", gfx.StageFragment)
	require.NoError(t, err)
	_, err = d.LinkProgram(vs, mismatched)
	var le *gfx.LinkError
	require.True(t, errors.As(err, &le), "got %v", err)
	assert.Contains(t, le.Log, "type mismatch for 'Color'")
	assert.Contains(t, le.Log, "fragment input 'Fog' is not written")

	noOut, err := d.CompileShader("#version 410 core\nin vec3 Color;\nvoid main() {}\n", gfx.StageFragment)
	require.NoError(t, err)
	_, err = d.LinkProgram(vs, noOut)
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Log, "no vec4 output")

	_, err = d.LinkProgram(vs, gfx.Shader(12345))
	assert.ErrorIs(t, err, gfx.ErrInvalidHandle)
}
