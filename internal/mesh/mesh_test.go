package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutOffsets(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(8, FullLayout.Stride())
	assert.Equal(3, FullLayout.ColorOffset())
	assert.Equal(6, FullLayout.TexCoordOffset())

	posUV := Layout{Position: true, TexCoord: true}
	assert.Equal(5, posUV.Stride())
	assert.Equal(-1, posUV.ColorOffset())
	assert.Equal(3, posUV.TexCoordOffset())
}

func TestBuiltinShapes(t *testing.T) {
	cube := Cube()
	require.NoError(t, cube.Validate())
	assert.Equal(t, 36, cube.Count())

	floor := Floor(1, -0.5, [3]float32{0, 0, 0})
	require.NoError(t, floor.Validate())
	assert.Equal(t, 6, floor.Count())
	for i := 0; i < floor.VertexCount(); i++ {
		base := i * floor.Layout.Stride()
		assert.Equal(t, float32(-0.5), floor.Vertices[base+2])
		assert.LessOrEqual(t, floor.Vertices[base], float32(1))
		assert.GreaterOrEqual(t, floor.Vertices[base], float32(-1))
	}

	quad := Quad()
	require.NoError(t, quad.Validate())
	assert.Equal(t, 4, quad.VertexCount())
	assert.Equal(t, 6, quad.Count())
}

func TestValidateRejectsBadMeshes(t *testing.T) {
	noPos := &Mesh{Name: "x", Layout: Layout{Color: true}, Vertices: []float32{1, 1, 1}}
	assert.Error(t, noPos.Validate())

	ragged := &Mesh{Name: "x", Layout: FullLayout, Vertices: make([]float32, 9)}
	assert.Error(t, ragged.Validate())

	badIndex := Quad()
	badIndex.Indices = []uint32{0, 1, 4}
	assert.Error(t, badIndex.Validate())
}
