package mesh

import (
	"errors"
	"fmt"
)

// Layout describes which attributes are interleaved in each vertex, in
// position, color, texcoord order.
type Layout struct {
	Position bool
	Color    bool
	TexCoord bool
}

// FullLayout is position(3) + color(3) + texcoord(2), 8 floats per vertex.
var FullLayout = Layout{Position: true, Color: true, TexCoord: true}

// Stride returns the number of float32 components per vertex.
func (l Layout) Stride() int {
	n := 0
	if l.Position {
		n += 3
	}
	if l.Color {
		n += 3
	}
	if l.TexCoord {
		n += 2
	}
	return n
}

// ColorOffset returns the float offset of the color attribute, or -1.
func (l Layout) ColorOffset() int {
	if !l.Color {
		return -1
	}
	if l.Position {
		return 3
	}
	return 0
}

// TexCoordOffset returns the float offset of the texcoord attribute, or -1.
func (l Layout) TexCoordOffset() int {
	if !l.TexCoord {
		return -1
	}
	off := 0
	if l.Position {
		off += 3
	}
	if l.Color {
		off += 3
	}
	return off
}

// Mesh is a static triangle list. Vertices are interleaved per Layout.
// When Indices is non-empty, draw ranges address the index list instead
// of the vertex list.
type Mesh struct {
	Name     string
	Layout   Layout
	Vertices []float32
	Indices  []uint32
}

// VertexCount returns the number of vertices stored in the mesh.
func (m *Mesh) VertexCount() int {
	s := m.Layout.Stride()
	if s == 0 {
		return 0
	}
	return len(m.Vertices) / s
}

// Count returns the number of elements a full draw of this mesh covers.
func (m *Mesh) Count() int {
	if len(m.Indices) > 0 {
		return len(m.Indices)
	}
	return m.VertexCount()
}

// Validate checks the mesh is drawable as a triangle list.
func (m *Mesh) Validate() error {
	if !m.Layout.Position {
		return errors.New("mesh: layout has no position attribute")
	}
	s := m.Layout.Stride()
	if len(m.Vertices)%s != 0 {
		return fmt.Errorf("mesh: %s: %d floats is not a multiple of stride %d", m.Name, len(m.Vertices), s)
	}
	if m.Count()%3 != 0 {
		return fmt.Errorf("mesh: %s: %d elements is not a triangle list", m.Name, m.Count())
	}
	nv := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= nv {
			return fmt.Errorf("mesh: %s: index %d at %d out of range (%d vertices)", m.Name, idx, i, nv)
		}
	}
	return nil
}
