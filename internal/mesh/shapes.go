package mesh

// Cube returns a unit cube centered on the origin: 36 white vertices with
// per-face texture coordinates.
func Cube() *Mesh {
	v := []float32{
		-0.5, -0.5, -0.5, 1, 1, 1, 0, 0,
		0.5, -0.5, -0.5, 1, 1, 1, 1, 0,
		0.5, 0.5, -0.5, 1, 1, 1, 1, 1,
		0.5, 0.5, -0.5, 1, 1, 1, 1, 1,
		-0.5, 0.5, -0.5, 1, 1, 1, 0, 1,
		-0.5, -0.5, -0.5, 1, 1, 1, 0, 0,

		-0.5, -0.5, 0.5, 1, 1, 1, 0, 0,
		0.5, -0.5, 0.5, 1, 1, 1, 1, 0,
		0.5, 0.5, 0.5, 1, 1, 1, 1, 1,
		0.5, 0.5, 0.5, 1, 1, 1, 1, 1,
		-0.5, 0.5, 0.5, 1, 1, 1, 0, 1,
		-0.5, -0.5, 0.5, 1, 1, 1, 0, 0,

		-0.5, 0.5, 0.5, 1, 1, 1, 1, 0,
		-0.5, 0.5, -0.5, 1, 1, 1, 1, 1,
		-0.5, -0.5, -0.5, 1, 1, 1, 0, 1,
		-0.5, -0.5, -0.5, 1, 1, 1, 0, 1,
		-0.5, -0.5, 0.5, 1, 1, 1, 0, 0,
		-0.5, 0.5, 0.5, 1, 1, 1, 1, 0,

		0.5, 0.5, 0.5, 1, 1, 1, 1, 0,
		0.5, 0.5, -0.5, 1, 1, 1, 1, 1,
		0.5, -0.5, -0.5, 1, 1, 1, 0, 1,
		0.5, -0.5, -0.5, 1, 1, 1, 0, 1,
		0.5, -0.5, 0.5, 1, 1, 1, 0, 0,
		0.5, 0.5, 0.5, 1, 1, 1, 1, 0,

		-0.5, -0.5, -0.5, 1, 1, 1, 0, 1,
		0.5, -0.5, -0.5, 1, 1, 1, 1, 1,
		0.5, -0.5, 0.5, 1, 1, 1, 1, 0,
		0.5, -0.5, 0.5, 1, 1, 1, 1, 0,
		-0.5, -0.5, 0.5, 1, 1, 1, 0, 0,
		-0.5, -0.5, -0.5, 1, 1, 1, 0, 1,

		-0.5, 0.5, -0.5, 1, 1, 1, 0, 1,
		0.5, 0.5, -0.5, 1, 1, 1, 1, 1,
		0.5, 0.5, 0.5, 1, 1, 1, 1, 0,
		0.5, 0.5, 0.5, 1, 1, 1, 1, 0,
		-0.5, 0.5, 0.5, 1, 1, 1, 0, 0,
		-0.5, 0.5, -0.5, 1, 1, 1, 0, 1,
	}
	return &Mesh{Name: "cube", Layout: FullLayout, Vertices: v}
}

// Floor returns a square in the z = height plane spanning ±halfExtent on x
// and y, filled with a single color.
func Floor(halfExtent, height float32, color [3]float32) *Mesh {
	h := halfExtent
	r, g, b := color[0], color[1], color[2]
	v := []float32{
		-h, -h, height, r, g, b, 0, 0,
		h, -h, height, r, g, b, 1, 0,
		h, h, height, r, g, b, 1, 1,
		h, h, height, r, g, b, 1, 1,
		-h, h, height, r, g, b, 0, 1,
		-h, -h, height, r, g, b, 0, 0,
	}
	return &Mesh{Name: "floor", Layout: FullLayout, Vertices: v}
}

// Quad returns the flat colored quad: red, green, blue and white corners,
// drawn through an index list.
func Quad() *Mesh {
	v := []float32{
		-0.5, 0.5, 0, 1, 0, 0, 0, 0,
		0.5, 0.5, 0, 0, 1, 0, 1, 0,
		0.5, -0.5, 0, 0, 0, 1, 1, 1,
		-0.5, -0.5, 0, 1, 1, 1, 0, 1,
	}
	return &Mesh{
		Name:     "quad",
		Layout:   FullLayout,
		Vertices: v,
		Indices:  []uint32{0, 1, 2, 2, 3, 0},
	}
}
