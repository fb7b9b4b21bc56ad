package raster

import (
	"image"
	"math"
)

// clipVertex is a vertex after the vertex stage, in clip space.
type clipVertex struct {
	pos   [4]float64
	color [3]float64
	uv    [2]float64
}

// screenVertex is a clipped vertex in window space. Attributes are stored
// divided by w for perspective-correct interpolation.
type screenVertex struct {
	x, y, z float64
	invW    float64
	color   [3]float64
	uv      [2]float64
}

// shading holds the per-draw fragment inputs.
type shading struct {
	tint [3]float64
	tex  *image.NRGBA // nil when the fragment stage does not sample
}

const nearEpsilon = 1e-9

// clipNear clips a triangle against the near plane (z >= -w) and returns
// the resulting convex polygon, possibly empty.
func clipNear(tri [3]clipVertex) []clipVertex {
	dist := func(v clipVertex) float64 { return v.pos[2] + v.pos[3] }

	out := make([]clipVertex, 0, 4)
	for i := 0; i < 3; i++ {
		a := tri[i]
		b := tri[(i+1)%3]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			t := da / (da - db)
			out = append(out, lerpClip(a, b, t))
		}
	}
	return out
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	var v clipVertex
	for k := 0; k < 4; k++ {
		v.pos[k] = a.pos[k] + (b.pos[k]-a.pos[k])*t
	}
	for k := 0; k < 3; k++ {
		v.color[k] = a.color[k] + (b.color[k]-a.color[k])*t
	}
	for k := 0; k < 2; k++ {
		v.uv[k] = a.uv[k] + (b.uv[k]-a.uv[k])*t
	}
	return v
}

// toScreen performs the perspective divide and viewport transform. Row 0 of
// the frame is the top of the image.
func toScreen(v clipVertex, width, height int) (screenVertex, bool) {
	w := v.pos[3]
	if w < nearEpsilon {
		return screenVertex{}, false
	}
	invW := 1 / w
	ndcX := v.pos[0] * invW
	ndcY := v.pos[1] * invW
	ndcZ := v.pos[2] * invW
	return screenVertex{
		x:     (ndcX*0.5 + 0.5) * float64(width),
		y:     (0.5 - ndcY*0.5) * float64(height),
		z:     ndcZ*0.5 + 0.5,
		invW:  invW,
		color: [3]float64{v.color[0] * invW, v.color[1] * invW, v.color[2] * invW},
		uv:    [2]float64{v.uv[0] * invW, v.uv[1] * invW},
	}, true
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// RasterizeTriangle fills the pixels whose centers fall inside the triangle,
// running each fragment through the stencil test, depth test, stencil update,
// depth write and color write in that order. Both windings are drawn.
//
// This is the HOT PATH — no allocation in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, st *State, v [3]screenVertex, sh *shading) {
	v0, v1, v2 := v[0], v[1], v[2]

	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if math.Abs(area) < 1e-12 {
		return
	}
	invArea := 1 / area

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(v0.x, v1.x), v2.x)))
	maxX := int(math.Ceil(math.Max(math.Max(v0.x, v1.x), v2.x)))
	minY := int(math.Floor(math.Min(math.Min(v0.y, v1.y), v2.y)))
	maxY := int(math.Ceil(math.Max(math.Max(v0.y, v1.y), v2.y)))

	if minX < 0 {
		minX = 0
	}
	if maxX > fb.Width-1 {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > fb.Height-1 {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	for sy := minY; sy <= maxY; sy++ {
		py := float64(sy) + 0.5
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			px := float64(sx) + 0.5

			w0 := edge(v1.x, v1.y, v2.x, v2.y, px, py) * invArea
			w1 := edge(v2.x, v2.y, v0.x, v0.y, px, py) * invArea
			w2 := edge(v0.x, v0.y, v1.x, v1.y, px, py) * invArea
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*v0.z + w1*v1.z + w2*v2.z
			if z < 0 || z > 1 {
				continue
			}

			idx := rowOff + sx

			var stored uint8
			if st.StencilTest {
				stored = fb.Stencil[idx]
				if !st.stencilPasses(stored) {
					fb.Stencil[idx] = st.stencilUpdate(st.StencilFail, stored)
					continue
				}
			}
			if st.DepthTest && !(z < fb.Depth[idx]) {
				if st.StencilTest {
					fb.Stencil[idx] = st.stencilUpdate(st.DepthFail, stored)
				}
				continue
			}
			if st.StencilTest {
				fb.Stencil[idx] = st.stencilUpdate(st.DepthPass, stored)
			}
			if st.DepthTest && st.DepthWrite {
				fb.Depth[idx] = z
			}

			invW := w0*v0.invW + w1*v1.invW + w2*v2.invW
			persp := 1 / invW
			cr := (w0*v0.color[0] + w1*v1.color[0] + w2*v2.color[0]) * persp * sh.tint[0]
			cg := (w0*v0.color[1] + w1*v1.color[1] + w2*v2.color[1]) * persp * sh.tint[1]
			cb := (w0*v0.color[2] + w1*v1.color[2] + w2*v2.color[2]) * persp * sh.tint[2]

			if sh.tex != nil {
				u := (w0*v0.uv[0] + w1*v1.uv[0] + w2*v2.uv[0]) * persp
				tv := (w0*v0.uv[1] + w1*v1.uv[1] + w2*v2.uv[1]) * persp
				tr, tg, tb, _ := SampleTexture(sh.tex, u, tv)
				cr *= float64(tr) / 255
				cg *= float64(tg) / 255
				cb *= float64(tb) / 255
			}

			pxIdx := idx * 4
			fb.Color[pxIdx] = clamp255(cr * 255)
			fb.Color[pxIdx+1] = clamp255(cg * 255)
			fb.Color[pxIdx+2] = clamp255(cb * 255)
			fb.Color[pxIdx+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
