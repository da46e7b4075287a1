package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/voxedit/world"
)

// Frustum holds the clip planes of a view-projection matrix.
type Frustum [6]mgl32.Vec4

func NewFrustum(mat mgl32.Mat4) Frustum {
	c1, c2, c3, c4 := mat.Rows()
	return Frustum{
		c4.Add(c1), // left
		c4.Sub(c1), // right
		c4.Sub(c2), // top
		c4.Add(c2), // bottom
		c4.Add(c3), // near
		c4.Sub(c3), // far
	}
}

// Visible reports whether any part of the box may be inside the frustum.
func (f Frustum) Visible(b world.AABB) bool {
	points := [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
	}
	for _, plane := range f {
		in := false
		for _, p := range points {
			if plane.Dot(p.Vec4(1)) >= 0 {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	return true
}

// CountVisible returns how many boxes intersect the frustum.
func (f Frustum) CountVisible(boxes []world.AABB) int {
	n := 0
	for _, b := range boxes {
		if f.Visible(b) {
			n++
		}
	}
	return n
}
