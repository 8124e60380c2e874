package model

import "github.com/go-gl/mathgl/mgl32"

// ComputeNormals sets each vertex normal to the area-weighted average of
// the triangles using it. Vertices on no usable triangle point up.
func ComputeNormals(vertices []Vertex, indices []uint32) {
	sums := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			continue
		}
		p0 := vertices[a].Position
		e1 := vertices[b].Position.Sub(p0)
		e2 := vertices[c].Position.Sub(p0)
		n := e1.Cross(e2) // length is twice the triangle area
		sums[a] = sums[a].Add(n)
		sums[b] = sums[b].Add(n)
		sums[c] = sums[c].Add(n)
	}

	for i := range vertices {
		if sums[i].Len() < 1e-8 {
			vertices[i].Normal = mgl32.Vec3{0, 1, 0}
			continue
		}
		vertices[i].Normal = sums[i].Normalize()
	}
}
