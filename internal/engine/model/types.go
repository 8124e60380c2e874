// Package model assembles glTF mesh primitives into renderable meshes.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
)

// Vertex is the unified vertex record every primitive is scattered into.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec4
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4
}

// VertexLayout is the backend layout matching Vertex, in declaration order.
var VertexLayout = renderer.Layout{
	{Name: "position", Components: 3},
	{Name: "color", Components: 4},
	{Name: "texcoord", Components: 2},
	{Name: "normal", Components: 3},
	{Name: "tangent", Components: 4},
}

// Primitive is one drawable part of a mesh with its own buffers and material.
type Primitive struct {
	Index        int
	Mode         gltf.PrimitiveMode
	VertexBuffer renderer.BufferHandle
	IndexBuffer  renderer.BufferHandle
	VertexCount  int
	IndexCount   int
	Bounds       Bounds
	Sphere       Sphere
	Material     *material.Material
}

// Mesh is an assembled glTF mesh. Entities share it through reference counts.
type Mesh struct {
	Name       string
	Index      int
	Primitives []*Primitive
	Bounds     Bounds
	Sphere     Sphere

	refs    renderer.RefCount
	backend renderer.Backend
}

// Radius returns the bounding sphere radius, 0 for an empty mesh.
func (m *Mesh) Radius() float32 {
	return max(m.Sphere.Radius, 0)
}

// VertexCount returns the total vertex count over all primitives.
func (m *Mesh) VertexCount() int {
	n := 0
	for _, p := range m.Primitives {
		n += p.VertexCount
	}
	return n
}

// IndexCount returns the total index count over all primitives.
func (m *Mesh) IndexCount() int {
	n := 0
	for _, p := range m.Primitives {
		n += p.IndexCount
	}
	return n
}

// Retain adds a reference.
func (m *Mesh) Retain() {
	m.refs.Retain()
}

// Release drops a reference. The last release destroys the primitive
// buffers and releases their materials.
func (m *Mesh) Release() {
	if !m.refs.Release() {
		return
	}
	for _, p := range m.Primitives {
		m.backend.DestroyBuffer(p.VertexBuffer)
		m.backend.DestroyBuffer(p.IndexBuffer)
		if p.Material != nil {
			p.Material.Release()
			p.Material = nil
		}
	}
}

// Refs returns the number of live references.
func (m *Mesh) Refs() int32 {
	return m.refs.Count()
}
