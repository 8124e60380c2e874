package model

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/material"
	"github.com/Faultbox/midgard-gltf/internal/engine/renderer"
	"github.com/Faultbox/midgard-gltf/internal/logger"
	"github.com/Faultbox/midgard-gltf/pkg/formats"
)

// MaxVertices bounds the vertex count of a single primitive.
const MaxVertices = 1 << 24

// MaterialFunc returns the material for a primitive's material index, which
// is nil when the primitive declares none. The primitive retains the result.
type MaterialFunc func(index *int) (*material.Material, error)

// Assembler builds meshes from a document's primitives.
type Assembler struct {
	Backend   renderer.Backend
	Materials MaterialFunc

	// DefaultColor fills vertex colors of primitives without COLOR_0.
	DefaultColor mgl32.Vec4
	// GenerateNormals computes smooth normals for triangle primitives
	// without NORMAL.
	GenerateNormals bool
}

// Failure records a primitive that was skipped.
type Failure struct {
	Primitive int
	Err       error
}

// Mesh assembles every primitive of mesh index. Primitives failing with a
// reference or format error are skipped and reported as failures; a parse
// or bounds error aborts the mesh and is returned as err.
func (a *Assembler) Mesh(ctx context.Context, doc *gltf.Document, index int) (*Mesh, []Failure, error) {
	if index < 0 || index >= len(doc.Meshes) {
		return nil, nil, fmt.Errorf("%w: mesh %d of %d", formats.ErrReference, index, len(doc.Meshes))
	}
	gm := doc.Meshes[index]

	mesh := &Mesh{
		Name:    gm.Name,
		Index:   index,
		Bounds:  EmptyBounds(),
		Sphere:  EmptySphere(),
		backend: a.Backend,
	}

	var failures []Failure
	for i := range gm.Primitives {
		if err := ctx.Err(); err != nil {
			mesh.Release()
			return nil, nil, err
		}

		p, err := a.Primitive(doc, index, i)
		if err != nil {
			if formats.IsFatal(err) {
				mesh.Release()
				return nil, nil, err
			}
			failures = append(failures, Failure{Primitive: i, Err: err})
			continue
		}
		mesh.Primitives = append(mesh.Primitives, p)
		mesh.Bounds = mesh.Bounds.Union(p.Bounds)
		mesh.Sphere.Merge(p.Sphere)
	}

	logger.Debug("mesh assembled",
		zap.Int("mesh", index),
		zap.String("name", gm.Name),
		zap.Int("primitives", len(mesh.Primitives)),
		zap.Int("failed", len(failures)),
		zap.Int("vertices", mesh.VertexCount()))

	return mesh, failures, nil
}

// Primitive assembles primitive prim of mesh index and uploads its buffers.
func (a *Assembler) Primitive(doc *gltf.Document, index, prim int) (*Primitive, error) {
	if index < 0 || index >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d of %d", formats.ErrReference, index, len(doc.Meshes))
	}
	gm := doc.Meshes[index]
	if prim < 0 || prim >= len(gm.Primitives) {
		return nil, fmt.Errorf("%w: primitive %d of %d", formats.ErrReference, prim, len(gm.Primitives))
	}
	gp := gm.Primitives[prim]

	vertices, err := a.vertices(doc, gp)
	if err != nil {
		return nil, fmt.Errorf("mesh %d primitive %d: %w", index, prim, err)
	}
	indices, err := readIndices(doc, gp, len(vertices))
	if err != nil {
		return nil, fmt.Errorf("mesh %d primitive %d: %w", index, prim, err)
	}
	if _, ok := gp.Attributes[gltf.NORMAL]; !ok && a.GenerateNormals && gp.Mode == gltf.PrimitiveTriangles {
		ComputeNormals(vertices, indices)
	}

	mat, err := a.Materials(gp.Material)
	if err != nil {
		return nil, fmt.Errorf("mesh %d primitive %d: %w", index, prim, err)
	}

	p := &Primitive{
		Index:       prim,
		Mode:        gp.Mode,
		VertexCount: len(vertices),
		IndexCount:  len(indices),
		Bounds:      EmptyBounds(),
		Sphere:      EmptySphere(),
	}
	for i := range vertices {
		updateBounds(&p.Bounds, vertices[i].Position)
		p.Sphere.Grow(vertices[i].Position)
	}

	p.VertexBuffer, err = a.Backend.CreateVertexBuffer(VertexLayout, EncodeVertices(vertices))
	if err != nil {
		return nil, fmt.Errorf("mesh %d primitive %d: vertex buffer: %w", index, prim, err)
	}
	p.IndexBuffer, err = a.Backend.CreateIndexBuffer(indices)
	if err != nil {
		a.Backend.DestroyBuffer(p.VertexBuffer)
		return nil, fmt.Errorf("mesh %d primitive %d: index buffer: %w", index, prim, err)
	}

	mat.Retain()
	p.Material = mat
	return p, nil
}

// vertices scatters every known attribute into a fresh vertex array sized
// by POSITION.
func (a *Assembler) vertices(doc *gltf.Document, gp *gltf.Primitive) ([]Vertex, error) {
	posIdx, ok := gp.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: primitive has no POSITION", formats.ErrReference)
	}
	if posIdx >= 0 && posIdx < len(doc.Accessors) && doc.Accessors[posIdx].Count > MaxVertices {
		return nil, fmt.Errorf("%w: POSITION count %d exceeds %d vertices",
			formats.ErrBounds, doc.Accessors[posIdx].Count, MaxVertices)
	}
	pos, err := formats.ResolveAccessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("POSITION: %w", err)
	}

	vertices := make([]Vertex, pos.Count)
	if _, ok := gp.Attributes[gltf.COLOR_0]; !ok {
		for i := range vertices {
			vertices[i].Color = a.DefaultColor
		}
	}
	if err := AttrPosition.scatter(pos, vertices); err != nil {
		return nil, err
	}

	for attr := AttrPosition + 1; attr < attrCount; attr++ {
		acc, ok := gp.Attributes[attr.String()]
		if !ok {
			continue
		}
		span, err := formats.ResolveAccessor(doc, acc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		if err := attr.scatter(span, vertices); err != nil {
			return nil, err
		}
	}

	for name := range gp.Attributes {
		if _, ok := LookupAttribute(name); !ok {
			logger.Debug("ignoring vertex attribute", zap.String("attribute", name))
		}
	}
	return vertices, nil
}

// readIndices widens the primitive's indices to 32 bits, or generates
// 0..n-1 when the primitive is not indexed.
func readIndices(doc *gltf.Document, gp *gltf.Primitive, vertexCount int) ([]uint32, error) {
	if gp.Indices == nil {
		if int64(vertexCount) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d vertices", formats.ErrBounds, vertexCount)
		}
		out := make([]uint32, vertexCount)
		for i := range out {
			out[i] = uint32(i)
		}
		return out, nil
	}

	span, err := formats.ResolveAccessor(doc, *gp.Indices)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	indices, err := span.Uint32s()
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	for i, v := range indices {
		if int64(v) >= int64(vertexCount) {
			return nil, fmt.Errorf("%w: index %d at %d exceeds %d vertices", formats.ErrBounds, v, i, vertexCount)
		}
	}
	return indices, nil
}

// EncodeVertices serializes vertices as little-endian float32 in
// VertexLayout order.
func EncodeVertices(vertices []Vertex) []byte {
	stride := VertexLayout.Stride()
	out := make([]byte, len(vertices)*stride)
	o := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(out[o:], math.Float32bits(f))
		o += 4
	}
	for i := range vertices {
		v := &vertices[i]
		for _, f := range v.Position {
			put(f)
		}
		for _, f := range v.Color {
			put(f)
		}
		for _, f := range v.TexCoord {
			put(f)
		}
		for _, f := range v.Normal {
			put(f)
		}
		for _, f := range v.Tangent {
			put(f)
		}
	}
	return out
}
