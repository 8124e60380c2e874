// Package gltftest builds small glTF documents in memory for tests.
package gltftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/qmuntal/gltf"
)

// Builder appends typed data to a single binary buffer and records the
// matching buffer views and accessors.
type Builder struct {
	doc *gltf.Document
	buf []byte
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{doc: &gltf.Document{Asset: gltf.Asset{Version: "2.0", Generator: "gltftest"}}}
}

// Doc returns the document under construction. Call Build before reading
// buffer data from it.
func (b *Builder) Doc() *gltf.Document {
	return b.doc
}

// Build finalizes the single buffer and returns the document.
func (b *Builder) Build() *gltf.Document {
	data := append([]byte(nil), b.buf...)
	if len(b.doc.Buffers) == 0 {
		b.doc.Buffers = []*gltf.Buffer{{}}
	}
	b.doc.Buffers[0].Data = data
	b.doc.Buffers[0].ByteLength = len(data)
	return b.doc
}

// EncodeGLB builds the document and encodes it as a binary container.
func (b *Builder) EncodeGLB() ([]byte, error) {
	doc := b.Build()
	var out bytes.Buffer
	enc := gltf.NewEncoder(&out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// AddView appends raw bytes as a new buffer view and returns its index.
func (b *Builder) AddView(data []byte, stride int) int {
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: len(b.buf),
		ByteLength: len(data),
		ByteStride: stride,
	}
	b.buf = append(b.buf, data...)
	b.doc.BufferViews = append(b.doc.BufferViews, view)
	return len(b.doc.BufferViews) - 1
}

// AddAccessor appends data as a tightly packed view plus an accessor.
func (b *Builder) AddAccessor(data []byte, ct gltf.ComponentType, at gltf.AccessorType, count int, normalized bool) int {
	view := b.AddView(data, 0)
	b.doc.Accessors = append(b.doc.Accessors, &gltf.Accessor{
		BufferView:    Ptr(view),
		ComponentType: ct,
		Type:          at,
		Count:         count,
		Normalized:    normalized,
	})
	return len(b.doc.Accessors) - 1
}

// AddVec3 adds a VEC3 float accessor.
func (b *Builder) AddVec3(v [][3]float32) int {
	return b.AddAccessor(floats(flatten3(v)), gltf.ComponentFloat, gltf.AccessorVec3, len(v), false)
}

// AddVec2 adds a VEC2 float accessor.
func (b *Builder) AddVec2(v [][2]float32) int {
	flat := make([]float32, 0, len(v)*2)
	for _, e := range v {
		flat = append(flat, e[0], e[1])
	}
	return b.AddAccessor(floats(flat), gltf.ComponentFloat, gltf.AccessorVec2, len(v), false)
}

// AddVec4 adds a VEC4 float accessor.
func (b *Builder) AddVec4(v [][4]float32) int {
	flat := make([]float32, 0, len(v)*4)
	for _, e := range v {
		flat = append(flat, e[0], e[1], e[2], e[3])
	}
	return b.AddAccessor(floats(flat), gltf.ComponentFloat, gltf.AccessorVec4, len(v), false)
}

// AddColorsUbyte adds a normalized UNSIGNED_BYTE VEC4 accessor.
func (b *Builder) AddColorsUbyte(v [][4]uint8) int {
	data := make([]byte, 0, len(v)*4)
	for _, e := range v {
		data = append(data, e[0], e[1], e[2], e[3])
	}
	return b.AddAccessor(data, gltf.ComponentUbyte, gltf.AccessorVec4, len(v), true)
}

// AddIndices16 adds an UNSIGNED_SHORT scalar accessor.
func (b *Builder) AddIndices16(idx []uint16) int {
	data := make([]byte, len(idx)*2)
	for i, v := range idx {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return b.AddAccessor(data, gltf.ComponentUshort, gltf.AccessorScalar, len(idx), false)
}

// AddIndices32 adds an UNSIGNED_INT scalar accessor.
func (b *Builder) AddIndices32(idx []uint32) int {
	data := make([]byte, len(idx)*4)
	for i, v := range idx {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	return b.AddAccessor(data, gltf.ComponentUint, gltf.AccessorScalar, len(idx), false)
}

// AddImagePNG encodes a solid w×h PNG into a buffer view and adds an image.
func (b *Builder) AddImagePNG(w, h int, c color.NRGBA) int {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var out bytes.Buffer
	_ = png.Encode(&out, img)

	view := b.AddView(out.Bytes(), 0)
	b.doc.Images = append(b.doc.Images, &gltf.Image{BufferView: Ptr(view), MimeType: "image/png"})
	return len(b.doc.Images) - 1
}

// AddSampler adds a sampler and returns its index.
func (b *Builder) AddSampler(s *gltf.Sampler) int {
	b.doc.Samplers = append(b.doc.Samplers, s)
	return len(b.doc.Samplers) - 1
}

// AddTexture adds a texture over image source with an optional sampler.
func (b *Builder) AddTexture(source int, sampler *int) int {
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Source: Ptr(source), Sampler: sampler})
	return len(b.doc.Textures) - 1
}

// AddMaterial adds a material and returns its index.
func (b *Builder) AddMaterial(m *gltf.Material) int {
	b.doc.Materials = append(b.doc.Materials, m)
	return len(b.doc.Materials) - 1
}

// AddMesh adds a mesh with the given primitives.
func (b *Builder) AddMesh(name string, prims ...*gltf.Primitive) int {
	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{Name: name, Primitives: prims})
	return len(b.doc.Meshes) - 1
}

// AddNode adds a node and returns its index.
func (b *Builder) AddNode(n *gltf.Node) int {
	b.doc.Nodes = append(b.doc.Nodes, n)
	return len(b.doc.Nodes) - 1
}

// AddScene adds a scene over root nodes and makes it the default.
func (b *Builder) AddScene(roots ...int) int {
	b.doc.Scenes = append(b.doc.Scenes, &gltf.Scene{Nodes: roots})
	idx := len(b.doc.Scenes) - 1
	b.doc.Scene = Ptr(idx)
	return idx
}

// Triangle adds a one-triangle primitive with positions, normals, uvs and
// 16-bit indices, returning it without a material.
func (b *Builder) Triangle() *gltf.Primitive {
	pos := b.AddVec3([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	nrm := b.AddVec3([][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}})
	uv := b.AddVec2([][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := b.AddIndices16([]uint16{0, 1, 2})
	return &gltf.Primitive{
		Attributes: map[string]int{
			gltf.POSITION:   pos,
			gltf.NORMAL:     nrm,
			gltf.TEXCOORD_0: uv,
		},
		Indices: Ptr(idx),
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func flatten3(v [][3]float32) []float32 {
	flat := make([]float32, 0, len(v)*3)
	for _, e := range v {
		flat = append(flat, e[0], e[1], e[2])
	}
	return flat
}

func floats(f []float32) []byte {
	data := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}
